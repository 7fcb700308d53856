package html

import (
	"bytes"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/evidenceledger/proxybid/internal/errl"
	"github.com/evidenceledger/proxybid/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
)

type RendererFiber struct {
	engine *html.Engine
}

// NewRendererFiber creates a new HTML renderer.
// It supports both embedded templates (in viewsfs) and external templates (in extDir).
// If extDir exists the templates are loaded from there, which is useful while editing them.
// If reload is true, the templates are parsed again on each render.
func NewRendererFiber(reload bool, viewsfs fs.FS, extDir string, extension string) (*RendererFiber, error) {

	engine, err := newEngine(reload, viewsfs, extDir, extension)
	if err != nil {
		return nil, errl.Error(err)
	}

	renderer := &RendererFiber{
		engine: engine,
	}

	return renderer, nil
}

func newEngine(reload bool, viewsfs fs.FS, extDir string, extension string) (*html.Engine, error) {

	var engine *html.Engine

	fi, err := os.Stat(extDir)
	if extDir != "" && err == nil && fi.IsDir() {
		// Use the user-provided templates in the external directory
		slog.Info("Using external HTML templates", "dir", extDir)
		engine = html.NewFileSystem(http.Dir(extDir), extension)
	} else {
		slog.Info("Using embedded HTML templates")
		engine = html.NewFileSystem(http.FS(viewsfs), extension)
	}

	engine.Reload(reload)
	addFuncs(engine)

	if err := engine.Load(); err != nil {
		return nil, errl.Errorf("failed to load HTML templates: %w", err)
	}

	for _, tpl := range engine.Templates.Templates() {
		slog.Debug("Loaded template", "name", tpl.Name())
	}

	return engine, nil
}

// addFuncs registers the template functions. It must be called before Load.
func addFuncs(engine *html.Engine) {
	engine.AddFunc("won", models.FormatWon)
	engine.AddFunc("inc", func(i int) int { return i + 1 })
	engine.AddFunc("seq", func(n int) []int {
		s := make([]int, 0, n)
		for i := 0; i < n; i++ {
			s = append(s, i)
		}
		return s
	})
}

// ResponseSecurityHeadersFiber sets the security headers for the response
func ResponseSecurityHeadersFiber(c *fiber.Ctx) {

	c.Set("Content-Security-Policy", "frame-ancestors 'none';")
	c.Set("X-Frame-Options", "DENY")
	c.Set("X-Content-Type-Options", "nosniff")
	c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	c.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
	c.Set("Cross-Origin-Opener-Policy", "same-origin")
	c.Set("Cross-Origin-Resource-Policy", "same-site")
	c.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=(), payment=(), interest-cohort=()")
	c.Set("X-Powered-By", "webserver")

}

// Render executes templateName with data, optionally inside a layout, and sends it as the response body
func (h *RendererFiber) Render(c *fiber.Ctx, templateName string, data map[string]any, layout ...string) error {

	c.Set("Content-Type", "text/html; charset=utf-8")
	ResponseSecurityHeadersFiber(c)

	out := &bytes.Buffer{}

	if err := h.engine.Render(out, templateName, data, layout...); err != nil {
		slog.Error("Error rendering template",
			slog.String("template", templateName),
			slog.String("error", err.Error()),
		)
		return fiber.NewError(fiber.StatusInternalServerError, "rendering response")
	}

	return c.Send(out.Bytes())

}
