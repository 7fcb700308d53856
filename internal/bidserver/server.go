package bidserver

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/evidenceledger/proxybid/internal/authn"
	"github.com/evidenceledger/proxybid/internal/cache"
	"github.com/evidenceledger/proxybid/internal/courts"
	"github.com/evidenceledger/proxybid/internal/database"
	"github.com/evidenceledger/proxybid/internal/html"
	"github.com/evidenceledger/proxybid/internal/models"
	"github.com/evidenceledger/proxybid/internal/payment"
	"github.com/evidenceledger/proxybid/internal/submission"
	"github.com/evidenceledger/proxybid/internal/wizard"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

//go:embed views/*
var viewsfs embed.FS

// Views returns the embedded page templates
func Views() fs.FS {
	sub, err := fs.Sub(viewsfs, "views")
	if err != nil {
		panic(err)
	}
	return sub
}

// CaseLookup fetches auction cases from the court system
type CaseLookup interface {
	Lookup(ctx context.Context, courtCode, caseNumber string) (*models.CaseResult, error)
}

// ApplicationStore is the storage used by the handlers
type ApplicationStore interface {
	submission.Store
	GetApplication(ctx context.Context, id, userID string) (*models.BiddingApplication, error)
	ListApplications(ctx context.Context, q database.ListQuery) (*models.ApplicationList, error)
	UpdateApplicationStatus(ctx context.Context, id, status string) error
	Ping(ctx context.Context) error
}

// Config is the configuration of the HTTP server
type Config struct {
	Port           string
	Development    bool
	AdminPassword  string
	LookupCacheTTL time.Duration
	// TemplateDir, if it exists, overrides the embedded templates
	TemplateDir string
}

// Deps are the services the server is built from
type Deps struct {
	Courts      *courts.Directory
	Client      CaseLookup
	Store       ApplicationStore
	Wizards     wizard.Store
	Submissions *submission.Service
	Verifier    *authn.Verifier
	Payment     *payment.Service
	Cache       *cache.Cache
}

// Server serves the bid application wizard, the JSON API and the admin pages
type Server struct {
	cfg         Config
	httpServer  *fiber.App
	htmlRender  *html.RendererFiber
	courts      *courts.Directory
	client      CaseLookup
	store       ApplicationStore
	wizards     wizard.Store
	submissions *submission.Service
	verifier    *authn.Verifier
	payment     *payment.Service
	cache       *cache.Cache
}

// New creates the server and registers all routes
func New(cfg Config, deps Deps) (*Server, error) {

	// The engine to display the HTML screens to the users
	htmlrender, err := html.NewRendererFiber(cfg.Development, Views(), cfg.TemplateDir, ".html")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize template engine: %w", err)
	}

	if cfg.LookupCacheTTL <= 0 {
		cfg.LookupCacheTTL = 10 * time.Minute
	}
	if deps.Cache == nil {
		deps.Cache = cache.New(cfg.LookupCacheTTL)
	}

	s := &Server{
		cfg:         cfg,
		htmlRender:  htmlrender,
		courts:      deps.Courts,
		client:      deps.Client,
		store:       deps.Store,
		wizards:     deps.Wizards,
		submissions: deps.Submissions,
		verifier:    deps.Verifier,
		payment:     deps.Payment,
		cache:       deps.Cache,
	}

	s.httpServer = fiber.New(fiber.Config{
		AppName:                 "ProxyBid",
		ServerHeader:            "ProxyBid",
		EnableTrustedProxyCheck: false,
		ReadTimeout:             30 * time.Second,
		WriteTimeout:            30 * time.Second,
		// Parsed values are kept in the wizard after the request buffers are reused
		Immutable:               true,
		JSONEncoder:             json.Marshal,
		JSONDecoder:             json.Unmarshal,
		ErrorHandler:            s.errorHandler,
	})

	// Recovers from panics anywhere in the stack chain and handles the control to the centralized ErrorHandler
	s.httpServer.Use(recover.New())

	// Helmet middleware helps secure your apps by setting various HTTP headers.
	// Case pictures are served by the court system, so pages must embed cross-origin images.
	s.httpServer.Use(helmet.New(helmet.Config{
		CrossOriginEmbedderPolicy: "unsafe-none",
		CrossOriginResourcePolicy: "same-site",
	}))

	// Ignores favicon requests
	s.httpServer.Use(favicon.New())

	// Logs HTTP request/response details
	s.httpServer.Use(logger.New())

	s.httpServer.Use("/api", cors.New())

	s.httpServer.Get("/health", s.handleHealth)

	s.httpServer.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/bid", fiber.StatusSeeOther)
	})

	s.registerWizardHandlers()
	s.registerAPIHandlers()
	s.registerAdminHandlers(cfg.AdminPassword)

	if cfg.Development {
		s.registerDevHandlers()
	}

	return s, nil
}

// App exposes the fiber application, for tests and embedding
func (s *Server) App() *fiber.App {
	return s.httpServer
}

// Start listens until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {

	if s.httpServer == nil {
		return errors.New("server not initialized")
	}

	addr := net.JoinHostPort("0.0.0.0", s.cfg.Port)
	slog.Info("Starting ProxyBid server", "addr", addr)

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Listen(addr); err != nil {
			errChan <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	// Wait for context cancellation or error
	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return s.httpServer.ShutdownWithTimeout(10 * time.Second)
	}

}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	if err := s.store.Ping(c.UserContext()); err != nil {
		slog.Error("Health check failed", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unhealthy"})
	}
	return c.JSON(fiber.Map{"status": "healthy", "hostname": c.Hostname()})
}

// errorHandler answers JSON for the API and an error page for everything else
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "요청을 처리하지 못했습니다. 잠시 후 다시 시도해 주세요."

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		if code < fiber.StatusInternalServerError {
			message = fe.Message
		}
	}

	if code >= fiber.StatusInternalServerError {
		slog.Error(err.Error(), "path", c.Path(), "method", c.Method())
	}

	if strings.HasPrefix(c.Path(), "/api") {
		return c.Status(code).JSON(fiber.Map{"error": message})
	}

	c.Status(code)
	if rerr := s.htmlRender.Render(c, "error", fiber.Map{
		"Status":      code,
		"Message":     message,
		"Development": s.cfg.Development,
	}, "layout"); rerr != nil {
		return c.Status(code).SendString(message)
	}
	return nil
}
