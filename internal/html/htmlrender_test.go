package html

import (
	"io"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testViews = fstest.MapFS{
	"layout.html": {Data: []byte(`<main>{{embed}}</main>`)},
	"amount.html": {Data: []byte(`{{won .Amount}}원 {{range seq .N}}[{{inc .}}]{{end}}`)},
	"broken.html": {Data: []byte(`{{template "missing" .}}`)},
}

func TestRender(t *testing.T) {
	r, err := NewRendererFiber(false, testViews, "", ".html")
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return r.Render(c, "amount", fiber.Map{"Amount": int64(84000000), "N": 2}, "layout")
	})
	app.Get("/broken", func(c *fiber.Ctx) error {
		return r.Render(c, "broken", nil)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "<main>84,000,000원 [1][2]</main>", string(body))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))

	resp, err = app.Test(httptest.NewRequest("GET", "/broken", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
