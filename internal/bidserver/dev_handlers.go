package bidserver

import (
	"log/slog"
	"time"

	"github.com/evidenceledger/proxybid/internal/authn"
	"github.com/gofiber/fiber/v2"
)

const testTokenTTL = 8 * time.Hour

func (s *Server) registerDevHandlers() {

	// Issue tokens for local testing, standing in for the auth provider
	s.httpServer.Post("/test/token", s.handleTestToken)
	s.httpServer.Get("/test/login", s.handleTestLogin)

}

// handleTestToken issues a token for the posted test user, or for a default one
func (s *Server) handleTestToken(c *fiber.Ctx) error {
	slog.Debug("Test token generation requested")

	id := authn.Identity{
		UserID: "test-user",
		Email:  "test@example.com",
		Name:   "홍길동",
		Role:   "user",
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&id); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid test identity")
		}
	}
	if id.UserID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "userId is required")
	}

	token, err := s.issueTestCookie(c, id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(testTokenTTL.Seconds()),
	})
}

// handleTestLogin sets a session cookie for the default test user and opens the wizard
func (s *Server) handleTestLogin(c *fiber.Ctx) error {
	_, err := s.issueTestCookie(c, authn.Identity{
		UserID: "test-user",
		Email:  "test@example.com",
		Name:   "홍길동",
		Role:   "user",
	})
	if err != nil {
		return err
	}
	return c.Redirect("/bid", fiber.StatusSeeOther)
}

func (s *Server) issueTestCookie(c *fiber.Ctx, id authn.Identity) (string, error) {
	token, err := s.verifier.Issue(id, testTokenTTL)
	if err != nil {
		return "", err
	}

	c.Cookie(&fiber.Cookie{
		Name:     authn.CookieName(),
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(testTokenTTL),
	})
	return token, nil
}
