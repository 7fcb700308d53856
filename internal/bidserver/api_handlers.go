package bidserver

import (
	"errors"
	"log/slog"

	"github.com/evidenceledger/proxybid/internal/authn"
	"github.com/evidenceledger/proxybid/internal/database"
	"github.com/evidenceledger/proxybid/internal/models"
	"github.com/evidenceledger/proxybid/internal/submission"
	"github.com/evidenceledger/proxybid/internal/validate"
	"github.com/gofiber/fiber/v2"
)

func (s *Server) registerAPIHandlers() {

	api := s.httpServer.Group("/api")

	// Public lookups
	api.Get("/courts", s.APICourts)
	api.Get("/court-auction", s.APICourtAuction)

	// Applications of the authenticated user
	apps := api.Group("/applications", s.verifier.Middleware())
	apps.Post("/", s.APICreateApplication)
	apps.Get("/", s.APIListApplications)
	apps.Get("/:id", s.APIGetApplication)

}

// APICourts lists the court offices
func (s *Server) APICourts(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": s.courts.All()})
}

// APICourtAuction looks up a case. The answer is always a LookupResponse.
func (s *Server) APICourtAuction(c *fiber.Ctx) error {
	in := models.LookupInput{
		CourtCode:  c.Query("courtCode"),
		CaseNumber: c.Query("caseNumber"),
	}

	if errs := validate.ValidateLookupInput(in, s.courts); len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(lookupError(errs[0].Message))
	}

	res, err := s.lookupCase(c.UserContext(), in.CourtCode, in.CaseNumber)
	if err != nil {
		code, msg := lookupFailure(err)
		slog.Warn("Case lookup failed", "court", in.CourtCode, "case", in.CaseNumber, "error", err)
		return c.Status(code).JSON(lookupError(msg))
	}

	return c.JSON(models.LookupResponse{Data: res})
}

func lookupError(msg string) models.LookupResponse {
	return models.LookupResponse{Error: &msg}
}

// applicationRequest is the body of POST /api/applications.
// The case is always fetched again from the court system, never taken from the client.
type applicationRequest struct {
	Lookup models.LookupInput `json:"lookup"`
	Form   models.FormData    `json:"form"`
}

// APICreateApplication submits a complete application in a single request
func (s *Server) APICreateApplication(c *fiber.Ctx) error {
	id := authn.FromCtx(c)
	ctx := c.UserContext()

	var req applicationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "잘못된 요청입니다")
	}

	if errs := validate.ValidateLookupInput(req.Lookup, s.courts); len(errs) > 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "입력값을 확인해 주세요",
			"fields": errs,
		})
	}

	res, err := s.lookupCase(ctx, req.Lookup.CourtCode, req.Lookup.CaseNumber)
	if err != nil {
		code, msg := lookupFailure(err)
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}

	app, err := s.submissions.Submit(ctx, id, submission.Request{
		Lookup: req.Lookup,
		Case:   res,
		Form:   req.Form,
	})
	if err != nil {
		var invalid *submission.InvalidError
		if errors.As(err, &invalid) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":  "입력값을 확인해 주세요",
				"fields": invalid.Errors,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": submission.FailureMessage})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data":    app,
		"message": submission.ConfirmationMessage,
	})
}

// APIListApplications lists the applications of the caller
func (s *Server) APIListApplications(c *fiber.Ctx) error {
	id := authn.FromCtx(c)

	list, err := s.store.ListApplications(c.UserContext(), database.ListQuery{
		UserID:          id.UserID,
		Status:          c.Query("status"),
		ApplicationType: c.Query("type"),
		Page:            c.QueryInt("page", 1),
		Limit:           c.QueryInt("limit", database.DefaultLimit),
		Sort:            c.Query("sort"),
		Order:           c.Query("order"),
	})
	if err != nil {
		return err
	}

	return c.JSON(list)
}

// APIGetApplication returns one application of the caller
func (s *Server) APIGetApplication(c *fiber.Ctx) error {
	id := authn.FromCtx(c)

	app, err := s.store.GetApplication(c.UserContext(), c.Params("id"), id.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "신청 내역을 찾을 수 없습니다")
		}
		return err
	}

	return c.JSON(fiber.Map{"data": app})
}
