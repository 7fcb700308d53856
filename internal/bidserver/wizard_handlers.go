package bidserver

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strconv"
	"strings"

	"github.com/evidenceledger/proxybid/internal/authn"
	"github.com/evidenceledger/proxybid/internal/courtclient"
	"github.com/evidenceledger/proxybid/internal/models"
	"github.com/evidenceledger/proxybid/internal/submission"
	"github.com/evidenceledger/proxybid/internal/validate"
	"github.com/evidenceledger/proxybid/internal/wizard"
	"github.com/gofiber/fiber/v2"
)

// maxMembers bounds the member rows read from a group application form
const maxMembers = 20

var stepTemplates = map[wizard.Step]string{
	wizard.CaseLookup:   "case_lookup",
	wizard.InputForm:    "input_form",
	wizard.ContractSign: "contract_sign",
	wizard.Payment:      "payment",
	wizard.Review:       "review",
}

func (s *Server) registerWizardHandlers() {

	bid := s.httpServer.Group("/bid", s.verifier.Middleware())

	// The active step of the wizard
	bid.Get("/", s.PageWizard)

	// Queries the court system and records the case in the wizard
	bid.Post("/lookup", s.WizardLookup)

	// Saves the posted fields of the active step and moves
	bid.Post("/next", s.WizardNext)
	bid.Post("/back", s.WizardBack)

	// Stores the application. Only possible from the review step.
	bid.Post("/submit", s.WizardSubmit)

	bid.Get("/done", s.PageDone)
	bid.Post("/reset", s.WizardReset)

}

// PageWizard renders the active step
func (s *Server) PageWizard(c *fiber.Ctx) error {
	id := authn.FromCtx(c)

	w, err := s.wizards.Load(c.UserContext(), id.UserID)
	if err != nil {
		return err
	}

	if w.Step == wizard.Done {
		return c.Redirect("/bid/done", fiber.StatusSeeOther)
	}

	return s.renderStep(c, id, w, nil, "")
}

// WizardLookup runs the case lookup and shows the result in the first step
func (s *Server) WizardLookup(c *fiber.Ctx) error {
	id := authn.FromCtx(c)
	ctx := c.UserContext()

	w, err := s.wizards.Load(ctx, id.UserID)
	if err != nil {
		return err
	}

	if w.Step != wizard.CaseLookup {
		return s.renderConflict(c, id, w, wizard.ErrNotLookupStep)
	}

	var in models.LookupInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "잘못된 요청입니다")
	}

	if errs := validate.ValidateLookupInput(in, s.courts); len(errs) > 0 {
		if err := w.SetCase(in, nil); err != nil {
			return err
		}
		if err := s.wizards.Save(ctx, id.UserID, w); err != nil {
			return err
		}
		c.Status(fiber.StatusUnprocessableEntity)
		return s.renderStep(c, id, w, errs, "")
	}

	res, lookupErr := s.lookupCase(ctx, in.CourtCode, in.CaseNumber)

	// A failed query clears the previous result
	if err := w.SetCase(in, res); err != nil {
		return err
	}
	if err := s.wizards.Save(ctx, id.UserID, w); err != nil {
		return err
	}

	if lookupErr != nil {
		code, msg := lookupFailure(lookupErr)
		slog.Warn("Case lookup failed", "user", id.UserID, "court", in.CourtCode, "case", in.CaseNumber, "error", lookupErr)
		c.Status(code)
		return s.renderStep(c, id, w, nil, msg)
	}

	return s.renderStep(c, id, w, nil, "")
}

// WizardNext stores the fields of the active step and advances if they are valid
func (s *Server) WizardNext(c *fiber.Ctx) error {
	id := authn.FromCtx(c)
	ctx := c.UserContext()

	w, err := s.wizards.Load(ctx, id.UserID)
	if err != nil {
		return err
	}

	if err := s.applyPosted(c, id, w); err != nil {
		return s.renderConflict(c, id, w, err)
	}

	errs, err := w.Next(s.courts)

	// Entered values are kept even when the step does not validate
	if serr := s.wizards.Save(ctx, id.UserID, w); serr != nil {
		return serr
	}

	if err != nil {
		return s.renderConflict(c, id, w, err)
	}
	if len(errs) > 0 {
		c.Status(fiber.StatusUnprocessableEntity)
		return s.renderStep(c, id, w, errs, "")
	}

	return c.Redirect("/bid", fiber.StatusSeeOther)
}

// WizardBack stores the fields of the active step without validating them and goes back one step
func (s *Server) WizardBack(c *fiber.Ctx) error {
	id := authn.FromCtx(c)
	ctx := c.UserContext()

	w, err := s.wizards.Load(ctx, id.UserID)
	if err != nil {
		return err
	}

	if err := s.applyPosted(c, id, w); err != nil {
		return s.renderConflict(c, id, w, err)
	}

	if err := w.Back(); err != nil && !errors.Is(err, wizard.ErrFirstStep) {
		return s.renderConflict(c, id, w, err)
	}

	if err := s.wizards.Save(ctx, id.UserID, w); err != nil {
		return err
	}

	return c.Redirect("/bid", fiber.StatusSeeOther)
}

// WizardSubmit stores the application and completes the wizard
func (s *Server) WizardSubmit(c *fiber.Ctx) error {
	id := authn.FromCtx(c)
	ctx := c.UserContext()

	w, err := s.wizards.Load(ctx, id.UserID)
	if err != nil {
		return err
	}

	if w.Step != wizard.Review {
		if w.Step == wizard.Done {
			return c.Redirect("/bid/done", fiber.StatusSeeOther)
		}
		return s.renderConflict(c, id, w, wizard.ErrNotReviewStep)
	}

	app, err := s.submissions.Submit(ctx, id, submission.Request{
		Lookup: w.Lookup,
		Case:   w.Case,
		Form:   w.Form,
	})
	if err != nil {
		var invalid *submission.InvalidError
		if errors.As(err, &invalid) {
			c.Status(fiber.StatusUnprocessableEntity)
			return s.renderStep(c, id, w, invalid.Errors, "")
		}
		c.Status(fiber.StatusInternalServerError)
		return s.renderStep(c, id, w, nil, submission.FailureMessage)
	}

	if errs, err := w.Complete(app.ID, s.courts); err != nil {
		// Already stored, so only the wizard is left behind
		slog.Error("Completing wizard after submission", "id", app.ID, "error", err, "fields", errs.Error())
	}

	if err := s.wizards.Save(ctx, id.UserID, w); err != nil {
		return err
	}

	return c.Redirect("/bid/done", fiber.StatusSeeOther)
}

// PageDone shows the confirmation of a submitted application
func (s *Server) PageDone(c *fiber.Ctx) error {
	id := authn.FromCtx(c)
	ctx := c.UserContext()

	w, err := s.wizards.Load(ctx, id.UserID)
	if err != nil {
		return err
	}

	if w.Step != wizard.Done {
		return c.Redirect("/bid", fiber.StatusSeeOther)
	}

	data := fiber.Map{
		"Identity":      id,
		"Step":          w.Step,
		"Steps":         wizard.Steps(),
		"Case":          w.Case,
		"ApplicationID": w.ApplicationID,
		"Message":       submission.ConfirmationMessage,
	}

	app, err := s.store.GetApplication(ctx, w.ApplicationID, id.UserID)
	if err == nil {
		data["Application"] = app
	} else {
		slog.Warn("Submitted application not readable", "id", w.ApplicationID, "error", err)
	}

	return s.htmlRender.Render(c, "done", data, "layout")
}

// WizardReset discards the wizard of the user
func (s *Server) WizardReset(c *fiber.Ctx) error {
	id := authn.FromCtx(c)

	if err := s.wizards.Delete(c.UserContext(), id.UserID); err != nil {
		return err
	}

	return c.Redirect("/bid", fiber.StatusSeeOther)
}

// applyPosted copies the posted fields of the active step into the wizard
func (s *Server) applyPosted(c *fiber.Ctx, id *authn.Identity, w *wizard.Wizard) error {
	if w.Step == wizard.CaseLookup || w.Step == wizard.Review {
		return nil
	}

	var posted models.FormData
	if err := c.BodyParser(&posted); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "잘못된 요청입니다")
	}

	if w.Step == wizard.InputForm {
		posted.MemberCount, posted.Members = parseMembers(c)
		if posted.ApplicantName == "" && w.Form.ApplicantName == "" {
			posted.ApplicantName = id.Name
		}
	}

	return w.Update(posted)
}

// parseMembers reads the member rows of a group application.
// Row i uses the fields member_name_i, member_resident_id_i, member_phone_i and member_share_i.
func parseMembers(c *fiber.Ctx) (int, []models.Member) {
	count, err := strconv.Atoi(strings.TrimSpace(c.FormValue("member_count")))
	if err != nil || count < 0 {
		return 0, nil
	}

	rows := min(count, maxMembers)
	var members []models.Member
	for i := 0; i < rows; i++ {
		m := models.Member{
			Name:       strings.TrimSpace(c.FormValue(fmt.Sprintf("member_name_%d", i))),
			ResidentID: strings.TrimSpace(c.FormValue(fmt.Sprintf("member_resident_id_%d", i))),
			Phone:      strings.TrimSpace(c.FormValue(fmt.Sprintf("member_phone_%d", i))),
			Share:      strings.TrimSpace(c.FormValue(fmt.Sprintf("member_share_%d", i))),
		}
		if m == (models.Member{}) {
			continue
		}
		members = append(members, m)
	}
	return count, members
}

// memberRows returns the member rows to show in the group form, at least two
func memberRows(f models.FormData) []models.Member {
	n := max(f.MemberCount, len(f.Members), 2)
	n = min(n, maxMembers)

	rows := make([]models.Member, n)
	copy(rows, f.Members)
	return rows
}

func (s *Server) renderConflict(c *fiber.Ctx, id *authn.Identity, w *wizard.Wizard, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}

	if errors.Is(err, wizard.ErrFinished) {
		return c.Redirect("/bid/done", fiber.StatusSeeOther)
	}

	msg := "이 단계에서는 할 수 없는 작업입니다."
	if errors.Is(err, wizard.ErrSubmitRequired) {
		msg = "최종 확인 후 신청하기 버튼을 눌러 주세요."
	}
	c.Status(fiber.StatusConflict)
	return s.renderStep(c, id, w, nil, msg)
}

// renderStep renders the page of the active step with its field errors and an optional banner message
func (s *Server) renderStep(c *fiber.Ctx, id *authn.Identity, w *wizard.Wizard, errs validate.Errors, message string) error {
	name, ok := stepTemplates[w.Step]
	if !ok {
		return c.Redirect("/bid/done", fiber.StatusSeeOther)
	}

	data := fiber.Map{
		"Identity": id,
		"Step":     w.Step,
		"Steps":    wizard.Steps(),
		"Lookup":   w.Lookup,
		"Case":     w.Case,
		"Form":     w.Form,
		"Errors":   errs.Map(),
		"Message":  message,
		"Courts":   s.courts.All(),
	}

	if court, found := s.courts.Lookup(w.Lookup.CourtCode); found {
		data["CourtName"] = court.Name
	}

	switch w.Step {
	case wizard.InputForm:
		data["MemberRows"] = memberRows(w.Form)
	case wizard.Payment, wizard.Review:
		if w.Case != nil {
			inst, err := s.payment.Instructions(w.Case)
			if err != nil {
				slog.Error(err.Error())
			} else {
				data["Payment"] = inst
				// Generated by us, so it is safe to use as an image source
				data["QRCode"] = template.URL(inst.QRCode)
			}
		}
	}

	if w.Form.Signature != "" && !validate.ValidateContractSign(w.Form).Has("signature") {
		data["SignatureURL"] = template.URL(w.Form.Signature)
	}

	if w.Step == wizard.Review {
		if amount, err := models.ParseAmount(w.Form.BidAmt); err == nil {
			data["BidAmount"] = amount
		}
		// Review shows every remaining problem of the application
		if errs == nil {
			data["Errors"] = w.Validate(s.courts).Map()
		}
	}

	return s.htmlRender.Render(c, name, data, "layout")
}

// lookupCase queries the court system, reusing recent results
func (s *Server) lookupCase(ctx context.Context, courtCode, caseNumber string) (*models.CaseResult, error) {
	key := "case:" + strings.TrimSpace(courtCode) + "|" + strings.TrimSpace(caseNumber)

	if cached, found := s.cache.Get(key); found {
		if res, ok := cached.(*models.CaseResult); ok {
			cp := *res
			return &cp, nil
		}
	}

	res, err := s.client.Lookup(ctx, courtCode, caseNumber)
	if err != nil {
		return nil, err
	}

	cp := *res
	s.cache.Set(key, &cp, s.cfg.LookupCacheTTL)
	return res, nil
}

// lookupFailure maps a lookup error to an HTTP status and a message for the user
func lookupFailure(err error) (int, string) {
	switch {
	case errors.Is(err, courtclient.ErrNotFound):
		return fiber.StatusNotFound, "해당 사건을 찾을 수 없습니다. 법원과 사건번호를 확인해 주세요."
	case errors.Is(err, courtclient.ErrTimeout):
		return fiber.StatusGatewayTimeout, "법원 경매 시스템의 응답이 지연되고 있습니다. 잠시 후 다시 시도해 주세요."
	case errors.Is(err, courtclient.ErrUpstreamUnavailable):
		return fiber.StatusBadGateway, "법원 경매 시스템에 접속할 수 없습니다. 잠시 후 다시 시도해 주세요."
	}
	return fiber.StatusInternalServerError, "사건 조회 중 오류가 발생했습니다. 잠시 후 다시 시도해 주세요."
}
