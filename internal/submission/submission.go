// Package submission turns a completed bid application into a stored record.
package submission

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/evidenceledger/proxybid/internal/authn"
	"github.com/evidenceledger/proxybid/internal/errl"
	"github.com/evidenceledger/proxybid/internal/models"
	"github.com/evidenceledger/proxybid/internal/validate"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Messages shown to the user after a submission attempt
const (
	ConfirmationMessage = "입찰 대리 신청이 접수되었습니다. 담당자가 확인 후 연락드리겠습니다."
	FailureMessage      = "신청을 저장하지 못했습니다. 잠시 후 다시 시도해 주세요."
)

var (
	ErrInvalid = errors.New("application is not valid")
	ErrPersist = errors.New("application could not be stored")
)

// InvalidError carries the field errors that prevented a submission
type InvalidError struct {
	Errors validate.Errors
}

func (e *InvalidError) Error() string {
	return ErrInvalid.Error() + ": " + e.Errors.Error()
}

func (e *InvalidError) Is(target error) bool {
	return target == ErrInvalid
}

// Store persists applications
type Store interface {
	CreateApplication(ctx context.Context, app *models.BiddingApplication) error
}

// Sealer encrypts sensitive values before they are stored
type Sealer interface {
	Seal(plaintext string) (string, error)
}

// Request is everything collected by the wizard
type Request struct {
	Lookup models.LookupInput `json:"lookup"`
	Case   *models.CaseResult `json:"case"`
	Form   models.FormData    `json:"form"`
}

// Service validates and stores applications
type Service struct {
	store  Store
	sealer Sealer
	dir    validate.CourtDirectory
	now    func() time.Time
}

func NewService(store Store, sealer Sealer, dir validate.CourtDirectory) *Service {
	return &Service{store: store, sealer: sealer, dir: dir, now: time.Now}
}

// Submit re-validates the whole application and stores it for the identity.
// It returns an *InvalidError for invalid input, and an error matching
// ErrPersist, with no internal detail, when storing fails.
func (s *Service) Submit(ctx context.Context, id *authn.Identity, req Request) (*models.BiddingApplication, error) {
	if id == nil || id.UserID == "" {
		return nil, errl.Errorf("submission without identity")
	}

	if req.Form.ApplicantName == "" {
		req.Form.ApplicantName = id.Name
	}

	if errs := validate.ValidateReview(req.Lookup, req.Case, req.Form, s.dir); len(errs) > 0 {
		return nil, &InvalidError{Errors: errs}
	}

	app, err := s.ToRecord(id.UserID, req)
	if err != nil {
		slog.Error(err.Error(), "user", id.UserID)
		return nil, ErrPersist
	}

	if err := s.store.CreateApplication(ctx, app); err != nil {
		slog.Error(err.Error(), "user", id.UserID, "case", app.PrintCaseNumber)
		return nil, ErrPersist
	}

	slog.Info("Application submitted", "id", app.ID, "user", id.UserID, "type", app.ApplicationType)
	return app, nil
}

// ToRecord flattens the request into a storable application. Only the fields
// of the selected application type are kept and sensitive values are sealed.
func (s *Service) ToRecord(userID string, req Request) (*models.BiddingApplication, error) {
	if req.Case == nil {
		return nil, errl.Errorf("no case in request")
	}
	f := req.Form

	bid, err := models.ParseAmount(f.BidAmt)
	if err != nil {
		return nil, errl.Errorf("bid amount %q: %w", f.BidAmt, err)
	}

	account, err := s.sealer.Seal(digitsOnly(f.AccountNumber))
	if err != nil {
		return nil, errl.Errorf("sealing account number: %w", err)
	}

	now := s.now().UTC()
	app := &models.BiddingApplication{
		ID:                  uuid.NewString(),
		UserID:              userID,
		Status:              models.StatusSubmitted,
		ApplicationType:     f.ApplicationType,
		CourtCode:           req.Case.CourtCode,
		CourtName:           req.Case.CourtName,
		CaseNumber:          req.Case.CaseNumber,
		PrintCaseNumber:     req.Case.PrintCaseNumber,
		LowestBidAmount:     req.Case.LowestBidAmount,
		DepositAmount:       req.Case.DepositAmount,
		BidDate:             req.Case.BidDate,
		BidAmount:           bid,
		ApplicantName:       f.ApplicantName,
		Phone:               f.Phone,
		Address:             f.Address,
		Bank:                f.Bank,
		AccountNumberSealed: account,
		AccountHolder:       f.AccountHolder,
		PhoneVerified:       f.PhoneVerified,
		Signature:           f.Signature,
		TermsAgreed:         f.TermsAgreed,
		PrivacyAgreed:       f.PrivacyAgreed,
		PaymentMethod:       f.PaymentMethod,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if f.PaymentMethod == models.PaymentTransfer {
		app.DepositorName = f.DepositorName
	}

	switch f.ApplicationType {
	case models.Personal:
		sealed, err := s.sealer.Seal(digitsOnly(f.ResidentID))
		if err != nil {
			return nil, errl.Errorf("sealing resident id: %w", err)
		}
		app.ResidentIDSealed = &sealed

	case models.Company:
		app.CompanyName = ptr(f.CompanyName)
		app.BusinessNumber = ptr(f.BusinessNumber)
		app.Representative = ptr(f.Representative)

	case models.Group:
		members := make([]models.Member, len(f.Members))
		for i, m := range f.Members {
			sealed, err := s.sealer.Seal(digitsOnly(m.ResidentID))
			if err != nil {
				return nil, errl.Errorf("sealing member resident id: %w", err)
			}
			m.Name = strings.TrimSpace(m.Name)
			m.ResidentID = sealed
			members[i] = m
		}
		raw, err := json.Marshal(members)
		if err != nil {
			return nil, errl.Error(err)
		}
		app.Representative = ptr(f.Representative)
		app.MemberCount = ptr(f.MemberCount)
		app.MembersJSON = ptr(string(raw))

	default:
		return nil, errl.Errorf("unknown application type %q", f.ApplicationType)
	}

	return app, nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func ptr[T any](v T) *T {
	return &v
}
