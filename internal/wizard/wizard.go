// Package wizard holds the state machine of the bid application wizard.
//
// The wizard walks through five ordered steps and ends in Done. Moving forward
// requires the active step to validate; moving back never discards anything.
// Done only accepts Reset.
package wizard

import (
	"errors"
	"strings"

	"github.com/evidenceledger/proxybid/internal/models"
	"github.com/evidenceledger/proxybid/internal/validate"
)

// Step is a position in the wizard
type Step int

const (
	CaseLookup Step = iota
	InputForm
	ContractSign
	Payment
	Review
	Done
)

var stepNames = [...]string{"case_lookup", "input_form", "contract_sign", "payment", "review", "done"}

var stepTitles = [...]string{"사건 조회", "신청 정보 입력", "위임 계약 서명", "결제", "최종 확인", "신청 완료"}

func (s Step) String() string {
	if s < CaseLookup || s > Done {
		return "unknown"
	}
	return stepNames[s]
}

// Title is the label shown in the progress bar
func (s Step) Title() string {
	if s < CaseLookup || s > Done {
		return ""
	}
	return stepTitles[s]
}

// Number is the 1-based position shown to users
func (s Step) Number() int {
	return int(s) + 1
}

// Steps lists the steps that take input, in order
func Steps() []Step {
	return []Step{CaseLookup, InputForm, ContractSign, Payment, Review}
}

var (
	ErrFinished       = errors.New("application already submitted")
	ErrFirstStep      = errors.New("already at the first step")
	ErrSubmitRequired = errors.New("the review step can only be left by submitting")
	ErrNotLookupStep  = errors.New("the case can only be changed on the lookup step")
	ErrNotReviewStep  = errors.New("only the review step can be submitted")
	ErrInvalid        = errors.New("the application has invalid fields")
)

// Wizard is the state of one user's application in progress
type Wizard struct {
	Step          Step               `json:"step"`
	Lookup        models.LookupInput `json:"lookup"`
	Case          *models.CaseResult `json:"case,omitempty"`
	Form          models.FormData    `json:"form"`
	ApplicationID string             `json:"applicationId,omitempty"`
}

// New returns a wizard positioned at the case lookup step
func New() *Wizard {
	return &Wizard{Step: CaseLookup}
}

// Clone returns a copy that shares nothing mutable with w
func (w *Wizard) Clone() *Wizard {
	c := *w
	if w.Case != nil {
		cr := *w.Case
		c.Case = &cr
	}
	if w.Form.Members != nil {
		c.Form.Members = append([]models.Member(nil), w.Form.Members...)
	}
	return &c
}

// Validate runs the validator of the active step
func (w *Wizard) Validate(dir validate.CourtDirectory) validate.Errors {
	switch w.Step {
	case CaseLookup:
		return validate.ValidateCaseLookup(w.Lookup, w.Case, dir)
	case InputForm:
		return validate.ValidateInputForm(w.Form, w.Case)
	case ContractSign:
		return validate.ValidateContractSign(w.Form)
	case Payment:
		return validate.ValidatePayment(w.Form)
	case Review:
		return validate.ValidateReview(w.Lookup, w.Case, w.Form, dir)
	}
	return nil
}

// Next advances exactly one step if the active step validates.
// Otherwise the wizard stays where it is and the errors are returned.
func (w *Wizard) Next(dir validate.CourtDirectory) (validate.Errors, error) {
	switch w.Step {
	case Done:
		return nil, ErrFinished
	case Review:
		return nil, ErrSubmitRequired
	}

	if errs := w.Validate(dir); len(errs) > 0 {
		return errs, nil
	}

	w.Step++
	return nil, nil
}

// Back re-enters the previous step. Data entered in later steps is kept.
func (w *Wizard) Back() error {
	switch w.Step {
	case Done:
		return ErrFinished
	case CaseLookup:
		return ErrFirstStep
	}
	w.Step--
	return nil
}

// SetCase records the lookup input and the result it produced. A nil result
// clears the previous one, so that a failed query never leaves a stale case.
func (w *Wizard) SetCase(in models.LookupInput, res *models.CaseResult) error {
	if w.Step == Done {
		return ErrFinished
	}
	if w.Step != CaseLookup {
		return ErrNotLookupStep
	}

	w.Lookup = models.LookupInput{
		CourtCode:  strings.TrimSpace(in.CourtCode),
		CaseNumber: strings.TrimSpace(in.CaseNumber),
	}
	if res == nil {
		w.Case = nil
		return nil
	}
	cr := *res
	w.Case = &cr
	return nil
}

// Update copies into the wizard the fields of posted that belong to the active step
func (w *Wizard) Update(posted models.FormData) error {
	f := &w.Form
	switch w.Step {
	case Done:
		return ErrFinished
	case InputForm:
		f.ApplicationType = posted.ApplicationType
		f.ApplicantName = strings.TrimSpace(posted.ApplicantName)
		f.BidAmt = strings.TrimSpace(posted.BidAmt)
		f.Phone = strings.TrimSpace(posted.Phone)
		f.Address = strings.TrimSpace(posted.Address)
		f.Bank = strings.TrimSpace(posted.Bank)
		f.AccountNumber = strings.TrimSpace(posted.AccountNumber)
		f.AccountHolder = strings.TrimSpace(posted.AccountHolder)
		f.ResidentID = strings.TrimSpace(posted.ResidentID)
		f.CompanyName = strings.TrimSpace(posted.CompanyName)
		f.BusinessNumber = strings.TrimSpace(posted.BusinessNumber)
		f.Representative = strings.TrimSpace(posted.Representative)
		f.MemberCount = posted.MemberCount
		f.Members = append([]models.Member(nil), posted.Members...)
	case ContractSign:
		f.PhoneVerified = posted.PhoneVerified
		f.Signature = posted.Signature
		f.TermsAgreed = posted.TermsAgreed
	case Payment:
		f.PaymentMethod = strings.TrimSpace(posted.PaymentMethod)
		f.DepositorName = strings.TrimSpace(posted.DepositorName)
		f.PrivacyAgreed = posted.PrivacyAgreed
	}
	return nil
}

// Complete moves a fully valid Review to Done, recording the stored application
func (w *Wizard) Complete(applicationID string, dir validate.CourtDirectory) (validate.Errors, error) {
	if w.Step == Done {
		return nil, ErrFinished
	}
	if w.Step != Review {
		return nil, ErrNotReviewStep
	}
	if errs := validate.ValidateReview(w.Lookup, w.Case, w.Form, dir); len(errs) > 0 {
		return errs, ErrInvalid
	}

	// The stored record is the only copy of the entered data from now on
	w.Form = models.FormData{}
	w.Lookup = models.LookupInput{}
	w.ApplicationID = applicationID
	w.Step = Done
	return nil, nil
}

// Reset discards everything and starts over at the case lookup step
func (w *Wizard) Reset() {
	*w = Wizard{Step: CaseLookup}
}
