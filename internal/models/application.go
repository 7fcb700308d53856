package models

import "time"

// Application statuses
const (
	StatusSubmitted = "submitted"
	StatusReviewing = "reviewing"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// BiddingApplication is the persisted form of a completed wizard.
// Only the field group of ApplicationType is populated, the others are nil.
type BiddingApplication struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	Status          string          `json:"status"`
	ApplicationType ApplicationType `json:"applicationType"`

	CourtCode       string `json:"courtCode"`
	CourtName       string `json:"courtName"`
	CaseNumber      string `json:"caseNumber"`
	PrintCaseNumber string `json:"printCaseNumber"`
	LowestBidAmount int64  `json:"lowestBidAmount"`
	DepositAmount   int64  `json:"depositAmount"`
	BidDate         string `json:"bidDate"`
	BidAmount       int64  `json:"bidAmount"`

	ApplicantName string `json:"applicantName"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`

	// Personal
	ResidentIDSealed *string `json:"-"`

	// Company
	CompanyName    *string `json:"companyName,omitempty"`
	BusinessNumber *string `json:"businessNumber,omitempty"`

	// Company and group
	Representative *string `json:"representative,omitempty"`

	// Group
	MemberCount *int    `json:"memberCount,omitempty"`
	MembersJSON *string `json:"-"`

	Bank                string `json:"bank"`
	AccountNumberSealed string `json:"-"`
	AccountHolder       string `json:"accountHolder"`
	PhoneVerified       bool   `json:"phoneVerified"`
	Signature           string `json:"-"`
	TermsAgreed         bool   `json:"termsAgreed"`
	PrivacyAgreed       bool   `json:"privacyAgreed"`
	PaymentMethod       string `json:"paymentMethod"`
	DepositorName       string `json:"depositorName,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ApplicationList is a page of applications
type ApplicationList struct {
	Data  []BiddingApplication `json:"data"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
	Total int                  `json:"total"`
}
