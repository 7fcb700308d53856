package models

// ApplicationType selects which identity fields a bid application carries
type ApplicationType string

const (
	Personal ApplicationType = "personal"
	Company  ApplicationType = "company"
	Group    ApplicationType = "group"
)

// Valid reports whether t is one of the known application types
func (t ApplicationType) Valid() bool {
	switch t {
	case Personal, Company, Group:
		return true
	}
	return false
}

// Payment methods for the service fee
const (
	PaymentTransfer = "transfer"
	PaymentCard     = "card"
)

// Member is one participant of a group (joint) bid
type Member struct {
	Name       string `json:"name"`
	ResidentID string `json:"residentId"`
	Phone      string `json:"phone"`
	Share      string `json:"share"`
}

// FormData accumulates every field entered across the wizard steps.
// Shared fields apply to all application types; the rest depend on ApplicationType.
type FormData struct {
	ApplicationType ApplicationType `form:"application_type" json:"applicationType"`

	// Shared
	ApplicantName string `form:"applicant_name" json:"applicantName"`
	BidAmt        string `form:"bid_amt" json:"bidAmt"`
	Phone         string `form:"phone" json:"phone"`
	Address       string `form:"address" json:"address"`
	Bank          string `form:"bank" json:"bank"`
	AccountNumber string `form:"account_number" json:"accountNumber"`
	AccountHolder string `form:"account_holder" json:"accountHolder"`
	PhoneVerified bool   `form:"phone_verified" json:"phoneVerified"`
	Signature     string `form:"signature" json:"signature"`
	TermsAgreed   bool   `form:"terms_agreed" json:"termsAgreed"`
	PrivacyAgreed bool   `form:"privacy_agreed" json:"privacyAgreed"`
	PaymentMethod string `form:"payment_method" json:"paymentMethod"`
	DepositorName string `form:"depositor_name" json:"depositorName"`

	// Personal
	ResidentID string `form:"resident_id" json:"residentId"`

	// Company
	CompanyName    string `form:"company_name" json:"companyName"`
	BusinessNumber string `form:"business_number" json:"businessNumber"`

	// Company and group
	Representative string `form:"representative" json:"representative"`

	// Group
	MemberCount int      `form:"-" json:"memberCount"`
	Members     []Member `form:"-" json:"members"`
}
