package models

// LookupInput is what the user types in the case lookup step
type LookupInput struct {
	CourtCode  string `form:"court_code" json:"courtCode"`
	CaseNumber string `form:"case_number" json:"caseNumber"`
}

// CaseResult is the case and bid metadata fetched from the court auction system.
// It is never modified after the fetch: a new lookup replaces it completely.
type CaseResult struct {
	CourtCode        string `json:"courtCode"`
	CourtName        string `json:"courtName"`
	CaseNumber       string `json:"caseNumber"`
	PrintCaseNumber  string `json:"printCaseNumber"`
	EvaluationAmount int64  `json:"evaluationAmount"`
	LowestBidAmount  int64  `json:"lowestBidAmount"`
	DepositAmount    int64  `json:"depositAmount"`
	BidDate          string `json:"bidDate"`
	ImageURL         string `json:"imageUrl,omitempty"`
}

// DepositFor returns the statutory bid deposit for a lowest bid amount
func DepositFor(lowestBid int64) int64 {
	return lowestBid / 10
}

// LookupResponse is the envelope returned by the court auction lookup endpoint.
// Exactly one of Data and Error is set.
type LookupResponse struct {
	Data  *CaseResult `json:"data"`
	Error *string     `json:"error"`
}
