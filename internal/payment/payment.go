// Package payment prepares the service fee instructions shown in the payment step.
package payment

import (
	"encoding/base64"
	"net/url"
	"strconv"
	"strings"

	"github.com/evidenceledger/proxybid/internal/errl"
	"github.com/evidenceledger/proxybid/internal/models"
	"github.com/skip2/go-qrcode"
)

const DefaultServiceFee = 100000

// Config holds the destination of fee payments
type Config struct {
	ServiceFee    int64
	Bank          string
	AccountNumber string
	AccountHolder string
	// PayURL is the page of the card payment provider; the QR code points to it
	PayURL string
}

// Instructions tell the user how to pay the fee for one case
type Instructions struct {
	ServiceFee    int64
	Bank          string
	AccountNumber string
	AccountHolder string
	Reference     string
	PayLink       string
	QRCode        string
}

type Service struct {
	cfg Config
}

func New(cfg Config) *Service {
	if cfg.ServiceFee <= 0 {
		cfg.ServiceFee = DefaultServiceFee
	}
	return &Service{cfg: cfg}
}

// Instructions builds the payment instructions for a case, including a QR code
// with the payment link as a PNG data URL
func (s *Service) Instructions(res *models.CaseResult) (*Instructions, error) {
	if res == nil {
		return nil, errl.Errorf("no case to pay for")
	}

	ref := Reference(res)
	inst := &Instructions{
		ServiceFee:    s.cfg.ServiceFee,
		Bank:          s.cfg.Bank,
		AccountNumber: s.cfg.AccountNumber,
		AccountHolder: s.cfg.AccountHolder,
		Reference:     ref,
	}

	if s.cfg.PayURL == "" {
		return inst, nil
	}

	q := url.Values{}
	q.Set("ref", ref)
	q.Set("amount", strconv.FormatInt(s.cfg.ServiceFee, 10))
	inst.PayLink = s.cfg.PayURL + "?" + q.Encode()

	png, err := qrcode.Encode(inst.PayLink, qrcode.Medium, 256)
	if err != nil {
		return nil, errl.Errorf("cannot create QR code: %w", err)
	}
	inst.QRCode = "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)

	return inst, nil
}

// Reference is the code a transfer must carry so that it can be matched to the case,
// e.g. B000210-2024-12345 for 2024타경12345 in court B000210
func Reference(res *models.CaseResult) string {
	year, serial, found := strings.Cut(res.PrintCaseNumber, "타경")
	if !found {
		return res.CourtCode + "-" + res.CaseNumber
	}
	return res.CourtCode + "-" + year + "-" + serial
}
