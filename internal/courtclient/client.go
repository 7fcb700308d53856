// Package courtclient fetches auction case data from the court auction system.
//
// A lookup is done in two sequential stages. The first stage retrieves the case
// and bid metadata and is required. The second stage retrieves a picture of the
// property and is best effort: its failure only means the result has no image.
package courtclient

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/evidenceledger/proxybid/internal/models"
	"github.com/goccy/go-json"
)

const (
	DefaultBaseURL      = "https://www.courtauction.go.kr"
	DefaultCaseTimeout  = 8 * time.Second
	DefaultImageTimeout = 5 * time.Second

	caseDetailPath = "/pgj/pgjsearch/selectCsDtlInf.on"
	caseImagePath  = "/pgj/pgj15B/selectPicInf.on"

	caseSubmissionID  = "mf_wfm_mainFrame_sbm_selectCsDtlInf"
	imageSubmissionID = "mf_wfm_mainFrame_sbm_selectPicInf"

	userAgent   = "Mozilla/5.0 (compatible; proxybid/1.0)"
	maxBodySize = 4 << 20
)

// Config configures a Client. Zero values select the defaults.
type Config struct {
	BaseURL      string
	CaseTimeout  time.Duration
	ImageTimeout time.Duration
	HTTPClient   *http.Client
}

// Client queries the court auction system
type Client struct {
	baseURL      string
	caseTimeout  time.Duration
	imageTimeout time.Duration
	http         *http.Client
}

// New creates a new court auction client
func New(cfg Config) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		caseTimeout:  cfg.CaseTimeout,
		imageTimeout: cfg.ImageTimeout,
		http:         cfg.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.caseTimeout <= 0 {
		c.caseTimeout = DefaultCaseTimeout
	}
	if c.imageTimeout <= 0 {
		c.imageTimeout = DefaultImageTimeout
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	return c
}

type caseDetailRequest struct {
	Search struct {
		CourtCode  string `json:"cortOfcCd"`
		CaseNumber string `json:"csNo"`
	} `json:"dma_srchCsDtlInf"`
}

type caseDetailResponse struct {
	Data *struct {
		Objects []caseObject `json:"dlt_dspslGdsDspslObjctLst"`
	} `json:"data"`
}

type caseObject struct {
	CourtName        string `json:"cortOfcNm"`
	CaseNumber       string `json:"csNo"`
	PrintCaseNumber  string `json:"userCsNo"`
	EvaluationAmount amount `json:"aeeEvlAmt"`
	LowestBidAmount  amount `json:"lwsDspslPrc"`
	BidDate          string `json:"dspslDxdyYmd"`
}

type imageRequest struct {
	Search struct {
		CourtCode  string `json:"cortOfcCd"`
		CaseNumber string `json:"csNo"`
	} `json:"dma_srchPicInf"`
}

type imageResponse struct {
	Data *struct {
		Pictures []struct {
			URL   string `json:"picFileUrl"`
			Title string `json:"picTitlNm"`
		} `json:"dlt_csPicLst"`
	} `json:"data"`
}

// Lookup fetches the case identified by a court office code and case number.
// The returned error, if any, is a *LookupError classified as one of the Err* values.
func (c *Client) Lookup(ctx context.Context, courtCode, caseNumber string) (*models.CaseResult, error) {
	courtCode = strings.TrimSpace(courtCode)
	caseNumber = strings.TrimSpace(caseNumber)
	if courtCode == "" || caseNumber == "" {
		return nil, &LookupError{Kind: ErrLookupFailed, Stage: StageCase}
	}

	obj, err := c.fetchCase(ctx, courtCode, caseNumber)
	if err != nil {
		return nil, err
	}

	result := &models.CaseResult{
		CourtCode:        courtCode,
		CourtName:        obj.CourtName,
		CaseNumber:       obj.CaseNumber,
		PrintCaseNumber:  obj.PrintCaseNumber,
		EvaluationAmount: int64(obj.EvaluationAmount),
		LowestBidAmount:  int64(obj.LowestBidAmount),
		DepositAmount:    models.DepositFor(int64(obj.LowestBidAmount)),
		BidDate:          formatDate(obj.BidDate),
	}
	if result.CaseNumber == "" {
		result.CaseNumber = caseNumber
	}
	if result.PrintCaseNumber == "" {
		result.PrintCaseNumber = caseNumber
	}

	imageURL, err := c.fetchImage(ctx, courtCode, result.CaseNumber)
	if err != nil {
		slog.Warn("Case image not available", "court", courtCode, "case", result.CaseNumber, "error", err)
	} else {
		result.ImageURL = imageURL
	}

	slog.Info("Case lookup", "court", courtCode, "case", result.PrintCaseNumber, "image", result.ImageURL != "")
	return result, nil
}

func (c *Client) fetchCase(ctx context.Context, courtCode, caseNumber string) (*caseObject, error) {
	ctx, cancel := context.WithTimeout(ctx, c.caseTimeout)
	defer cancel()

	var req caseDetailRequest
	req.Search.CourtCode = courtCode
	req.Search.CaseNumber = caseNumber

	var resp caseDetailResponse
	if err := c.post(ctx, caseDetailPath, caseSubmissionID, req, &resp); err != nil {
		return nil, classify(StageCase, err)
	}

	if resp.Data == nil || len(resp.Data.Objects) == 0 {
		return nil, &LookupError{Kind: ErrNotFound, Stage: StageCase}
	}

	return &resp.Data.Objects[0], nil
}

func (c *Client) fetchImage(ctx context.Context, courtCode, caseNumber string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.imageTimeout)
	defer cancel()

	var req imageRequest
	req.Search.CourtCode = courtCode
	req.Search.CaseNumber = caseNumber

	var resp imageResponse
	if err := c.post(ctx, caseImagePath, imageSubmissionID, req, &resp); err != nil {
		return "", classify(StageImage, err)
	}

	if resp.Data == nil || len(resp.Data.Pictures) == 0 || resp.Data.Pictures[0].URL == "" {
		return "", &LookupError{Kind: ErrNotFound, Stage: StageImage}
	}

	u := resp.Data.Pictures[0].URL
	if strings.HasPrefix(u, "/") {
		u = c.baseURL + u
	}
	return u, nil
}

// post sends a JSON payload with the fixed headers the court system expects and decodes the reply
func (c *Client) post(ctx context.Context, path, submissionID string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", c.baseURL+"/pgj/index.on")
	req.Header.Set("submissionid", submissionID)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &statusError{Code: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return err
	}

	return json.Unmarshal(data, out)
}

// formatDate converts the upstream YYYYMMDD form to YYYY-MM-DD
func formatDate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) != 8 {
		return s
	}
	return s[0:4] + "-" + s[4:6] + "-" + s[6:8]
}
