package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/evidenceledger/proxybid/internal/errl"
	"github.com/evidenceledger/proxybid/internal/models"
)

// ErrNotFound is returned when an application does not exist or belongs to another user
var ErrNotFound = errors.New("application not found")

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

const applicationColumns = `id, user_id, status, application_type,
	court_code, court_name, case_number, print_case_number,
	lowest_bid_amount, deposit_amount, bid_date, bid_amount,
	applicant_name, phone, address,
	resident_id_sealed, company_name, business_number, representative, member_count, members_json,
	bank, account_number_sealed, account_holder, phone_verified, signature,
	terms_agreed, privacy_agreed, payment_method, depositor_name,
	created_at, updated_at`

// sortColumns is the whitelist of columns a listing can be sorted by
var sortColumns = map[string]string{
	"created_at": "created_at",
	"createdAt":  "created_at",
	"bid_amount": "bid_amount",
	"bidAmount":  "bid_amount",
	"bid_date":   "bid_date",
	"bidDate":    "bid_date",
	"status":     "status",
}

// CreateApplication stores a new application
func (d *Database) CreateApplication(ctx context.Context, app *models.BiddingApplication) error {
	query := `
		INSERT INTO bidding_applications (` + applicationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32)
	`

	_, err := d.db.ExecContext(ctx, query,
		app.ID,
		app.UserID,
		app.Status,
		string(app.ApplicationType),
		app.CourtCode,
		app.CourtName,
		app.CaseNumber,
		app.PrintCaseNumber,
		app.LowestBidAmount,
		app.DepositAmount,
		app.BidDate,
		app.BidAmount,
		app.ApplicantName,
		app.Phone,
		app.Address,
		app.ResidentIDSealed,
		app.CompanyName,
		app.BusinessNumber,
		app.Representative,
		app.MemberCount,
		app.MembersJSON,
		app.Bank,
		app.AccountNumberSealed,
		app.AccountHolder,
		app.PhoneVerified,
		app.Signature,
		app.TermsAgreed,
		app.PrivacyAgreed,
		app.PaymentMethod,
		app.DepositorName,
		app.CreatedAt,
		app.UpdatedAt,
	)
	if err != nil {
		return errl.Errorf("failed to create application %s: %w", app.ID, err)
	}

	slog.Info("Created application", "id", app.ID, "user", app.UserID, "case", app.PrintCaseNumber)
	return nil
}

// GetApplication returns an application of the given user. An empty userID
// skips the ownership check, for administrators.
func (d *Database) GetApplication(ctx context.Context, id, userID string) (*models.BiddingApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM bidding_applications WHERE id = $1`
	args := []any{id}
	if userID != "" {
		query += ` AND user_id = $2`
		args = append(args, userID)
	}

	app, err := scanApplication(d.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errl.Errorf("failed to get application %s: %w", id, err)
	}
	return app, nil
}

// ListQuery selects a page of applications
type ListQuery struct {
	UserID          string
	Status          string
	ApplicationType string
	Page            int
	Limit           int
	Sort            string
	Order           string
}

// Normalize clamps paging values and replaces unknown sort keys by the defaults
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if col, ok := sortColumns[q.Sort]; ok {
		q.Sort = col
	} else {
		q.Sort = "created_at"
	}
	if strings.EqualFold(q.Order, "asc") {
		q.Order = "ASC"
	} else {
		q.Order = "DESC"
	}
	return q
}

// ListApplications returns a page of applications matching q, and the total number of matches
func (d *Database) ListApplications(ctx context.Context, q ListQuery) (*models.ApplicationList, error) {
	q = q.Normalize()

	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if q.UserID != "" {
		add("user_id = $%d", q.UserID)
	}
	if q.Status != "" {
		add("status = $%d", q.Status)
	}
	if q.ApplicationType != "" {
		add("application_type = $%d", q.ApplicationType)
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM bidding_applications` + whereClause
	if err := d.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, errl.Errorf("failed to count applications: %w", err)
	}

	// Sort and Order come from the whitelist in Normalize
	query := fmt.Sprintf(`SELECT %s FROM bidding_applications%s ORDER BY %s %s, id %s LIMIT $%d OFFSET $%d`,
		applicationColumns, whereClause, q.Sort, q.Order, q.Order, len(args)+1, len(args)+2)
	args = append(args, q.Limit, (q.Page-1)*q.Limit)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errl.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	list := &models.ApplicationList{
		Data:  []models.BiddingApplication{},
		Page:  q.Page,
		Limit: q.Limit,
		Total: total,
	}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, errl.Errorf("failed to scan application: %w", err)
		}
		list.Data = append(list.Data, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, errl.Errorf("failed to list applications: %w", err)
	}

	return list, nil
}

// UpdateApplicationStatus changes the processing status of an application
func (d *Database) UpdateApplicationStatus(ctx context.Context, id, status string) error {
	switch status {
	case models.StatusSubmitted, models.StatusReviewing, models.StatusCompleted, models.StatusCancelled:
	default:
		return errl.Errorf("invalid status %q", status)
	}

	res, err := d.db.ExecContext(ctx,
		`UPDATE bidding_applications SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		status, id)
	if err != nil {
		return errl.Errorf("failed to update application %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errl.Errorf("failed to update application %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}

	slog.Info("Updated application status", "id", id, "status", status)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanApplication(row scanner) (*models.BiddingApplication, error) {
	var app models.BiddingApplication
	var appType string

	err := row.Scan(
		&app.ID,
		&app.UserID,
		&app.Status,
		&appType,
		&app.CourtCode,
		&app.CourtName,
		&app.CaseNumber,
		&app.PrintCaseNumber,
		&app.LowestBidAmount,
		&app.DepositAmount,
		&app.BidDate,
		&app.BidAmount,
		&app.ApplicantName,
		&app.Phone,
		&app.Address,
		&app.ResidentIDSealed,
		&app.CompanyName,
		&app.BusinessNumber,
		&app.Representative,
		&app.MemberCount,
		&app.MembersJSON,
		&app.Bank,
		&app.AccountNumberSealed,
		&app.AccountHolder,
		&app.PhoneVerified,
		&app.Signature,
		&app.TermsAgreed,
		&app.PrivacyAgreed,
		&app.PaymentMethod,
		&app.DepositorName,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	app.ApplicationType = models.ApplicationType(appType)
	return &app, nil
}
