package collection

import (
	"context"
	"errors"
	"time"

	"KastleBackOffice/api/collection/kpi"
)

var (
	ErrCaseNotFound = errors.New("collection case not found")
	ErrNoSource     = errors.New("collection store not configured")
)

// CaseOrder selects one of a fixed set of ORDER BY clauses.
type CaseOrder int

const (
	OrderCreatedDesc CaseOrder = iota
	OrderCreatedAsc
	OrderOutstandingDesc
)

// CaseQuery narrows a case listing. Zero values mean "no filter";
// Limit 0 means unlimited.
type CaseQuery struct {
	Status       string
	BranchID     string
	Search       string
	CreatedSince time.Time
	Order        CaseOrder
	Limit        int
	Offset       int
}

// ActivityQuery narrows interactions and promises to pay. CaseID 0 means all cases.
type ActivityQuery struct {
	CaseID int64
	Since  time.Time
}

// SummaryQuery narrows daily_collection_summary. Latest > 0 returns the most
// recent N rows newest first; otherwise rows come back oldest first.
type SummaryQuery struct {
	Since    time.Time
	On       time.Time
	BranchID string
	Latest   int
}

type FieldVisitRow struct {
	VisitID      int64     `json:"visit_id"`
	CaseID       int64     `json:"case_id"`
	VisitDate    time.Time `json:"visit_date"`
	VisitPurpose string    `json:"visit_purpose"`
	VisitResult  string    `json:"visit_result"`
	Notes        string    `json:"notes"`
	OfficerName  string    `json:"officer_name"`
}

type LegalCaseRow struct {
	LegalCaseID int64      `json:"legal_case_id"`
	CaseID      int64      `json:"case_id"`
	CourtName   string     `json:"court_name"`
	LegalStatus string     `json:"legal_status"`
	FilingDate  *time.Time `json:"filing_date"`
	ClaimAmount float64    `json:"claim_amount"`
}

// Source is everything the collection dashboards read. Implementations
// return rows as stored; defaults and aggregation happen in Service.
type Source interface {
	Ping(ctx context.Context) error
	ListCases(ctx context.Context, q CaseQuery) ([]kpi.CaseRow, error)
	// GetCase returns ErrCaseNotFound when no row matches.
	GetCase(ctx context.Context, caseID int64) (CaseInfo, error)
	ListInteractions(ctx context.Context, q ActivityQuery) ([]kpi.InteractionRow, error)
	ListPTPs(ctx context.Context, q ActivityQuery) ([]kpi.PTPRow, error)
	ListFieldVisits(ctx context.Context, caseID int64) ([]FieldVisitRow, error)
	// GetLegalCase returns nil, nil when the case never went legal.
	GetLegalCase(ctx context.Context, caseID int64) (*LegalCaseRow, error)
	ListDailySummaries(ctx context.Context, q SummaryQuery) ([]kpi.DailySummaryRow, error)
	// ListOfficerMetrics returns metric rows with from <= metric_date < to.
	ListOfficerMetrics(ctx context.Context, from, to time.Time) ([]kpi.OfficerMetricRow, error)
	ListOfficers(ctx context.Context) ([]kpi.OfficerRow, error)
	ListCampaigns(ctx context.Context, status string, limit int) ([]kpi.CampaignRow, error)
}
