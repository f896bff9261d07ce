package collection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"KastleBackOffice/api/collection/kpi"
	"KastleBackOffice/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore reads collection data straight from the two Postgres schemas.
type PgStore struct {
	pool       *pgxpool.Pool
	banking    string
	collection string
}

// NewPgStore falls back to the default schema names when either is empty.
func NewPgStore(pool *pgxpool.Pool, bankingSchema, collectionSchema string) *PgStore {
	if bankingSchema == "" {
		bankingSchema = config.BankingSchema
	}
	if collectionSchema == "" {
		collectionSchema = config.CollectionSchema
	}
	return &PgStore{pool: pool, banking: bankingSchema, collection: collectionSchema}
}

func (s *PgStore) bank(table string) string {
	return pgx.Identifier{s.banking, table}.Sanitize()
}

func (s *PgStore) coll(table string) string {
	return pgx.Identifier{s.collection, table}.Sanitize()
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func nullLimit(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}

func (s *PgStore) Ping(ctx context.Context) error {
	var one int
	q := fmt.Sprintf(`SELECT 1 FROM %s LIMIT 1`, s.bank("collection_cases"))
	err := s.pool.QueryRow(ctx, q).Scan(&one)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	return nil
}

// caseColumns must stay in step with scanCase.
const caseColumns = `
	cc.case_id,
	COALESCE(cc.case_number, ''),
	COALESCE(cc.customer_id::text, ''),
	COALESCE(c.full_name, ''),
	COALESCE(ph.contact_value, ''),
	COALESCE(cc.account_number, ''),
	COALESCE(cc.total_outstanding, 0)::float8,
	COALESCE(cc.days_past_due, 0)::int,
	COALESCE(cc.case_status, ''),
	COALESCE(cc.priority, ''),
	COALESCE(cc.assigned_to::text, ''),
	COALESCE(cc.branch_id::text, ''),
	COALESCE(b.bucket_name, ''),
	COALESCE(cc.created_at, now())`

func (s *PgStore) caseFrom() string {
	return fmt.Sprintf(`
	FROM %s cc
	LEFT JOIN %s c ON c.customer_id = cc.customer_id
	LEFT JOIN %s b ON b.bucket_id = cc.bucket_id
	LEFT JOIN LATERAL (
		SELECT contact_value FROM %s cct
		WHERE cct.customer_id = cc.customer_id AND cct.contact_type = 'MOBILE'
		LIMIT 1
	) ph ON true`,
		s.bank("collection_cases"), s.bank("customers"), s.bank("collection_buckets"), s.bank("customer_contacts"))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(r rowScanner, c *kpi.CaseRow) error {
	return r.Scan(
		&c.CaseID, &c.CaseNumber, &c.CustomerID, &c.CustomerName, &c.CustomerPhone,
		&c.AccountNumber, &c.TotalOutstanding, &c.DaysPastDue, &c.CaseStatus,
		&c.Priority, &c.AssignedTo, &c.BranchID, &c.BucketName, &c.CreatedAt,
	)
}

func (s *PgStore) ListCases(ctx context.Context, q CaseQuery) ([]kpi.CaseRow, error) {
	order := "cc.created_at DESC"
	switch q.Order {
	case OrderCreatedAsc:
		order = "cc.created_at ASC"
	case OrderOutstandingDesc:
		order = "cc.total_outstanding DESC NULLS LAST"
	}
	query := `SELECT` + caseColumns + s.caseFrom() + `
	WHERE ($1 = '' OR cc.case_status = $1)
	  AND ($2 = '' OR cc.branch_id::text = $2)
	  AND ($3::timestamptz IS NULL OR cc.created_at >= $3)
	  AND ($4 = '' OR cc.case_number ILIKE '%' || $4 || '%'
	       OR c.full_name ILIKE '%' || $4 || '%'
	       OR cc.account_number ILIKE '%' || $4 || '%')
	ORDER BY ` + order + `
	LIMIT $5 OFFSET $6`

	rows, err := s.pool.Query(ctx, query, q.Status, q.BranchID, nullTime(q.CreatedSince), q.Search, nullLimit(q.Limit), q.Offset)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}
	defer rows.Close()

	out := make([]kpi.CaseRow, 0)
	for rows.Next() {
		var c kpi.CaseRow
		if err := scanCase(rows, &c); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PgStore) GetCase(ctx context.Context, caseID int64) (CaseInfo, error) {
	query := `SELECT` + caseColumns + `,
	COALESCE(em.contact_value, '')` + s.caseFrom() + fmt.Sprintf(`
	LEFT JOIN LATERAL (
		SELECT contact_value FROM %s cce
		WHERE cce.customer_id = cc.customer_id AND cce.contact_type = 'EMAIL'
		LIMIT 1
	) em ON true
	WHERE cc.case_id = $1`, s.bank("customer_contacts"))

	var info CaseInfo
	c := &info.CaseRow
	err := s.pool.QueryRow(ctx, query, caseID).Scan(
		&c.CaseID, &c.CaseNumber, &c.CustomerID, &c.CustomerName, &c.CustomerPhone,
		&c.AccountNumber, &c.TotalOutstanding, &c.DaysPastDue, &c.CaseStatus,
		&c.Priority, &c.AssignedTo, &c.BranchID, &c.BucketName, &c.CreatedAt,
		&info.CustomerEmail,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return CaseInfo{}, ErrCaseNotFound
	}
	if err != nil {
		return CaseInfo{}, fmt.Errorf("query case %d: %w", caseID, err)
	}
	return info, nil
}

func (s *PgStore) ListInteractions(ctx context.Context, q ActivityQuery) ([]kpi.InteractionRow, error) {
	query := fmt.Sprintf(`
	SELECT ci.interaction_id,
	       COALESCE(ci.case_id, 0),
	       COALESCE(ci.interaction_type, ''),
	       COALESCE(ci.interaction_datetime, now()),
	       COALESCE(ci.outcome, ''),
	       COALESCE(ci.notes, ''),
	       COALESCE(o.officer_name, '')
	FROM %s ci
	LEFT JOIN %s o ON o.officer_id = ci.officer_id
	WHERE ($1::bigint = 0 OR ci.case_id = $1)
	  AND ($2::timestamptz IS NULL OR ci.interaction_datetime >= $2)
	ORDER BY ci.interaction_datetime DESC`, s.coll("collection_interactions"), s.coll("collection_officers"))

	rows, err := s.pool.Query(ctx, query, q.CaseID, nullTime(q.Since))
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	out := make([]kpi.InteractionRow, 0)
	for rows.Next() {
		var i kpi.InteractionRow
		if err := rows.Scan(&i.InteractionID, &i.CaseID, &i.InteractionType, &i.InteractionDatetime, &i.Outcome, &i.Notes, &i.OfficerName); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (s *PgStore) ListPTPs(ctx context.Context, q ActivityQuery) ([]kpi.PTPRow, error) {
	query := fmt.Sprintf(`
	SELECT p.ptp_id,
	       COALESCE(p.case_id, 0),
	       COALESCE(p.ptp_amount, 0)::float8,
	       COALESCE(p.ptp_date, now()),
	       COALESCE(p.ptp_type, ''),
	       COALESCE(p.status, ''),
	       COALESCE(p.amount_received, 0)::float8,
	       COALESCE(o.officer_name, '')
	FROM %s p
	LEFT JOIN %s o ON o.officer_id = p.officer_id
	WHERE ($1::bigint = 0 OR p.case_id = $1)
	  AND ($2::timestamptz IS NULL OR p.ptp_date >= $2)
	ORDER BY p.ptp_date DESC`, s.coll("promise_to_pay"), s.coll("collection_officers"))

	rows, err := s.pool.Query(ctx, query, q.CaseID, nullTime(q.Since))
	if err != nil {
		return nil, fmt.Errorf("query promises to pay: %w", err)
	}
	defer rows.Close()

	out := make([]kpi.PTPRow, 0)
	for rows.Next() {
		var p kpi.PTPRow
		if err := rows.Scan(&p.PTPID, &p.CaseID, &p.PTPAmount, &p.PTPDate, &p.PTPType, &p.Status, &p.AmountReceived, &p.OfficerName); err != nil {
			return nil, fmt.Errorf("scan promise to pay: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PgStore) ListFieldVisits(ctx context.Context, caseID int64) ([]FieldVisitRow, error) {
	query := fmt.Sprintf(`
	SELECT v.visit_id,
	       COALESCE(v.case_id, 0),
	       COALESCE(v.visit_date, now()),
	       COALESCE(v.visit_purpose, ''),
	       COALESCE(v.visit_result, ''),
	       COALESCE(v.notes, ''),
	       COALESCE(o.officer_name, '')
	FROM %s v
	LEFT JOIN %s o ON o.officer_id = v.officer_id
	WHERE v.case_id = $1
	ORDER BY v.visit_date DESC`, s.coll("field_visits"), s.coll("collection_officers"))

	rows, err := s.pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("query field visits: %w", err)
	}
	defer rows.Close()

	out := make([]FieldVisitRow, 0)
	for rows.Next() {
		var v FieldVisitRow
		if err := rows.Scan(&v.VisitID, &v.CaseID, &v.VisitDate, &v.VisitPurpose, &v.VisitResult, &v.Notes, &v.OfficerName); err != nil {
			return nil, fmt.Errorf("scan field visit: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *PgStore) GetLegalCase(ctx context.Context, caseID int64) (*LegalCaseRow, error) {
	query := fmt.Sprintf(`
	SELECT l.legal_case_id,
	       COALESCE(l.case_id, 0),
	       COALESCE(l.court_name, ''),
	       COALESCE(l.legal_status, ''),
	       l.filing_date,
	       COALESCE(l.claim_amount, 0)::float8
	FROM %s l
	WHERE l.case_id = $1
	LIMIT 1`, s.coll("legal_cases"))

	var l LegalCaseRow
	err := s.pool.QueryRow(ctx, query, caseID).Scan(&l.LegalCaseID, &l.CaseID, &l.CourtName, &l.LegalStatus, &l.FilingDate, &l.ClaimAmount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query legal case: %w", err)
	}
	return &l, nil
}

func (s *PgStore) ListDailySummaries(ctx context.Context, q SummaryQuery) ([]kpi.DailySummaryRow, error) {
	order := "s.summary_date ASC"
	if q.Latest > 0 {
		order = "s.summary_date DESC"
	}
	query := fmt.Sprintf(`
	SELECT s.summary_date,
	       COALESCE(s.branch_id::text, ''),
	       COALESCE(s.team_id::text, ''),
	       COALESCE(t.team_name, ''),
	       COALESCE(s.total_due_amount, 0)::float8,
	       COALESCE(s.total_collected, 0)::float8,
	       COALESCE(s.collection_rate, 0)::float8
	FROM %s s
	LEFT JOIN %s t ON t.team_id = s.team_id
	WHERE ($1::date IS NULL OR s.summary_date >= $1)
	  AND ($2::date IS NULL OR s.summary_date = $2)
	  AND ($3 = '' OR s.branch_id::text = $3)
	ORDER BY %s
	LIMIT $4`, s.coll("daily_collection_summary"), s.coll("collection_teams"), order)

	rows, err := s.pool.Query(ctx, query, nullTime(q.Since), nullTime(q.On), q.BranchID, nullLimit(q.Latest))
	if err != nil {
		return nil, fmt.Errorf("query daily summaries: %w", err)
	}
	defer rows.Close()

	out := make([]kpi.DailySummaryRow, 0)
	for rows.Next() {
		var d kpi.DailySummaryRow
		if err := rows.Scan(&d.SummaryDate, &d.BranchID, &d.TeamID, &d.TeamName, &d.TotalDue, &d.TotalCollected, &d.CollectionRate); err != nil {
			return nil, fmt.Errorf("scan daily summary: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PgStore) ListOfficerMetrics(ctx context.Context, from, to time.Time) ([]kpi.OfficerMetricRow, error) {
	query := fmt.Sprintf(`
	SELECT m.officer_id::text,
	       COALESCE(o.officer_name, ''),
	       COALESCE(o.officer_type, ''),
	       m.metric_date,
	       COALESCE(m.amount_collected, 0)::float8,
	       COALESCE(m.calls_made, 0)::int,
	       COALESCE(m.contacts_made, 0)::int,
	       COALESCE(m.ptps_obtained, 0)::int,
	       COALESCE(m.quality_score, 0)::float8
	FROM %s m
	LEFT JOIN %s o ON o.officer_id = m.officer_id
	WHERE m.metric_date >= $1 AND m.metric_date < $2
	ORDER BY m.amount_collected DESC NULLS LAST`, s.coll("officer_performance_metrics"), s.coll("collection_officers"))

	rows, err := s.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query officer metrics: %w", err)
	}
	defer rows.Close()

	out := make([]kpi.OfficerMetricRow, 0)
	for rows.Next() {
		var m kpi.OfficerMetricRow
		if err := rows.Scan(&m.OfficerID, &m.OfficerName, &m.OfficerType, &m.MetricDate, &m.AmountCollected, &m.CallsMade, &m.ContactsMade, &m.PTPsObtained, &m.QualityScore); err != nil {
			return nil, fmt.Errorf("scan officer metric: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PgStore) ListOfficers(ctx context.Context) ([]kpi.OfficerRow, error) {
	query := fmt.Sprintf(`
	SELECT o.officer_id::text,
	       COALESCE(o.officer_name, ''),
	       COALESCE(o.officer_type, ''),
	       COALESCE(o.team_id::text, ''),
	       COALESCE(o.status, ''),
	       COALESCE(o.daily_target, 0)::float8,
	       COALESCE(o.daily_collected, 0)::float8,
	       o.last_active
	FROM %s o
	ORDER BY o.officer_name`, s.coll("collection_officers"))

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query officers: %w", err)
	}
	defer rows.Close()

	out := make([]kpi.OfficerRow, 0)
	for rows.Next() {
		var o kpi.OfficerRow
		var lastActive *time.Time
		if err := rows.Scan(&o.OfficerID, &o.OfficerName, &o.OfficerType, &o.TeamID, &o.Status, &o.DailyTarget, &o.DailyCollected, &lastActive); err != nil {
			return nil, fmt.Errorf("scan officer: %w", err)
		}
		if lastActive != nil {
			o.LastActive = *lastActive
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *PgStore) ListCampaigns(ctx context.Context, status string, limit int) ([]kpi.CampaignRow, error) {
	query := fmt.Sprintf(`
	SELECT COALESCE(campaign_name, ''),
	       COALESCE(campaign_type, ''),
	       COALESCE(target_recovery, 0)::float8,
	       COALESCE(actual_recovery, 0)::float8,
	       COALESCE(success_rate, 0)::float8,
	       COALESCE(roi, 0)::float8
	FROM %s
	WHERE ($1 = '' OR status = $1)
	ORDER BY created_at DESC
	LIMIT $2`, s.coll("collection_campaigns"))

	rows, err := s.pool.Query(ctx, query, status, nullLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query campaigns: %w", err)
	}
	defer rows.Close()

	out := make([]kpi.CampaignRow, 0)
	for rows.Next() {
		var c kpi.CampaignRow
		if err := rows.Scan(&c.CampaignName, &c.CampaignType, &c.TargetRecovery, &c.ActualRecovery, &c.SuccessRate, &c.ROI); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
