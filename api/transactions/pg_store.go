package transactions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"KastleBackOffice/api/collection/kpi"
	"KastleBackOffice/api/constants"
	"KastleBackOffice/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgStore struct {
	pool   *pgxpool.Pool
	schema string
}

func NewPgStore(pool *pgxpool.Pool, schema string) *PgStore {
	if schema == "" {
		schema = config.BankingSchema
	}
	return &PgStore{pool: pool, schema: schema}
}

func (s *PgStore) table(name string) string {
	return pgx.Identifier{s.schema, name}.Sanitize()
}

const txnColumns = `
	t.transaction_id,
	COALESCE(t.transaction_reference, ''),
	COALESCE(t.account_number, ''),
	COALESCE(c.first_name, ''),
	COALESCE(c.last_name, ''),
	COALESCE(t.amount, 0)::float8,
	t.transaction_datetime,
	COALESCE(t.transaction_type, ''),
	COALESCE(t.transaction_status, ''),
	COALESCE(t.description, '')`

func (s *PgStore) txnFrom() string {
	return fmt.Sprintf(`
	FROM %s t
	LEFT JOIN %s a ON a.account_number = t.account_number
	LEFT JOIN %s c ON c.customer_id = a.customer_id`,
		s.table("transactions"), s.table("accounts"), s.table("customers"))
}

func scanTxns(rows pgx.Rows) ([]kpi.TransactionRow, error) {
	defer rows.Close()
	out := []kpi.TransactionRow{}
	for rows.Next() {
		var r kpi.TransactionRow
		if err := rows.Scan(
			&r.TransactionID, &r.TransactionReference, &r.AccountNumber,
			&r.CustomerFirstName, &r.CustomerLastName, &r.Amount,
			&r.TransactionDatetime, &r.TransactionType, &r.TransactionStatus, &r.Description,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (s *PgStore) List(ctx context.Context, f Filter) ([]kpi.TransactionRow, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = config.DefaultTransactionLimit
	}
	var search *string
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + term + "%"
		search = &like
	}
	q := fmt.Sprintf(`SELECT %s %s
	WHERE ($1::text IS NULL OR UPPER(t.transaction_status) = UPPER($1))
	  AND ($2::text IS NULL OR UPPER(t.transaction_type) = UPPER($2))
	  AND ($3::timestamptz IS NULL OR t.transaction_datetime >= $3)
	  AND ($4::timestamptz IS NULL OR t.transaction_datetime < $4)
	  AND ($5::text IS NULL
	       OR t.transaction_reference ILIKE $5
	       OR t.account_number ILIKE $5
	       OR t.description ILIKE $5
	       OR c.first_name ILIKE $5
	       OR c.last_name ILIKE $5)
	ORDER BY t.transaction_datetime DESC
	LIMIT $6`, txnColumns, s.txnFrom())
	rows, err := s.pool.Query(ctx, q,
		optional(f.Status), optional(f.Type), optionalTime(f.From), optionalTime(f.To), search, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return scanTxns(rows)
}

func (s *PgStore) Counts(ctx context.Context) (kpi.TransactionCounts, error) {
	var c kpi.TransactionCounts
	q := fmt.Sprintf(`SELECT
		COUNT(*)::int,
		COUNT(*) FILTER (WHERE UPPER(transaction_status) = $1)::int,
		COUNT(*) FILTER (WHERE UPPER(transaction_status) = $2)::int,
		COALESCE(SUM(amount) FILTER (WHERE UPPER(transaction_status) = $1), 0)::float8
	FROM %s`, s.table("transactions"))
	err := s.pool.QueryRow(ctx, q, constants.TxnStatusCompleted, constants.TxnStatusPending).
		Scan(&c.Total, &c.Completed, &c.Pending, &c.CompletedVolume)
	if err != nil {
		return kpi.TransactionCounts{}, fmt.Errorf("count transactions: %w", err)
	}
	return c, nil
}

func (s *PgStore) CompletedSince(ctx context.Context, since time.Time) ([]kpi.TransactionRow, error) {
	q := fmt.Sprintf(`SELECT %s %s
	WHERE UPPER(t.transaction_status) = $1 AND t.transaction_datetime >= $2
	ORDER BY t.transaction_datetime DESC`, txnColumns, s.txnFrom())
	rows, err := s.pool.Query(ctx, q, constants.TxnStatusCompleted, since)
	if err != nil {
		return nil, fmt.Errorf("completed transactions: %w", err)
	}
	return scanTxns(rows)
}
