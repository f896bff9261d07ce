package transactions

import (
	"context"
	"errors"
	"time"

	"KastleBackOffice/api/collection/kpi"
	"KastleBackOffice/api/constants"
)

var ErrNoSource = errors.New(constants.ErrDBConnection)

// Filter narrows the transaction list. From is inclusive and To exclusive;
// zero times leave that side open.
type Filter struct {
	Status string
	Type   string
	From   time.Time
	To     time.Time
	Search string
	Limit  int
}

// Source reads kastle_banking.transactions.
type Source interface {
	// List returns rows newest first.
	List(ctx context.Context, f Filter) ([]kpi.TransactionRow, error)
	Counts(ctx context.Context) (kpi.TransactionCounts, error)
	// CompletedSince returns completed rows at or after since, newest first.
	CompletedSince(ctx context.Context, since time.Time) ([]kpi.TransactionRow, error)
}
