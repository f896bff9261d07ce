package transactions

import (
	"context"
	"time"

	"KastleBackOffice/api"
	"KastleBackOffice/api/collection"
	"KastleBackOffice/api/collection/kpi"
	"KastleBackOffice/api/constants"
	"KastleBackOffice/internal/config"
)

const (
	SectionTransactions = "transactions"
	SectionStats        = "transaction stats"
	SectionTrends       = "transaction trends"
)

// Service follows the collection service contract: reads never fail the
// request, they fall back to an empty shape and return a SectionError.
type Service struct {
	src      Source
	notifier collection.Notifier
	now      func() time.Time
}

type Option func(*Service)

func WithNotifier(n collection.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(src Source, opts ...Option) *Service {
	s := &Service{src: src, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location is the zone used for day boundaries.
func (s *Service) Location() *time.Location {
	return s.now().Location()
}

func (s *Service) fail(section string, err error) error {
	api.LogError("%s: %v", section, err)
	if s.notifier != nil {
		s.notifier.Notify(constants.LoadFailed(section), err.Error())
	}
	return &collection.SectionError{Section: section, Err: err}
}

func (s *Service) List(ctx context.Context, f Filter) ([]kpi.TransactionRow, error) {
	if f.Limit <= 0 {
		f.Limit = config.DefaultTransactionLimit
	}
	if s.src == nil {
		return []kpi.TransactionRow{}, s.fail(SectionTransactions, ErrNoSource)
	}
	rows, err := s.src.List(ctx, f)
	if err != nil {
		return []kpi.TransactionRow{}, s.fail(SectionTransactions, err)
	}
	if rows == nil {
		rows = []kpi.TransactionRow{}
	}
	return rows, nil
}

// Stats reads the table totals and the last 24 hours of completed rows.
func (s *Service) Stats(ctx context.Context) (kpi.TransactionStats, error) {
	now := s.now()
	empty := kpi.Stats(kpi.TransactionCounts{}, nil, now)
	if s.src == nil {
		return empty, s.fail(SectionStats, ErrNoSource)
	}
	counts, err := s.src.Counts(ctx)
	if err != nil {
		return empty, s.fail(SectionStats, err)
	}
	recent, err := s.src.CompletedSince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		return empty, s.fail(SectionStats, err)
	}
	return kpi.Stats(counts, recent, now), nil
}

// Trends covers the last days calendar days including today.
func (s *Service) Trends(ctx context.Context, days int) ([]kpi.TrendPoint, error) {
	if days <= 0 {
		days = config.TransactionTrendDays
	}
	now := s.now()
	empty := kpi.TransactionTrend(nil, now, days)
	if s.src == nil {
		return empty, s.fail(SectionTrends, ErrNoSource)
	}
	since := kpi.Since(kpi.PeriodDaily, now).AddDate(0, 0, -(days - 1))
	rows, err := s.src.CompletedSince(ctx, since)
	if err != nil {
		return empty, s.fail(SectionTrends, err)
	}
	return kpi.TransactionTrend(rows, now, days), nil
}
