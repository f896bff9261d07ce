package collection

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"KastleBackOffice/api/collection/kpi"
)

var errBoom = errors.New("boom")

// fakeSource filters in memory the way PgStore filters in SQL. Setting
// fail[method] makes that method return errBoom.
type fakeSource struct {
	mu sync.Mutex

	cases        []kpi.CaseRow
	emails       map[int64]string
	interactions []kpi.InteractionRow
	ptps         []kpi.PTPRow
	visits       []FieldVisitRow
	legal        map[int64]*LegalCaseRow
	summaries    []kpi.DailySummaryRow
	metrics      []kpi.OfficerMetricRow
	officers     []kpi.OfficerRow
	campaigns    []campaign

	fail        map[string]bool
	caseQueries []CaseQuery
	metricRange [][2]time.Time
}

type campaign struct {
	kpi.CampaignRow
	status string
}

func (f *fakeSource) failing(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[method] {
		return errBoom
	}
	return nil
}

func (f *fakeSource) Ping(ctx context.Context) error {
	return f.failing("Ping")
}

func (f *fakeSource) ListCases(ctx context.Context, q CaseQuery) ([]kpi.CaseRow, error) {
	if err := f.failing("ListCases"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.caseQueries = append(f.caseQueries, q)
	f.mu.Unlock()

	out := []kpi.CaseRow{}
	for _, c := range f.cases {
		if q.Status != "" && c.CaseStatus != q.Status {
			continue
		}
		if q.BranchID != "" && c.BranchID != q.BranchID {
			continue
		}
		if !q.CreatedSince.IsZero() && c.CreatedAt.Before(q.CreatedSince) {
			continue
		}
		if !matchesSearch(q.Search, c.CaseNumber, c.CustomerName, c.AccountNumber) {
			continue
		}
		out = append(out, c)
	}
	switch q.Order {
	case OrderCreatedAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	case OrderOutstandingDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].TotalOutstanding > out[j].TotalOutstanding })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return []kpi.CaseRow{}, nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeSource) GetCase(ctx context.Context, caseID int64) (CaseInfo, error) {
	if err := f.failing("GetCase"); err != nil {
		return CaseInfo{}, err
	}
	for _, c := range f.cases {
		if c.CaseID == caseID {
			return CaseInfo{CaseRow: c, CustomerEmail: f.emails[caseID]}, nil
		}
	}
	return CaseInfo{}, ErrCaseNotFound
}

func (f *fakeSource) ListInteractions(ctx context.Context, q ActivityQuery) ([]kpi.InteractionRow, error) {
	if err := f.failing("ListInteractions"); err != nil {
		return nil, err
	}
	out := []kpi.InteractionRow{}
	for _, i := range f.interactions {
		if (q.CaseID == 0 || i.CaseID == q.CaseID) && !i.InteractionDatetime.Before(q.Since) {
			out = append(out, i)
		}
	}
	return out, nil
}

func (f *fakeSource) ListPTPs(ctx context.Context, q ActivityQuery) ([]kpi.PTPRow, error) {
	if err := f.failing("ListPTPs"); err != nil {
		return nil, err
	}
	out := []kpi.PTPRow{}
	for _, p := range f.ptps {
		if (q.CaseID == 0 || p.CaseID == q.CaseID) && !p.PTPDate.Before(q.Since) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeSource) ListFieldVisits(ctx context.Context, caseID int64) ([]FieldVisitRow, error) {
	if err := f.failing("ListFieldVisits"); err != nil {
		return nil, err
	}
	out := []FieldVisitRow{}
	for _, v := range f.visits {
		if v.CaseID == caseID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeSource) GetLegalCase(ctx context.Context, caseID int64) (*LegalCaseRow, error) {
	if err := f.failing("GetLegalCase"); err != nil {
		return nil, err
	}
	return f.legal[caseID], nil
}

func (f *fakeSource) ListDailySummaries(ctx context.Context, q SummaryQuery) ([]kpi.DailySummaryRow, error) {
	if err := f.failing("ListDailySummaries"); err != nil {
		return nil, err
	}
	out := []kpi.DailySummaryRow{}
	for _, s := range f.summaries {
		if !q.Since.IsZero() && s.SummaryDate.Before(q.Since) {
			continue
		}
		if !q.On.IsZero() && !s.SummaryDate.Equal(q.On) {
			continue
		}
		if q.BranchID != "" && s.BranchID != q.BranchID {
			continue
		}
		out = append(out, s)
	}
	if q.Latest > 0 {
		sort.SliceStable(out, func(i, j int) bool { return out[i].SummaryDate.After(out[j].SummaryDate) })
		if len(out) > q.Latest {
			out = out[:q.Latest]
		}
	}
	return out, nil
}

func (f *fakeSource) ListOfficerMetrics(ctx context.Context, from, to time.Time) ([]kpi.OfficerMetricRow, error) {
	if err := f.failing("ListOfficerMetrics"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.metricRange = append(f.metricRange, [2]time.Time{from, to})
	f.mu.Unlock()
	out := []kpi.OfficerMetricRow{}
	for _, m := range f.metrics {
		if !m.MetricDate.Before(from) && m.MetricDate.Before(to) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeSource) ListOfficers(ctx context.Context) ([]kpi.OfficerRow, error) {
	if err := f.failing("ListOfficers"); err != nil {
		return nil, err
	}
	return append([]kpi.OfficerRow{}, f.officers...), nil
}

func (f *fakeSource) ListCampaigns(ctx context.Context, status string, limit int) ([]kpi.CampaignRow, error) {
	if err := f.failing("ListCampaigns"); err != nil {
		return nil, err
	}
	out := []kpi.CampaignRow{}
	for _, c := range f.campaigns {
		if status != "" && c.status != status {
			continue
		}
		out = append(out, c.CampaignRow)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []string
}

func (n *recordingNotifier) Notify(title, detail string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, title)
}

func (n *recordingNotifier) titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := append([]string{}, n.notices...)
	sort.Strings(out)
	return out
}

type fixedHealth bool

func (h fixedHealth) Healthy() bool { return bool(h) }

type failingScorer struct{}

func (failingScorer) HealthScores(context.Context) (kpi.HealthScores, error) {
	return kpi.HealthScores{}, errBoom
}

func (failingScorer) RiskValues(context.Context) (kpi.RiskValues, error) {
	return kpi.RiskValues{}, errBoom
}

// fixedNow is a Wednesday afternoon.
var fixedNow = time.Date(2026, time.March, 18, 15, 30, 0, 0, time.UTC)

func day(offset int) time.Time {
	return time.Date(2026, time.March, 18+offset, 0, 0, 0, 0, time.UTC)
}

func seededSource() *fakeSource {
	return &fakeSource{
		cases: []kpi.CaseRow{
			{CaseID: 1, CaseNumber: "COL-001", CustomerID: "C1", CustomerName: "Ahmed Al-Rashid", CustomerPhone: "+966501234567", AccountNumber: "ACC1", TotalOutstanding: 125000, DaysPastDue: 45, CaseStatus: "ACTIVE", Priority: "HIGH", BranchID: "B1", CreatedAt: day(-40)},
			{CaseID: 2, CaseNumber: "COL-002", CustomerID: "C2", AccountNumber: "ACC2", TotalOutstanding: 85000, DaysPastDue: 95, CaseStatus: "ACTIVE", BranchID: "B2", CreatedAt: day(-10)},
			{CaseID: 3, CaseNumber: "COL-003", CustomerID: "C3", CustomerName: "Gulf Trading Co.", AccountNumber: "ACC3", TotalOutstanding: 450000, DaysPastDue: 200, CaseStatus: "LEGAL", Priority: "CRITICAL", BranchID: "B1", CreatedAt: day(-5)},
			{CaseID: 4, CaseNumber: "COL-004", CustomerID: "C4", CustomerName: "Sara Ahmed", AccountNumber: "ACC4", TotalOutstanding: 15000, DaysPastDue: 0, CaseStatus: "ACTIVE", BranchID: "B2", BucketName: "Early Watch", CreatedAt: day(-1)},
		},
		emails: map[int64]string{1: "ahmed@example.com"},
		interactions: []kpi.InteractionRow{
			{InteractionID: 10, CaseID: 1, InteractionType: "CALL", InteractionDatetime: day(-2), Outcome: "CONTACTED", OfficerName: "Mohammed Ali"},
			{InteractionID: 11, CaseID: 1, InteractionType: "CALL", InteractionDatetime: day(-1), Outcome: "NO_ANSWER", OfficerName: "Mohammed Ali"},
			{InteractionID: 12, CaseID: 2, InteractionType: "SMS", InteractionDatetime: day(-1), Outcome: "PTP"},
		},
		ptps: []kpi.PTPRow{
			{PTPID: 20, CaseID: 1, PTPAmount: 50000, PTPDate: day(-3), Status: "KEPT", AmountReceived: 50000},
			{PTPID: 21, CaseID: 2, PTPAmount: 30000, PTPDate: day(-2), Status: "BROKEN"},
		},
		visits: []FieldVisitRow{{VisitID: 30, CaseID: 1, VisitDate: day(-4), VisitResult: "MET_CUSTOMER"}},
		legal:  map[int64]*LegalCaseRow{3: {LegalCaseID: 40, CaseID: 3, CourtName: "Riyadh Commercial Court", LegalStatus: "FILED"}},
		summaries: []kpi.DailySummaryRow{
			{SummaryDate: day(-60), BranchID: "B1", TeamID: "T1", TeamName: "Team A", TotalDue: 100, TotalCollected: 10, CollectionRate: 10},
			{SummaryDate: day(-2), BranchID: "B1", TeamID: "T1", TeamName: "Team A", TotalDue: 1000, TotalCollected: 600, CollectionRate: 60},
			{SummaryDate: day(0), BranchID: "B1", TeamID: "T1", TeamName: "Team A", TotalDue: 1000, TotalCollected: 700, CollectionRate: 70},
			{SummaryDate: day(0), BranchID: "B2", TeamID: "T2", TeamName: "Team B", TotalDue: 500, TotalCollected: 400, CollectionRate: 80},
		},
		metrics: []kpi.OfficerMetricRow{
			{OfficerID: "O1", OfficerName: "Mohammed Ali", MetricDate: day(0), AmountCollected: 2500, CallsMade: 40, ContactsMade: 30, PTPsObtained: 5, QualityScore: 8.5},
			{OfficerID: "O2", OfficerName: "Sara Ahmed", MetricDate: day(0), AmountCollected: 2200, CallsMade: 20, ContactsMade: 10, PTPsObtained: 2, QualityScore: 8.0},
			{OfficerID: "O1", OfficerName: "Mohammed Ali", MetricDate: day(-3), AmountCollected: 1000, CallsMade: 10, ContactsMade: 10, PTPsObtained: 1, QualityScore: 9.5},
		},
		officers: []kpi.OfficerRow{
			{OfficerID: "O1", OfficerName: "Mohammed Ali", Status: "ACTIVE", DailyTarget: 5000, DailyCollected: 2500, LastActive: fixedNow.Add(-5 * time.Minute)},
			{OfficerID: "O2", OfficerName: "Sara Ahmed", Status: "ACTIVE", DailyTarget: 4000, DailyCollected: 4000, LastActive: fixedNow.Add(-2 * time.Hour)},
			{OfficerID: "O3", OfficerName: "Omar Hassan", Status: "ON_LEAVE"},
		},
		campaigns: []campaign{
			{CampaignRow: kpi.CampaignRow{CampaignName: "Q1 Recovery Drive", CampaignType: "Phone", TargetRecovery: 1000, ActualRecovery: 850, SuccessRate: 85, ROI: 320}, status: "ACTIVE"},
			{CampaignRow: kpi.CampaignRow{CampaignName: "Old Drive"}, status: "CLOSED"},
		},
		fail: map[string]bool{},
	}
}

func newTestService(src Source, opts ...Option) *Service {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewService(src, opts...)
}

// matchesSearch mirrors the case-insensitive ILIKE search the store runs.
func matchesSearch(term string, fields ...string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}
