package collection

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"KastleBackOffice/api"
	"KastleBackOffice/api/collection/kpi"
	"KastleBackOffice/api/constants"
	"KastleBackOffice/internal/config"
)

// Notifier receives the user-visible notice for a failed section.
type Notifier interface {
	Notify(title, detail string)
}

// HealthReporter is the background database monitor.
type HealthReporter interface {
	Healthy() bool
}

// Service turns Source rows into dashboard view models. Every exported
// method that reads data returns a usable value even on error: the error is
// already logged and notified, and the value is the empty shape for that
// section.
type Service struct {
	src       Source
	scorer    Scorer
	notifier  Notifier
	health    HealthReporter
	now       func() time.Time
	idleAfter time.Duration
}

type Option func(*Service)

func WithScorer(sc Scorer) Option {
	return func(s *Service) { s.scorer = sc }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithHealth(h HealthReporter) Option {
	return func(s *Service) { s.health = h }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIdleAfter ignores non-positive durations.
func WithIdleAfter(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.idleAfter = d
		}
	}
}

func NewService(src Source, opts ...Option) *Service {
	s := &Service{
		src:       src,
		scorer:    DefaultScorer(),
		now:       time.Now,
		idleAfter: config.OfficerIdleAfter,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SectionError marks a dashboard section that fell back to its empty shape.
type SectionError struct {
	Section string
	Err     error
}

func (e *SectionError) Error() string { return e.Section + ": " + e.Err.Error() }

func (e *SectionError) Unwrap() error { return e.Err }

// fail logs and notifies, then wraps err so handlers can name the section.
func (s *Service) fail(section string, err error) error {
	api.LogError("%s: %v", section, err)
	if s.notifier != nil {
		s.notifier.Notify(constants.LoadFailed(section), err.Error())
	}
	return &SectionError{Section: section, Err: err}
}

func (s *Service) source() (Source, error) {
	if s.src == nil {
		return nil, ErrNoSource
	}
	return s.src, nil
}

func today(now time.Time) (time.Time, time.Time) {
	start := kpi.Since(kpi.PeriodDaily, now)
	return start, start.AddDate(0, 0, 1)
}

// ============================================================================
// CONNECTION
// ============================================================================

// CheckConnection trusts a failing background monitor and otherwise pings
// the store directly.
func (s *Service) CheckConnection(ctx context.Context) bool {
	if s.health != nil && !s.health.Healthy() {
		return false
	}
	src, err := s.source()
	if err != nil {
		return false
	}
	if err := src.Ping(ctx); err != nil {
		api.LogError("connection check: %v", err)
		return false
	}
	return true
}

// ============================================================================
// OVERVIEW AND CASES
// ============================================================================

type OverviewFilter struct {
	BranchID string
}

type Overview struct {
	TotalCases         int               `json:"total_cases"`
	ActiveCases        int               `json:"active_cases"`
	TotalOutstanding   float64           `json:"total_outstanding"`
	MonthlyRecovery    float64           `json:"monthly_recovery"`
	CollectionRate     float64           `json:"collection_rate"`
	StatusDistribution []kpi.StatusCount `json:"status_distribution"`
	BucketDistribution []kpi.BucketCount `json:"bucket_distribution"`
}

func emptyOverview() Overview {
	return Overview{
		StatusDistribution: []kpi.StatusCount{},
		BucketDistribution: []kpi.BucketCount{},
	}
}

func (s *Service) Overview(ctx context.Context, f OverviewFilter) (Overview, error) {
	const section = "collection overview"
	src, err := s.source()
	if err != nil {
		return emptyOverview(), s.fail(section, err)
	}
	cases, err := src.ListCases(ctx, CaseQuery{BranchID: f.BranchID})
	if err != nil {
		return emptyOverview(), s.fail(section, err)
	}
	summaries, err := src.ListDailySummaries(ctx, SummaryQuery{BranchID: f.BranchID, Latest: config.OverviewSummaryDays})
	if err != nil {
		return emptyOverview(), s.fail(section, err)
	}
	return Overview{
		TotalCases:         len(cases),
		ActiveCases:        kpi.CountStatus(cases, constants.CaseStatusActive),
		TotalOutstanding:   kpi.TotalOutstanding(cases),
		MonthlyRecovery:    kpi.SumCollected(summaries),
		CollectionRate:     kpi.AverageRate(summaries),
		StatusDistribution: kpi.StatusDistribution(cases),
		BucketDistribution: kpi.BucketCounts(cases),
	}, nil
}

type CaseFilter struct {
	Status   string
	BranchID string
	Search   string
	Limit    int
	Offset   int
}

// withCaseDefaults fills the display defaults for missing customer data.
func withCaseDefaults(c kpi.CaseRow) kpi.CaseRow {
	if c.CustomerName == "" {
		c.CustomerName = constants.DefaultCustomerName
	}
	if c.CustomerPhone == "" {
		c.CustomerPhone = constants.DefaultCustomerPhone
	}
	if c.Priority == "" {
		c.Priority = constants.DefaultPriority
	}
	return c
}

// Cases lists newest cases first. Limit defaults to 200.
func (s *Service) Cases(ctx context.Context, f CaseFilter) ([]kpi.CaseRow, error) {
	const section = "collection cases"
	if f.Limit <= 0 {
		f.Limit = config.DefaultCaseLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	src, err := s.source()
	if err != nil {
		return []kpi.CaseRow{}, s.fail(section, err)
	}
	rows, err := src.ListCases(ctx, CaseQuery{
		Status:   f.Status,
		BranchID: f.BranchID,
		Search:   f.Search,
		Order:    OrderCreatedDesc,
		Limit:    f.Limit,
		Offset:   f.Offset,
	})
	if err != nil {
		return []kpi.CaseRow{}, s.fail(section, err)
	}
	out := make([]kpi.CaseRow, 0, len(rows))
	for _, c := range rows {
		out = append(out, withCaseDefaults(c))
	}
	return out, nil
}

type CaseInfo struct {
	kpi.CaseRow
	CustomerEmail string `json:"customer_email"`
}

type CaseDetails struct {
	CaseInfo      CaseInfo             `json:"case_info"`
	Interactions  []kpi.InteractionRow `json:"interactions"`
	PromisesToPay []kpi.PTPRow         `json:"promises_to_pay"`
	FieldVisits   []FieldVisitRow      `json:"field_visits"`
	LegalCase     *LegalCaseRow        `json:"legal_case"`
}

func emptyCaseDetails() CaseDetails {
	return CaseDetails{
		Interactions:  []kpi.InteractionRow{},
		PromisesToPay: []kpi.PTPRow{},
		FieldVisits:   []FieldVisitRow{},
	}
}

// CaseDetails returns ErrCaseNotFound without notifying; an unknown id is
// not a load failure.
func (s *Service) CaseDetails(ctx context.Context, caseID int64) (CaseDetails, error) {
	const section = "case details"
	src, err := s.source()
	if err != nil {
		return emptyCaseDetails(), s.fail(section, err)
	}
	info, err := src.GetCase(ctx, caseID)
	if errors.Is(err, ErrCaseNotFound) {
		return emptyCaseDetails(), err
	}
	if err != nil {
		return emptyCaseDetails(), s.fail(section, err)
	}
	d := emptyCaseDetails()
	info.CaseRow = withCaseDefaults(info.CaseRow)
	d.CaseInfo = info

	q := ActivityQuery{CaseID: caseID}
	if d.Interactions, err = src.ListInteractions(ctx, q); err != nil {
		return emptyCaseDetails(), s.fail(section, err)
	}
	if d.PromisesToPay, err = src.ListPTPs(ctx, q); err != nil {
		return emptyCaseDetails(), s.fail(section, err)
	}
	if d.FieldVisits, err = src.ListFieldVisits(ctx, caseID); err != nil {
		return emptyCaseDetails(), s.fail(section, err)
	}
	if d.LegalCase, err = src.GetLegalCase(ctx, caseID); err != nil {
		return emptyCaseDetails(), s.fail(section, err)
	}
	return d, nil
}

// ============================================================================
// PERFORMANCE
// ============================================================================

type Performance struct {
	Period                kpi.Period               `json:"period"`
	Since                 time.Time                `json:"since"`
	DailyTrends           []kpi.DailySummaryRow    `json:"daily_trends"`
	TopOfficers           []kpi.OfficerPerformance `json:"top_officers"`
	TeamComparison        []kpi.TeamPerformance    `json:"team_comparison"`
	CampaignEffectiveness []kpi.CampaignRow        `json:"campaign_effectiveness"`
}

func emptyPerformance(p kpi.Period, since time.Time) Performance {
	return Performance{
		Period:                p,
		Since:                 since,
		DailyTrends:           []kpi.DailySummaryRow{},
		TopOfficers:           []kpi.OfficerPerformance{},
		TeamComparison:        []kpi.TeamPerformance{},
		CampaignEffectiveness: []kpi.CampaignRow{},
	}
}

// Performance keeps whichever parts loaded; a failed part stays empty and
// its error is joined into the returned error.
func (s *Service) Performance(ctx context.Context, p kpi.Period) (Performance, error) {
	const section = "collection performance"
	now := s.now()
	since := kpi.Since(p, now)
	out := emptyPerformance(p, since)
	src, err := s.source()
	if err != nil {
		return out, s.fail(section, err)
	}

	var errs []error
	if rows, err := src.ListDailySummaries(ctx, SummaryQuery{Since: since}); err != nil {
		errs = append(errs, err)
	} else {
		out.DailyTrends = rows
	}

	from, to := today(now)
	if metrics, err := src.ListOfficerMetrics(ctx, from, to); err != nil {
		errs = append(errs, err)
	} else {
		top := kpi.OfficerPerformances(metrics)
		if len(top) > config.TopOfficersLimit {
			top = top[:config.TopOfficersLimit]
		}
		out.TopOfficers = top
	}

	if rows, err := src.ListDailySummaries(ctx, SummaryQuery{On: from}); err != nil {
		errs = append(errs, err)
	} else {
		out.TeamComparison = kpi.TeamPerformances(rows)
	}

	if rows, err := src.ListCampaigns(ctx, constants.CampaignStatusActive, config.ActiveCampaignsLimit); err != nil {
		errs = append(errs, err)
	} else {
		out.CampaignEffectiveness = rows
	}

	if len(errs) > 0 {
		return out, s.fail(section, errors.Join(errs...))
	}
	return out, nil
}

// ============================================================================
// EXECUTIVE DASHBOARD SECTIONS
// ============================================================================

func (s *Service) NPFTrend(ctx context.Context, p kpi.Period) ([]kpi.NPFPoint, error) {
	const section = "NPF trend"
	src, err := s.source()
	if err != nil {
		return []kpi.NPFPoint{}, s.fail(section, err)
	}
	cases, err := src.ListCases(ctx, CaseQuery{CreatedSince: kpi.Since(p, s.now()), Order: OrderCreatedAsc})
	if err != nil {
		return []kpi.NPFPoint{}, s.fail(section, err)
	}
	return kpi.NPFTrend(cases), nil
}

// BucketDistribution covers ACTIVE cases only.
func (s *Service) BucketDistribution(ctx context.Context) ([]kpi.BucketAmount, error) {
	const section = "bucket distribution"
	src, err := s.source()
	if err != nil {
		return []kpi.BucketAmount{}, s.fail(section, err)
	}
	cases, err := src.ListCases(ctx, CaseQuery{Status: constants.CaseStatusActive})
	if err != nil {
		return []kpi.BucketAmount{}, s.fail(section, err)
	}
	return kpi.BucketDistribution(cases), nil
}

type Defaulter struct {
	CustomerID       string  `json:"customer_id"`
	CustomerName     string  `json:"customer_name"`
	TotalOutstanding float64 `json:"total_outstanding"`
	DaysPastDue      int     `json:"days_past_due"`
}

func (s *Service) TopDefaulters(ctx context.Context) ([]Defaulter, error) {
	const section = "top defaulters"
	src, err := s.source()
	if err != nil {
		return []Defaulter{}, s.fail(section, err)
	}
	cases, err := src.ListCases(ctx, CaseQuery{
		Status: constants.CaseStatusActive,
		Order:  OrderOutstandingDesc,
		Limit:  config.TopDefaultersLimit,
	})
	if err != nil {
		return []Defaulter{}, s.fail(section, err)
	}
	// The store already orders, but a fake or a short page may not.
	sort.SliceStable(cases, func(i, j int) bool { return cases[i].TotalOutstanding > cases[j].TotalOutstanding })
	if len(cases) > config.TopDefaultersLimit {
		cases = cases[:config.TopDefaultersLimit]
	}
	out := make([]Defaulter, 0, len(cases))
	for _, c := range cases {
		name := c.CustomerName
		if name == "" {
			name = constants.DefaultCustomerName
		}
		out = append(out, Defaulter{
			CustomerID:       c.CustomerID,
			CustomerName:     name,
			TotalOutstanding: c.TotalOutstanding,
			DaysPastDue:      c.DaysPastDue,
		})
	}
	return out, nil
}

func (s *Service) BranchPerformance(ctx context.Context, p kpi.Period) ([]kpi.BranchPerformance, error) {
	const section = "branch performance"
	src, err := s.source()
	if err != nil {
		return []kpi.BranchPerformance{}, s.fail(section, err)
	}
	rows, err := src.ListDailySummaries(ctx, SummaryQuery{Since: kpi.Since(p, s.now())})
	if err != nil {
		return []kpi.BranchPerformance{}, s.fail(section, err)
	}
	return kpi.BranchPerformances(rows), nil
}

func emptyHealth() kpi.PortfolioHealthScore {
	return kpi.PortfolioHealthScore{Components: []kpi.HealthComponent{}}
}

func (s *Service) PortfolioHealth(ctx context.Context) (kpi.PortfolioHealthScore, error) {
	scores, err := s.scorer.HealthScores(ctx)
	if err != nil {
		return emptyHealth(), s.fail("portfolio health", err)
	}
	return kpi.PortfolioHealth(scores), nil
}

func (s *Service) RiskIndicators(ctx context.Context) ([]kpi.RiskIndicator, error) {
	values, err := s.scorer.RiskValues(ctx)
	if err != nil {
		return []kpi.RiskIndicator{}, s.fail("risk indicators", err)
	}
	return kpi.RiskIndicators(values), nil
}

type Initiative struct {
	Name     string `json:"name"`
	Progress int    `json:"progress"`
	Impact   string `json:"impact"`
	Status   string `json:"status"`
	Target   string `json:"target"`
}

// StrategicInitiatives is maintained by hand until initiatives get a table.
func (s *Service) StrategicInitiatives() []Initiative {
	return []Initiative{
		{Name: "Digital Collection Enhancement", Progress: 75, Impact: "HIGH", Status: "ON_TRACK", Target: "Increase digital collections by 40%"},
		{Name: "AI-Powered Risk Scoring", Progress: 60, Impact: "MEDIUM", Status: "AT_RISK", Target: "Reduce default rate by 15%"},
		{Name: "Field Force Optimization", Progress: 85, Impact: "HIGH", Status: "ON_TRACK", Target: "Improve field collection efficiency by 30%"},
	}
}

// Executive dashboard section names, as reported in failed_sections.
const (
	SectionPortfolioHealth      = "portfolio_health"
	SectionNPFTrend             = "npf_trend"
	SectionBucketDistribution   = "bucket_distribution"
	SectionTopDefaulters        = "top_defaulters"
	SectionBranchPerformance    = "branch_performance"
	SectionStrategicInitiatives = "strategic_initiatives"
	SectionRiskIndicators       = "risk_indicators"
)

type ExecutiveDashboard struct {
	PortfolioHealth      kpi.PortfolioHealthScore `json:"portfolio_health"`
	NPFTrend             []kpi.NPFPoint           `json:"npf_trend"`
	BucketDistribution   []kpi.BucketAmount       `json:"bucket_distribution"`
	TopDefaulters        []Defaulter              `json:"top_defaulters"`
	BranchPerformance    []kpi.BranchPerformance  `json:"branch_performance"`
	StrategicInitiatives []Initiative             `json:"strategic_initiatives"`
	RiskIndicators       []kpi.RiskIndicator      `json:"risk_indicators"`
}

// ExecutiveDashboard loads all seven sections concurrently and waits for
// every one. The second return lists the sections that fell back to their
// empty shape, sorted by name.
func (s *Service) ExecutiveDashboard(ctx context.Context, p kpi.Period) (ExecutiveDashboard, []string) {
	var (
		dash   ExecutiveDashboard
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed = []string{}
	)
	run := func(name string, load func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := load(); err != nil {
				mu.Lock()
				failed = append(failed, name)
				mu.Unlock()
			}
		}()
	}

	// Each closure writes only its own field.
	run(SectionPortfolioHealth, func() (err error) {
		dash.PortfolioHealth, err = s.PortfolioHealth(ctx)
		return err
	})
	run(SectionNPFTrend, func() (err error) {
		dash.NPFTrend, err = s.NPFTrend(ctx, p)
		return err
	})
	run(SectionBucketDistribution, func() (err error) {
		dash.BucketDistribution, err = s.BucketDistribution(ctx)
		return err
	})
	run(SectionTopDefaulters, func() (err error) {
		dash.TopDefaulters, err = s.TopDefaulters(ctx)
		return err
	})
	run(SectionBranchPerformance, func() (err error) {
		dash.BranchPerformance, err = s.BranchPerformance(ctx, p)
		return err
	})
	run(SectionStrategicInitiatives, func() error {
		dash.StrategicInitiatives = s.StrategicInitiatives()
		return nil
	})
	run(SectionRiskIndicators, func() (err error) {
		dash.RiskIndicators, err = s.RiskIndicators(ctx)
		return err
	})
	wg.Wait()

	sort.Strings(failed)
	return dash, failed
}

// ============================================================================
// REPORTS AND ANALYTICS
// ============================================================================

type Report struct {
	Period            kpi.Period `json:"period"`
	Since             time.Time  `json:"since"`
	TotalCollected    float64    `json:"total_collected"`
	CollectionRate    float64    `json:"collection_rate"`
	TotalInteractions int        `json:"total_interactions"`
	ActiveCampaigns   int        `json:"active_campaigns"`
	TotalOfficers     int        `json:"total_officers"`
}

func (s *Service) Report(ctx context.Context, p kpi.Period) (Report, error) {
	const section = "collection report"
	since := kpi.Since(p, s.now())
	out := Report{Period: p, Since: since}
	src, err := s.source()
	if err != nil {
		return out, s.fail(section, err)
	}
	summaries, err := src.ListDailySummaries(ctx, SummaryQuery{Since: since})
	if err != nil {
		return Report{Period: p, Since: since}, s.fail(section, err)
	}
	interactions, err := src.ListInteractions(ctx, ActivityQuery{Since: since})
	if err != nil {
		return Report{Period: p, Since: since}, s.fail(section, err)
	}
	campaigns, err := src.ListCampaigns(ctx, constants.CampaignStatusActive, 0)
	if err != nil {
		return Report{Period: p, Since: since}, s.fail(section, err)
	}
	officers, err := src.ListOfficers(ctx)
	if err != nil {
		return Report{Period: p, Since: since}, s.fail(section, err)
	}
	out.TotalCollected = kpi.SumCollected(summaries)
	out.CollectionRate = kpi.AverageRate(summaries)
	out.TotalInteractions = len(interactions)
	out.ActiveCampaigns = len(campaigns)
	out.TotalOfficers = len(officers)
	return out, nil
}

type Analytics struct {
	Period   kpi.Period        `json:"period"`
	Since    time.Time         `json:"since"`
	Channels []kpi.ChannelStat `json:"channel_effectiveness"`
	PTP      kpi.PTPSummary    `json:"ptp_analysis"`
}

func (s *Service) Analytics(ctx context.Context, p kpi.Period) (Analytics, error) {
	const section = "collection analytics"
	since := kpi.Since(p, s.now())
	out := Analytics{Period: p, Since: since, Channels: []kpi.ChannelStat{}}
	src, err := s.source()
	if err != nil {
		return out, s.fail(section, err)
	}
	interactions, err := src.ListInteractions(ctx, ActivityQuery{Since: since})
	if err != nil {
		return out, s.fail(section, err)
	}
	ptps, err := src.ListPTPs(ctx, ActivityQuery{Since: since})
	if err != nil {
		return out, s.fail(section, err)
	}
	out.Channels = kpi.ChannelEffectiveness(interactions)
	out.PTP = kpi.PTPAnalysis(ptps)
	return out, nil
}

func (s *Service) OfficersPerformance(ctx context.Context, p kpi.Period) ([]kpi.OfficerPerformance, error) {
	const section = "officer performance"
	src, err := s.source()
	if err != nil {
		return []kpi.OfficerPerformance{}, s.fail(section, err)
	}
	now := s.now()
	_, end := today(now)
	metrics, err := src.ListOfficerMetrics(ctx, kpi.Since(p, now), end)
	if err != nil {
		return []kpi.OfficerPerformance{}, s.fail(section, err)
	}
	return kpi.OfficerPerformances(metrics), nil
}

func (s *Service) TeamsPerformance(ctx context.Context, p kpi.Period) ([]kpi.TeamPerformance, error) {
	const section = "team performance"
	src, err := s.source()
	if err != nil {
		return []kpi.TeamPerformance{}, s.fail(section, err)
	}
	rows, err := src.ListDailySummaries(ctx, SummaryQuery{Since: kpi.Since(p, s.now())})
	if err != nil {
		return []kpi.TeamPerformance{}, s.fail(section, err)
	}
	return kpi.TeamPerformances(rows), nil
}

func (s *Service) OfficerActivity(ctx context.Context) ([]kpi.OfficerActivity, error) {
	const section = "officer activity"
	src, err := s.source()
	if err != nil {
		return []kpi.OfficerActivity{}, s.fail(section, err)
	}
	officers, err := src.ListOfficers(ctx)
	if err != nil {
		return []kpi.OfficerActivity{}, s.fail(section, err)
	}
	return kpi.OfficerActivities(officers, s.now(), s.idleAfter), nil
}
