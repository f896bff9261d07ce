package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"KastleBackOffice/api/collection"
	"KastleBackOffice/api/constants"
	"KastleBackOffice/internal/config"
	"KastleBackOffice/internal/logger"
	"KastleBackOffice/internal/serviceiface"

	"github.com/robfig/cron/v3"
)

const EventKPIRefresh = "kpi_refresh"

// OverviewLoader is the part of the collection service the refresh job needs.
type OverviewLoader interface {
	CheckConnection(ctx context.Context) bool
	Overview(ctx context.Context, f collection.OverviewFilter) (collection.Overview, error)
}

type Broadcaster interface {
	Broadcast(event string, data interface{}) int
}

// RefreshPayload is what live views receive on each scheduled refresh.
type RefreshPayload struct {
	RefreshedAt time.Time           `json:"refreshed_at"`
	Connected   bool                `json:"connected"`
	Overview    collection.Overview `json:"overview"`
	Warning     string              `json:"warning,omitempty"`
}

// RefreshService recomputes the collection overview on a cron schedule and
// pushes it to connected dashboards. Nothing is persisted.
type RefreshService struct {
	schedule    string
	timeZone    string
	timeout     time.Duration
	loader      OverviewLoader
	broadcaster Broadcaster
	cron        *cron.Cron
}

func NewRefreshService(cfg map[string]interface{}, loader OverviewLoader, b Broadcaster) *RefreshService {
	return &RefreshService{
		schedule:    serviceiface.StringFromConfig(cfg, "refresh_schedule", config.DefaultRefreshSchedule),
		timeZone:    serviceiface.StringFromConfig(cfg, "timezone", config.DefaultTimeZone),
		timeout:     serviceiface.DurationFromConfig(cfg, "timeout", 30*time.Second),
		loader:      loader,
		broadcaster: b,
	}
}

func (s *RefreshService) Name() string { return "refresh" }

func audit(msg string) {
	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit(msg)
		return
	}
	log.Println("[AUDIT]", msg)
}

func (s *RefreshService) Start() error {
	loc, err := time.LoadLocation(s.timeZone)
	if err != nil {
		audit(fmt.Sprintf("Invalid timezone %s, falling back to UTC: %v", s.timeZone, err))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.Refresh(ctx)
	}); err != nil {
		return fmt.Errorf("unable to schedule kpi refresh %q: %w", s.schedule, err)
	}
	c.Start()
	s.cron = c
	audit(fmt.Sprintf("KPI refresh scheduled: %s (%s)", s.schedule, loc))
	return nil
}

// Refresh runs one cycle. When the database is unreachable the overview is
// skipped and the broadcast reports connected=false.
func (s *RefreshService) Refresh(ctx context.Context) RefreshPayload {
	p := RefreshPayload{RefreshedAt: time.Now()}
	if s.loader == nil {
		return p
	}
	p.Connected = s.loader.CheckConnection(ctx)
	if p.Connected {
		overview, err := s.loader.Overview(ctx, collection.OverviewFilter{})
		p.Overview = overview
		var se *collection.SectionError
		if errors.As(err, &se) {
			p.Warning = constants.LoadFailed(se.Section)
		} else if err != nil {
			p.Warning = err.Error()
		}
	}
	if s.broadcaster != nil {
		n := s.broadcaster.Broadcast(EventKPIRefresh, p)
		log.Printf("[INFO] kpi refresh delivered to %d views", n)
	}
	return p
}

func (s *RefreshService) Stop() error {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	log.Println("Refresh service stopped.")
	return nil
}
