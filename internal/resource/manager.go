package resource

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"KastleBackOffice/internal/logger"
	"KastleBackOffice/internal/serviceiface"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ResourceManager runs the database heartbeat. Until the first check it
// reports healthy so startup requests are not refused.
type ResourceManager struct {
	db                Pinger
	mu                sync.RWMutex
	healthy           bool
	lastCheck         time.Time
	lastErr           error
	stopChan          chan struct{}
	stopOnce          sync.Once
	heartbeatInterval time.Duration
	pingTimeout       time.Duration
}

func NewResourceManagerService(cfg map[string]interface{}, db Pinger) *ResourceManager {
	return &ResourceManager{
		db:                db,
		healthy:           true,
		stopChan:          make(chan struct{}),
		heartbeatInterval: serviceiface.DurationFromConfig(cfg, "heartbeat_interval", 5*time.Second),
		pingTimeout:       serviceiface.DurationFromConfig(cfg, "ping_timeout", 2*time.Second),
	}
}

func (rm *ResourceManager) Name() string { return "resourcemanager" }

func (rm *ResourceManager) Start() error {
	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit("ResourceManager started")
	}
	rm.Check()
	go rm.heartbeatLoop()
	return nil
}

func (rm *ResourceManager) Stop() error {
	rm.stopOnce.Do(func() { close(rm.stopChan) })
	return nil
}

func (rm *ResourceManager) heartbeatLoop() {
	ticker := time.NewTicker(rm.heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-rm.stopChan:
			return
		case <-ticker.C:
			rm.Check()
		}
	}
}

// Check pings once and records the outcome. Transitions are audited.
func (rm *ResourceManager) Check() bool {
	var err error
	if rm.db == nil {
		err = fmt.Errorf("no database configured")
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), rm.pingTimeout)
		err = rm.db.Ping(ctx)
		cancel()
	}

	rm.mu.Lock()
	was := rm.healthy
	rm.healthy = err == nil
	rm.lastErr = err
	rm.lastCheck = time.Now()
	rm.mu.Unlock()

	if was != (err == nil) {
		msg := "database heartbeat recovered"
		if err != nil {
			msg = fmt.Sprintf("database heartbeat failed: %v", err)
		}
		if logger.GlobalLogger != nil {
			logger.GlobalLogger.LogAudit(msg)
		} else {
			log.Println("[AUDIT]", msg)
		}
	}
	return err == nil
}

func (rm *ResourceManager) Healthy() bool {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.healthy
}

// LastCheck is zero before the first heartbeat.
func (rm *ResourceManager) LastCheck() time.Time {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.lastCheck
}

func (rm *ResourceManager) LastError() error {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.lastErr
}
