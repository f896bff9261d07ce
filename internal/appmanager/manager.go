package appmanager

import (
	"fmt"
	"log"
	"os"
	"sort"
	"sync"

	"KastleBackOffice/api"
	"KastleBackOffice/api/collection"
	"KastleBackOffice/api/transactions"
	"KastleBackOffice/internal/dashboard"
	"KastleBackOffice/internal/jobs"
	"KastleBackOffice/internal/logger"
	"KastleBackOffice/internal/notification"
	"KastleBackOffice/internal/resource"
	"KastleBackOffice/internal/serviceiface"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"
)

var (
	pgxPool *pgxpool.Pool
	dbDSN   string
)

func SetPgxPool(pool *pgxpool.Pool) {
	pgxPool = pool
}

// GetPgxPool returns the pgx pool connection
func GetPgxPool() *pgxpool.Pool {
	return pgxPool
}

// SetDSN is the connection string handed to the LISTEN feed, which needs
// its own dedicated connection outside the pool.
func SetDSN(dsn string) {
	dbDSN = dsn
}

// ------------------- MANAGER -------------------

// AppManager owns the services listed in services.yaml and the components
// they share. Shared components are built on first use so a service can be
// left out of the yaml without breaking the ones that depend on it.
type AppManager struct {
	services []serviceiface.Service
	mu       sync.Mutex
	configs  map[string]map[string]interface{}

	hub           *dashboard.Hub
	health        *resource.ResourceManager
	notifications *notification.NotificationService
	collectionSvc *collection.Service
	txnSvc        *transactions.Service
}

func NewAppManager() *AppManager {
	return &AppManager{
		services: make([]serviceiface.Service, 0),
		configs:  make(map[string]map[string]interface{}),
	}
}

func (am *AppManager) Hub() *dashboard.Hub {
	if am.hub == nil {
		cfg := am.configs["sse"]
		am.hub = dashboard.NewHub(serviceiface.DurationFromConfig(cfg, "ping_interval", dashboard.DefaultPingInterval))
	}
	return am.hub
}

func (am *AppManager) Health() *resource.ResourceManager {
	if am.health == nil {
		var db resource.Pinger
		if pgxPool != nil {
			db = pgxPool
		}
		am.health = resource.NewResourceManagerService(am.configs["resourcemanager"], db)
	}
	return am.health
}

func (am *AppManager) Notifications() *notification.NotificationService {
	if am.notifications == nil {
		limit := serviceiface.IntFromConfig(am.configs["gateway"], "max_notifications", 0)
		am.notifications = notification.NewNotificationService(limit, am.Hub())
	}
	return am.notifications
}

// Collection builds the collection service from the gateway block:
// banking_schema, collection_schema, officer_idle_after and a scoring block.
func (am *AppManager) Collection() *collection.Service {
	if am.collectionSvc != nil {
		return am.collectionSvc
	}
	cfg := am.configs["gateway"]
	scorer, err := collection.ScorerFromConfig(serviceiface.SubConfig(cfg, "scoring"))
	if err != nil {
		log.Printf("[ERROR] scoring config ignored: %v", err)
	}
	var src collection.Source
	if pgxPool != nil {
		src = collection.NewPgStore(pgxPool,
			serviceiface.StringFromConfig(cfg, "banking_schema", ""),
			serviceiface.StringFromConfig(cfg, "collection_schema", ""))
	}
	am.collectionSvc = collection.NewService(src,
		collection.WithScorer(scorer),
		collection.WithNotifier(am.Notifications()),
		collection.WithHealth(am.Health()),
		collection.WithIdleAfter(serviceiface.DurationFromConfig(cfg, "officer_idle_after", 0)),
	)
	return am.collectionSvc
}

func (am *AppManager) Transactions() *transactions.Service {
	if am.txnSvc != nil {
		return am.txnSvc
	}
	var src transactions.Source
	if pgxPool != nil {
		src = transactions.NewPgStore(pgxPool, serviceiface.StringFromConfig(am.configs["gateway"], "banking_schema", ""))
	}
	am.txnSvc = transactions.NewService(src, transactions.WithNotifier(am.Notifications()))
	return am.txnSvc
}

// Router mounts every HTTP surface on one mux.
func (am *AppManager) Router() *mux.Router {
	allowOrigin := serviceiface.StringFromConfig(am.configs["gateway"], "allow_origin", "*")
	return api.NewRouter(am.Health(), allowOrigin,
		collection.RegisterRoutes(am.Collection()),
		transactions.RegisterRoutes(am.Transactions()),
		am.Notifications().RegisterRoutes(),
		am.Hub().RegisterRoutes(),
	)
}

func (am *AppManager) serviceConstructors() map[string]func(map[string]interface{}) serviceiface.Service {
	return map[string]func(map[string]interface{}) serviceiface.Service{
		"logger": func(cfg map[string]interface{}) serviceiface.Service {
			return logger.NewLoggerService(cfg)
		},
		"resourcemanager": func(cfg map[string]interface{}) serviceiface.Service {
			return am.Health()
		},
		"sse": func(cfg map[string]interface{}) serviceiface.Service {
			return am.Hub()
		},
		"feed": func(cfg map[string]interface{}) serviceiface.Service {
			return dashboard.NewFeedService(cfg, dbDSN, am.Hub())
		},
		"refresh": func(cfg map[string]interface{}) serviceiface.Service {
			return jobs.NewRefreshService(cfg, am.Collection(), am.Hub())
		},
		"gateway": func(cfg map[string]interface{}) serviceiface.Service {
			hub := am.Hub()
			return api.NewGatewayService(cfg, am.Router(), func() { hub.Stop() })
		},
	}
}

func (am *AppManager) RegisterService(s serviceiface.Service) {
	am.mu.Lock()
	defer am.mu.Unlock()
	am.services = append(am.services, s)
}

func (am *AppManager) StartAll() error {
	am.mu.Lock()
	defer am.mu.Unlock()

	// First pass: start all except resourcemanager
	for _, service := range am.services {
		if service.Name() == "resourcemanager" {
			continue
		}
		log.Println("Starting service:", service.Name())
		if err := service.Start(); err != nil {
			return fmt.Errorf("failed to start service %s: %w", service.Name(), err)
		}
	}

	// The heartbeat goes last so its first audit line lands in the log file.
	for _, service := range am.services {
		if service.Name() == "resourcemanager" {
			log.Println("Starting service:", service.Name())
			if err := service.Start(); err != nil {
				return fmt.Errorf("failed to start service %s: %w", service.Name(), err)
			}
		}
	}
	return nil
}

// StopAll stops in reverse order and keeps going past failures; the first
// error is returned.
func (am *AppManager) StopAll() error {
	am.mu.Lock()
	defer am.mu.Unlock()
	var first error
	for i := len(am.services) - 1; i >= 0; i-- {
		svc := am.services[i]
		if err := svc.Stop(); err != nil {
			log.Printf("[ERROR] stop %s: %v", svc.Name(), err)
			if first == nil {
				first = fmt.Errorf("failed to stop service %s: %w", svc.Name(), err)
			}
		}
	}
	return first
}

// ------------------- YAML CONFIG -------------------

type ServiceSequencer struct {
	Services []ServiceConfig `yaml:"services"`
}

type ServiceConfig struct {
	Name       string                 `yaml:"name"`
	StartOrder int                    `yaml:"start_order"`
	Config     map[string]interface{} `yaml:"config"`
}

func LoadServiceSequence(path string) ([]ServiceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseServiceSequence(data)
}

func ParseServiceSequence(data []byte) ([]ServiceConfig, error) {
	var seq ServiceSequencer
	if err := yaml.Unmarshal(data, &seq); err != nil {
		return nil, fmt.Errorf("parse services.yaml: %w", err)
	}
	sort.SliceStable(seq.Services, func(i, j int) bool {
		return seq.Services[i].StartOrder < seq.Services[j].StartOrder
	})
	return seq.Services, nil
}

// AutoRegisterServices records every config block first so shared
// components see their settings regardless of start order, then builds the
// services in order. Unknown names are logged and skipped.
func (am *AppManager) AutoRegisterServices(configs []ServiceConfig) {
	for _, svc := range configs {
		am.configs[svc.Name] = svc.Config
	}
	constructors := am.serviceConstructors()
	for _, svc := range configs {
		constructor, ok := constructors[svc.Name]
		if !ok {
			log.Printf("[ERROR] unknown service %q in services.yaml", svc.Name)
			continue
		}
		am.RegisterService(constructor(svc.Config))
	}

	for _, svc := range am.services {
		if l, ok := svc.(*logger.LoggerService); ok {
			logger.SetGlobalLogger(l)
			break
		}
	}
}

func (am *AppManager) GetServiceByName(name string) serviceiface.Service {
	for _, svc := range am.services {
		if svc.Name() == name {
			return svc
		}
	}
	return nil
}
