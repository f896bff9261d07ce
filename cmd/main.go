package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"KastleBackOffice/internal/appmanager"
	"KastleBackOffice/internal/config"
)

// InitPool opens the pgx pool from DB_* env vars. The pool connects lazily,
// so a database that is down at boot shows up as an unhealthy heartbeat
// rather than a failed start.
func InitPool(cfg config.DBConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	return pgxpool.NewWithConfig(context.Background(), poolCfg)
}

func main() {
	servicesPath := flag.String("services", config.DefaultServicesFile, "path to services.yaml")
	envPath := flag.String("env", "../.env", "optional .env file for local dev")
	flag.Parse()

	// Missing .env is fine outside local dev.
	_ = godotenv.Load(*envPath)

	dbCfg := config.DBFromEnv()
	if err := dbCfg.Validate(); err != nil {
		log.Fatal("invalid database config: ", err)
	}
	pool, err := InitPool(dbCfg)
	if err != nil {
		log.Fatal("failed to create DB pool: ", err)
	}
	defer pool.Close()
	appmanager.SetPgxPool(pool)
	appmanager.SetDSN(dbCfg.DSN())

	manager := appmanager.NewAppManager()

	servicesCfg, err := appmanager.LoadServiceSequence(*servicesPath)
	if err != nil {
		log.Fatal("failed to load service sequence: ", err)
	}
	manager.AutoRegisterServices(servicesCfg)

	if err := manager.StartAll(); err != nil {
		log.Fatal("failed to start: ", err)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	if err := manager.StopAll(); err != nil {
		log.Println("shutdown:", err)
	}
}
