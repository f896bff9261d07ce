package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

const (
	DefaultTimeZone        = "Asia/Riyadh"
	DefaultRefreshSchedule = "*/15 * * * *"
	DefaultListenAddr      = ":8080"
	DefaultServicesFile    = "../services.yaml"

	BankingSchema    = "kastle_banking"
	CollectionSchema = "kastle_collection"

	// LISTEN channel fed by the transactions trigger.
	TransactionsChannel = "transactions_changes"

	DefaultCaseLimit        = 200
	DefaultTransactionLimit = 100
	MaxPageLimit            = 1000
	TopDefaultersLimit      = 10
	TopOfficersLimit        = 10
	ActiveCampaignsLimit    = 5
	OverviewSummaryDays     = 30
	TransactionTrendDays    = 7
	OfficerIdleAfter        = 30 * time.Minute
	MaxNotifications        = 100
)

// DBConfig holds the Postgres connection settings read from the environment.
type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
	SSLMode  string
	MaxConns int
}

// DBFromEnv reads DB_* variables. Call godotenv.Load before this in local dev.
func DBFromEnv() DBConfig {
	return DBConfig{
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Host:     getEnv("DB_HOST", "127.0.0.1"),
		Port:     getEnv("DB_PORT", "5432"),
		Name:     getEnv("DB_NAME", "postgres"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
		MaxConns: getEnvInt("DB_MAX_CONNS", 10),
	}
}

// Validate reports the first missing required setting.
func (c DBConfig) Validate() error {
	switch {
	case c.User == "":
		return fmt.Errorf("DB_USER is not set")
	case c.Host == "":
		return fmt.Errorf("DB_HOST is not set")
	case c.Name == "":
		return fmt.Errorf("DB_NAME is not set")
	}
	return nil
}

// DSN returns a postgres URL usable by both pgxpool and lib/pq.
func (c DBConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   c.Host + ":" + c.Port,
		Path:   "/" + c.Name,
	}
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
