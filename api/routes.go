package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// RouteRegistrar mounts one feature's routes. Feature packages import api,
// so they hand their routes in rather than api importing them.
type RouteRegistrar func(r *mux.Router)

// HealthChecker reports whether the database answered its last ping.
type HealthChecker interface {
	Healthy() bool
	LastCheck() time.Time
}

func NewRouter(health HealthChecker, allowOrigin string, registrars ...RouteRegistrar) *mux.Router {
	router := mux.NewRouter()
	router.Use(RecoverMiddleware, LoggingMiddleware, CORSMiddleware(allowOrigin))

	router.HandleFunc("/health", HealthHandler(health)).Methods(http.MethodGet)
	for _, register := range registrars {
		register(router)
	}
	router.NotFoundHandler = http.HandlerFunc(notFoundHandler)
	router.MethodNotAllowedHandler = methodNotAllowedHandler(allowOrigin)
	return router
}

// HealthHandler always answers 200 while the process is up; the database
// state is reported in the body so the SPA can show a degraded banner.
func HealthHandler(health HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{
			"status":   "ok",
			"time":     time.Now().UTC(),
			"database": "unknown",
		}
		if health != nil {
			if health.Healthy() {
				status["database"] = "up"
			} else {
				status["database"] = "down"
			}
			if last := health.LastCheck(); !last.IsZero() {
				status["database_checked_at"] = last.UTC()
			}
		}
		RespondWithData(w, status)
	}
}
