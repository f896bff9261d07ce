package api

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"time"

	"KastleBackOffice/api/constants"
	"KastleBackOffice/internal/logger"
)

// audit writes to the rotating audit log when the logger service is up,
// otherwise to the standard logger.
func audit(msg string) {
	if logr := logger.GlobalLogger; logr != nil {
		logr.LogAudit(msg)
		return
	}
	log.Println(msg)
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	return r.RemoteAddr
}

// responseWriter wraps http.ResponseWriter to capture status code and the
// first part of an error body.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

const maxCapturedBody = 512

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.statusCode >= 400 && rw.body.Len() < maxCapturedBody {
		rw.body.Write(b)
	}
	return rw.ResponseWriter.Write(b)
}

// Flush keeps the SSE endpoint working behind the logging wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// LoggingMiddleware writes one audit line per request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		var msg string
		if rw.statusCode >= 400 {
			msg = fmt.Sprintf("[Gateway][ERROR] %s %s from %s status %d in %s: %s", r.Method, r.URL.Path, extractClientIP(r), rw.statusCode, time.Since(start), rw.body.String())
		} else {
			msg = fmt.Sprintf("[Gateway] %s %s from %s status %d in %s", r.Method, r.URL.Path, extractClientIP(r), rw.statusCode, time.Since(start))
		}
		audit(msg)
	})
}

// RecoverMiddleware turns a handler panic into a 500 instead of a dropped connection.
func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				LogError("panic serving %s: %v\n%s", r.URL.Path, rec, debug.Stack())
				RespondWithError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// CORSMiddleware lets the dashboard SPA call the API from its own origin.
func CORSMiddleware(allowOrigin string) func(http.Handler) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(constants.HeaderAccessControlAllowOrigin, allowOrigin)
			w.Header().Set(constants.HeaderAccessControlAllowHeaders, "Content-Type, Cache-Control")
			w.Header().Set("Access-Control-Allow-Methods", "GET, DELETE, OPTIONS")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// methodNotAllowedHandler also serves CORS preflights: routes are GET or
// DELETE only, so an OPTIONS request on a known path lands here.
func methodNotAllowedHandler(allowOrigin string) http.Handler {
	preflight := CORSMiddleware(allowOrigin)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			preflight.ServeHTTP(w, r)
			return
		}
		RespondWithError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed)
	})
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	audit("[Gateway] [Error] " + r.URL.Path + " from " + r.RemoteAddr + " (route not found)")
	RespondWithError(w, http.StatusNotFound, "route not found")
}
