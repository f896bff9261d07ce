package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHealth struct {
	healthy bool
	last    time.Time
}

func (s stubHealth) Healthy() bool        { return s.healthy }
func (s stubHealth) LastCheck() time.Time { return s.last }

func do(t *testing.T, h http.Handler, method, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	var body map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealthHandler(t *testing.T) {
	checked := time.Date(2026, time.March, 18, 12, 0, 0, 0, time.UTC)

	rec, body := do(t, NewRouter(stubHealth{healthy: false, last: checked}, ""), http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "down", data["database"])
	assert.Equal(t, "2026-03-18T12:00:00Z", data["database_checked_at"])

	_, body = do(t, NewRouter(nil, ""), http.MethodGet, "/health")
	data = body["data"].(map[string]interface{})
	assert.Equal(t, "unknown", data["database"])
	assert.NotContains(t, data, "database_checked_at")
}

func TestNewRouter_NotFoundAndPreflight(t *testing.T) {
	router := NewRouter(nil, "https://ops.example")

	rec, body := do(t, router, http.MethodGet, "/nowhere")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])

	rec, _ = do(t, router, http.MethodOptions, "/health")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://ops.example", rec.Header().Get("Access-Control-Allow-Origin"))

	rec, body = do(t, router, http.MethodPost, "/health")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method Not Allowed", body["error"])
}

func TestRecoverMiddleware(t *testing.T) {
	panicky := func(r *mux.Router) {
		r.HandleFunc("/boom", func(http.ResponseWriter, *http.Request) { panic("kaboom") })
	}
	rec, body := do(t, NewRouter(nil, "", panicky), http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", body["error"])
}

func TestRespondWithPayload_KeepsEnvelopeKeys(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithPayload(rec, []int{1}, map[string]interface{}{"success": false, "warning": "Failed to load npf trend"})
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Failed to load npf trend", body["warning"])
}

func TestNewPage(t *testing.T) {
	assert.Equal(t, Page{Limit: 2, Offset: 4, Returned: 2, HasMore: true}, NewPage(2, 4, 2))
	assert.False(t, NewPage(10, 0, 3).HasMore)
}
