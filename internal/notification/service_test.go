package notification

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"KastleBackOffice/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capture struct {
	events []string
}

func (c *capture) Broadcast(event string, _ interface{}) int {
	c.events = append(c.events, event)
	return 1
}

func TestNotificationService_Bounded(t *testing.T) {
	ns := NewNotificationService(3, nil)
	for i := 1; i <= 5; i++ {
		ns.Notify(fmt.Sprintf("Failed to load section %d", i), "boom")
	}
	list := ns.GetNotifications()
	require.Len(t, list, 3)
	assert.Equal(t, "Failed to load section 5", list[0].Title)
	assert.Equal(t, "Failed to load section 3", list[2].Title)
	assert.Equal(t, LevelError, list[0].Level)
	assert.NotEmpty(t, list[0].ID)
}

func TestNotificationService_DefaultMax(t *testing.T) {
	ns := NewNotificationService(0, nil)
	for i := 0; i < 150; i++ {
		ns.AddNotification(LevelInfo, "x", "")
	}
	assert.Len(t, ns.GetNotifications(), 100)
}

func TestNotificationService_BroadcastsToast(t *testing.T) {
	c := &capture{}
	ns := NewNotificationService(10, c)
	ns.Notify("Failed to load npf trend", "timeout")
	assert.Equal(t, []string{EventToast}, c.events)
}

func TestNotificationRoutes(t *testing.T) {
	ns := NewNotificationService(10, nil)
	ns.Notify("Failed to load risk indicators", "boom")
	router := api.NewRouter(nil, "", ns.RegisterRoutes())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notifications", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success bool           `json:"success"`
		Data    []Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Failed to load risk indicators", body.Data[0].Title)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/notifications", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, ns.GetNotifications())
}
