package notification

import (
	"net/http"
	"sync"
	"time"

	"KastleBackOffice/api"
	"KastleBackOffice/internal/config"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const EventToast = "toast"

type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Title     string    `json:"title"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Broadcaster pushes each new notification to live views.
type Broadcaster interface {
	Broadcast(event string, data interface{}) int
}

// NotificationService keeps the most recent toasts, oldest dropped first.
type NotificationService struct {
	mu            sync.Mutex
	notifications []Notification
	max           int
	broadcaster   Broadcaster
	now           func() time.Time
}

// NewNotificationService uses config.MaxNotifications when limit is not positive.
func NewNotificationService(limit int, b Broadcaster) *NotificationService {
	if limit <= 0 {
		limit = config.MaxNotifications
	}
	return &NotificationService{
		notifications: make([]Notification, 0),
		max:           limit,
		broadcaster:   b,
		now:           time.Now,
	}
}

func (ns *NotificationService) AddNotification(level Level, title, detail string) Notification {
	n := Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Title:     title,
		Detail:    detail,
		CreatedAt: ns.now(),
	}
	ns.mu.Lock()
	ns.notifications = append(ns.notifications, n)
	if over := len(ns.notifications) - ns.max; over > 0 {
		ns.notifications = append([]Notification(nil), ns.notifications[over:]...)
	}
	ns.mu.Unlock()

	if ns.broadcaster != nil {
		ns.broadcaster.Broadcast(EventToast, n)
	}
	return n
}

// Notify records an error toast. It satisfies the services' Notifier.
func (ns *NotificationService) Notify(title, detail string) {
	ns.AddNotification(LevelError, title, detail)
}

// GetNotifications returns a copy, newest first.
func (ns *NotificationService) GetNotifications() []Notification {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	out := make([]Notification, len(ns.notifications))
	for i, n := range ns.notifications {
		out[len(out)-1-i] = n
	}
	return out
}

func (ns *NotificationService) ClearNotifications() {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.notifications = []Notification{}
}

func (ns *NotificationService) RegisterRoutes() api.RouteRegistrar {
	return func(r *mux.Router) {
		r.HandleFunc("/notifications", ns.handleList).Methods(http.MethodGet)
		r.HandleFunc("/notifications", ns.handleClear).Methods(http.MethodDelete)
	}
}

func (ns *NotificationService) handleList(w http.ResponseWriter, r *http.Request) {
	api.RespondWithData(w, ns.GetNotifications())
}

func (ns *NotificationService) handleClear(w http.ResponseWriter, r *http.Request) {
	ns.ClearNotifications()
	api.RespondWithData(w, []Notification{})
}
