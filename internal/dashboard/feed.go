package dashboard

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"KastleBackOffice/internal/config"
	"KastleBackOffice/internal/logger"
	"KastleBackOffice/internal/serviceiface"

	"github.com/lib/pq"
)

// ChangeEvent is the NOTIFY payload written by the transactions trigger.
type ChangeEvent struct {
	Event  string          `json:"event"`
	Record json.RawMessage `json:"record"`
}

func DecodeChange(payload string) (ChangeEvent, error) {
	var ev ChangeEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return ChangeEvent{}, fmt.Errorf("decode change: %w", err)
	}
	ev.Event = strings.ToUpper(strings.TrimSpace(ev.Event))
	if ev.Event == "" {
		return ChangeEvent{}, fmt.Errorf("decode change: missing event")
	}
	if len(ev.Record) == 0 {
		ev.Record = json.RawMessage("null")
	}
	return ev, nil
}

// FeedService relays Postgres notifications on the transactions channel to
// the SSE hub.
type FeedService struct {
	dsn         string
	channel     string
	minBackoff  time.Duration
	maxBackoff  time.Duration
	pingEvery   time.Duration
	broadcaster Broadcaster

	listener *pq.Listener
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewFeedService(cfg map[string]interface{}, dsn string, b Broadcaster) *FeedService {
	return &FeedService{
		dsn:         dsn,
		channel:     serviceiface.StringFromConfig(cfg, "channel", config.TransactionsChannel),
		minBackoff:  serviceiface.DurationFromConfig(cfg, "min_reconnect", 10*time.Second),
		maxBackoff:  serviceiface.DurationFromConfig(cfg, "max_reconnect", time.Minute),
		pingEvery:   serviceiface.DurationFromConfig(cfg, "ping_interval", 90*time.Second),
		broadcaster: b,
		stopCh:      make(chan struct{}),
	}
}

func (f *FeedService) Name() string { return "feed" }

// Start returns without waiting for the database. The listener keeps
// reconnecting in the background until Stop.
func (f *FeedService) Start() error {
	f.listener = pq.NewListener(f.dsn, f.minBackoff, f.maxBackoff, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Printf("[FEED] listener event %d: %v", ev, err)
		}
	})
	f.wg.Add(2)
	go f.listen()
	go f.loop()
	return nil
}

// listen blocks until the first connection is up or the listener is closed.
func (f *FeedService) listen() {
	defer f.wg.Done()
	if err := f.listener.Listen(f.channel); err != nil {
		select {
		case <-f.stopCh:
		default:
			log.Printf("[FEED] listen %s: %v", f.channel, err)
		}
		return
	}
	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit("Transaction feed listening on " + f.channel)
	}
}

func (f *FeedService) loop() {
	defer f.wg.Done()
	ticker := time.NewTicker(f.pingEvery)
	defer ticker.Stop()
	for {
		select {
		case n, ok := <-f.listener.Notify:
			if !ok {
				return
			}
			f.handle(n)
		case <-ticker.C:
			go func() {
				if err := f.listener.Ping(); err != nil {
					log.Printf("[FEED] ping: %v", err)
				}
			}()
		case <-f.stopCh:
			return
		}
	}
}

// handle broadcasts one notification. A nil notification follows a
// reconnect, when anything sent in between is lost.
func (f *FeedService) handle(n *pq.Notification) {
	if n == nil {
		log.Println("[FEED] listener reconnected, notifications may have been missed")
		return
	}
	ev, err := DecodeChange(n.Extra)
	if err != nil {
		log.Printf("[FEED] %s: %v", n.Channel, err)
		return
	}
	if f.broadcaster != nil {
		f.broadcaster.Broadcast(EventTransaction, ev)
	}
}

func (f *FeedService) Stop() error {
	var err error
	f.stopOnce.Do(func() {
		close(f.stopCh)
		if f.listener != nil {
			// Close also wakes a Listen still waiting for its first connection.
			err = f.listener.Close()
		}
		f.wg.Wait()
	})
	return err
}
