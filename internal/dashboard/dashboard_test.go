package dashboard

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sseFrame struct {
	event string
	data  string
}

type stream struct {
	resp   *http.Response
	reader *bufio.Reader
	cancel context.CancelFunc
}

func subscribe(t *testing.T, srv *httptest.Server, id string) *stream {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	url := srv.URL + "/feed"
	if id != "" {
		url += "?id=" + id
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	s := &stream{resp: resp, reader: bufio.NewReader(resp.Body), cancel: cancel}
	t.Cleanup(func() {
		cancel()
		resp.Body.Close()
	})
	return s
}

func (s *stream) next() (sseFrame, error) {
	var f sseFrame
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return f, err
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			return f, nil
		case strings.HasPrefix(line, "event: "):
			f.event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			f.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func newHubServer(t *testing.T) (*Hub, *httptest.Server) {
	hub := NewHub(time.Hour)
	mux := http.NewServeMux()
	mux.HandleFunc("/feed", hub.Handle)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		hub.Stop()
		srv.Close()
	})
	return hub, srv
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ClientCount() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_ConnectAndBroadcast(t *testing.T) {
	hub, srv := newHubServer(t)
	s := subscribe(t, srv, "")
	assert.Equal(t, "text/event-stream", s.resp.Header.Get("Content-Type"))

	hello, err := s.next()
	require.NoError(t, err)
	assert.Equal(t, EventConnected, hello.event)
	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(hello.data), &payload))
	_, err = uuid.Parse(payload["id"])
	assert.NoError(t, err)

	assert.Equal(t, 1, hub.Broadcast(EventKPIRefresh, map[string]int{"total_cases": 4}))
	f, err := s.next()
	require.NoError(t, err)
	assert.Equal(t, EventKPIRefresh, f.event)
	assert.JSONEq(t, `{"total_cases":4}`, f.data)
}

func TestHub_ReconnectReplacesSubscription(t *testing.T) {
	hub, srv := newHubServer(t)
	id := uuid.NewString()

	first := subscribe(t, srv, id)
	_, err := first.next()
	require.NoError(t, err)

	second := subscribe(t, srv, id)
	hello, err := second.next()
	require.NoError(t, err)
	assert.Contains(t, hello.data, id)

	// the replaced stream is closed by the server
	_, err = first.next()
	assert.ErrorIs(t, err, io.EOF)

	waitForClients(t, hub, 1)
	assert.Equal(t, 1, hub.Broadcast(EventToast, "hello"))
	f, err := second.next()
	require.NoError(t, err)
	assert.Equal(t, EventToast, f.event)
}

func TestHub_MalformedIDGetsFreshSubscription(t *testing.T) {
	hub, srv := newHubServer(t)
	a := subscribe(t, srv, "not-a-uuid")
	b := subscribe(t, srv, "not-a-uuid")
	_, err := a.next()
	require.NoError(t, err)
	_, err = b.next()
	require.NoError(t, err)
	waitForClients(t, hub, 2)
}

func TestHub_DisconnectRemovesClient(t *testing.T) {
	hub, srv := newHubServer(t)
	s := subscribe(t, srv, "")
	_, err := s.next()
	require.NoError(t, err)
	waitForClients(t, hub, 1)

	s.cancel()
	waitForClients(t, hub, 0)
	assert.Equal(t, 0, hub.Broadcast(EventPing, nil))
}

func TestHub_StopClosesStreams(t *testing.T) {
	hub, srv := newHubServer(t)
	s := subscribe(t, srv, "")
	_, err := s.next()
	require.NoError(t, err)

	require.NoError(t, hub.Stop())
	_, err = s.next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 0, hub.ClientCount())
	assert.NoError(t, hub.Stop())
}

func TestDecodeChange(t *testing.T) {
	ev, err := DecodeChange(`{"event":"insert","record":{"transaction_id":7,"amount":150.5}}`)
	require.NoError(t, err)
	assert.Equal(t, "INSERT", ev.Event)
	assert.JSONEq(t, `{"transaction_id":7,"amount":150.5}`, string(ev.Record))

	ev, err = DecodeChange(`{"event":"UPDATE"}`)
	require.NoError(t, err)
	assert.Equal(t, "null", string(ev.Record))

	_, err = DecodeChange(`{"record":{}}`)
	assert.Error(t, err)
	_, err = DecodeChange(`not json`)
	assert.Error(t, err)
}

type capture struct {
	mu     sync.Mutex
	events []string
	data   []interface{}
}

func (c *capture) Broadcast(event string, data interface{}) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	c.data = append(c.data, data)
	return 1
}

func TestFeedService_Handle(t *testing.T) {
	c := &capture{}
	f := NewFeedService(nil, "", c)
	assert.Equal(t, "transactions_changes", f.channel)

	f.handle(nil)
	f.handle(&pq.Notification{Channel: f.channel, Extra: `garbage`})
	f.handle(&pq.Notification{Channel: f.channel, Extra: `{"event":"INSERT","record":{"transaction_id":1}}`})

	require.Equal(t, []string{EventTransaction}, c.events)
	ev := c.data[0].(ChangeEvent)
	assert.Equal(t, "INSERT", ev.Event)

	require.NoError(t, f.Stop())
}

func TestFeedService_Config(t *testing.T) {
	f := NewFeedService(map[string]interface{}{"channel": "txn_feed", "ping_interval": "5s"}, "postgres://x", nil)
	assert.Equal(t, "txn_feed", f.channel)
	assert.Equal(t, 5*time.Second, f.pingEvery)
	assert.Equal(t, 10*time.Second, f.minBackoff)
	assert.Equal(t, "feed", f.Name())
}

func TestFeedService_StartDoesNotWaitForDatabase(t *testing.T) {
	f := NewFeedService(map[string]interface{}{"min_reconnect": "50ms", "max_reconnect": "100ms"},
		"postgres://u:p@127.0.0.1:1/db?sslmode=disable", nil)

	started := make(chan error, 1)
	go func() { started <- f.Start() }()
	select {
	case err := <-started:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start blocked on an unreachable database")
	}

	stopped := make(chan error, 1)
	go func() { stopped <- f.Stop() }()
	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked after Start")
	}
	assert.NoError(t, f.Stop())
}
