// AngelaMos | 2026
// hub_test.go

package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	mu     sync.Mutex
	active map[Collection]int
}

func newStaticSource() *staticSource {
	return &staticSource{active: make(map[Collection]int)}
}

func (s *staticSource) Subscribe(c Collection, fn func(Frame)) func() {
	s.mu.Lock()
	s.active[c]++
	s.mu.Unlock()

	fn(Frame{Collection: c, Items: []string{string(c) + "-1"}, Version: 1})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.active[c]--
			s.mu.Unlock()
		})
	}
}

func (s *staticSource) subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.active {
		n += v
	}
	return n
}

type wireFrame struct {
	Collection Collection      `json:"collection"`
	Items      json.RawMessage `json:"items"`
	Version    uint64          `json:"version"`
}

func wsURL(srv *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/?" + query
}

func TestParseCollections(t *testing.T) {
	cases := []struct {
		raw  string
		want []Collection
		ok   bool
	}{
		{"", LiveCollections, true},
		{"  ", LiveCollections, true},
		{"records", []Collection{Records}, true},
		{"folders, records,folders", []Collection{Folders, Records}, true},
		{"users", nil, false},
		{"records,bogus", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got, ok := ParseCollections(tc.raw)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHub_StreamsSnapshotsUntilShutdown(t *testing.T) {
	source := newStaticSource()
	hub := NewHub(source, HubConfig{})
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "collections=records,shelves"), nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	got := map[Collection]wireFrame{}
	for range 2 {
		var f wireFrame
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, conn.ReadJSON(&f))
		got[f.Collection] = f
	}
	require.Contains(t, got, Records)
	require.Contains(t, got, Shelves)
	assert.JSONEq(t, `["records-1"]`, string(got[Records].Items))
	assert.Equal(t, uint64(1), got[Shelves].Version)
	assert.Equal(t, 1, hub.Clients())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, hub.Shutdown(ctx))

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)

	assert.Eventually(t, func() bool {
		return hub.Clients() == 0 && source.subscribers() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_RejectsUnknownCollections(t *testing.T) {
	hub := NewHub(newStaticSource(), HubConfig{})
	srv := httptest.NewServer(hub)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/?collections=users")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHub_RefusesClientsAfterShutdown(t *testing.T) {
	hub := NewHub(newStaticSource(), HubConfig{})
	require.NoError(t, hub.Shutdown(context.Background()))

	srv := httptest.NewServer(hub)
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHub_CheckOrigin(t *testing.T) {
	hub := NewHub(newStaticSource(), HubConfig{AllowedOrigins: []string{"https://files.example.com"}})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.True(t, hub.checkOrigin(req))

	req.Header.Set("Origin", "https://files.example.com")
	assert.True(t, hub.checkOrigin(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, hub.checkOrigin(req))
}

func TestClient_SlowConsumerIsDropped(t *testing.T) {
	c := &client{send: make(chan Frame, 1), done: make(chan struct{})}

	c.offer(Frame{Collection: Records, Version: 1})
	c.offer(Frame{Collection: Records, Version: 2})

	select {
	case <-c.done:
	default:
		t.Fatal("client not closed after its buffer filled")
	}
	assert.Len(t, c.send, 1)
}

func TestLocalBus(t *testing.T) {
	bus := NewLocalBus()
	ctx, cancel := context.WithCancel(context.Background())

	events, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, Folders))

	select {
	case ev := <-events:
		assert.Equal(t, Folders, ev.Collection)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}
