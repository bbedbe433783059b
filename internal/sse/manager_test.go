package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	t.Cleanup(func() {
		cancel()
		_ = m.Shutdown(context.Background())
	})
	return m
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case e := <-c.EventChan:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestManager_FiltersBySession(t *testing.T) {
	m := startManager(t)

	a, err := m.Connect("scr-a")
	require.NoError(t, err)
	b, err := m.Connect("scr-b")
	require.NoError(t, err)
	assert.Equal(t, 2, m.ClientCount())
	assert.True(t, strings.HasPrefix(a.ID, "cli-"))

	m.Emit(NewStateEvent("scr-a", "home", map[string]int{"n": 1}))
	m.Emit(NewScreenEvent("scr-b", "home", "load_error", nil))

	got := receive(t, a)
	assert.Equal(t, EventState, got.Type)
	assert.Equal(t, "scr-a", got.SessionID)

	got = receive(t, b)
	assert.Equal(t, EventScreen, got.Type)

	select {
	case e := <-a.EventChan:
		t.Fatalf("unexpected event for a: %v", e.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManager_HeartbeatReachesEveryClient(t *testing.T) {
	m := NewManager(nil)
	m.SetHeartbeatInterval(20 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx)

	a, err := m.Connect("scr-a")
	require.NoError(t, err)
	b, err := m.Connect("scr-b")
	require.NoError(t, err)

	assert.Equal(t, EventHeartbeat, receive(t, a).Type)
	assert.Equal(t, EventHeartbeat, receive(t, b).Type)
}

func TestManager_Disconnect(t *testing.T) {
	m := startManager(t)

	c, err := m.Connect("scr-a")
	require.NoError(t, err)
	m.Disconnect(c.ID)
	m.Disconnect(c.ID)

	assert.Equal(t, 0, m.ClientCount())
	_, open := <-c.Done
	assert.False(t, open)
}

func TestManager_ShutdownClosesClients(t *testing.T) {
	m := NewManager(nil)
	go m.Start(context.Background())

	c, err := m.Connect("scr-a")
	require.NoError(t, err)

	require.NoError(t, m.Shutdown(context.Background()))
	require.NoError(t, m.Shutdown(context.Background()))

	select {
	case <-c.Done:
	case <-time.After(time.Second):
		t.Fatal("client not closed")
	}
	assert.Equal(t, 0, m.ClientCount())

	// Dropped silently after shutdown.
	m.Emit(NewSessionClosedEvent("scr-a"))
}

func TestHandler_StreamsSnapshotThenEvents(t *testing.T) {
	m := startManager(t)
	h := NewHandler(m, func(sessionID string) (Event, bool) {
		return NewStateEvent(sessionID, "home", map[string]string{"search_term": "go"}), true
	}, nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Serve(w, r, "scr-a")
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 32)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if line := scanner.Text(); strings.HasPrefix(line, "event: ") {
				lines <- strings.TrimPrefix(line, "event: ")
			}
		}
		close(lines)
	}()

	next := func() string {
		select {
		case l := <-lines:
			return l
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for frame")
			return ""
		}
	}

	assert.Equal(t, "connected", next())
	assert.Equal(t, "state", next())

	require.Eventually(t, func() bool { return m.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	m.Emit(NewScreenEvent("scr-a", "home", "load_error", nil))
	assert.Equal(t, "event", next())

	m.Emit(NewSessionClosedEvent("scr-a"))
	assert.Equal(t, "session.closed", next())

	require.Eventually(t, func() bool { return m.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}
