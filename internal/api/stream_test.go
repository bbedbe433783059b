package api

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/searchbook/internal/screen/home"
)

type frame struct {
	event string
	data  string
}

// readFrames parses the SSE frames of body until it ends.
func readFrames(body *bufio.Scanner) <-chan frame {
	frames := make(chan frame, 64)
	go func() {
		defer close(frames)
		var current frame
		for body.Scan() {
			line := body.Text()
			switch {
			case strings.HasPrefix(line, "event: "):
				current.event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				current.data = strings.TrimPrefix(line, "data: ")
			case line == "":
				frames <- current
				current = frame{}
			}
		}
	}()
	return frames
}

func nextFrame(t *testing.T, frames <-chan frame, event string) frame {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case f, ok := <-frames:
			require.True(t, ok, "stream ended before %q", event)
			if f.event == event {
				return f
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", event)
		}
	}
}

func TestStream_StatesAndEventsOfSession(t *testing.T) {
	ts := setupTestServer(t, Options{})
	srv := httptest.NewServer(ts)
	defer srv.Close()

	info, err := ts.sessions.Open(ScreenHome)
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/v1/screens/" + info.ID + "/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	frames := readFrames(bufio.NewScanner(resp.Body))
	nextFrame(t, frames, "connected")
	snapshot := nextFrame(t, frames, "state")
	assert.Contains(t, snapshot.data, `"screen":"home"`)

	require.NoError(t, ts.sessions.Process(info.ID, IntentRequest{Type: IntentSearch, Term: "go"}))

	type stateData struct {
		Data struct {
			State home.ViewState `json:"state"`
		} `json:"data"`
		SessionID string `json:"session_id"`
	}
	for {
		var got stateData
		require.NoError(t, json.Unmarshal([]byte(nextFrame(t, frames, "state").data), &got))
		assert.Equal(t, info.ID, got.SessionID)
		if len(got.Data.State.Books) == 20 {
			assert.Equal(t, "go", got.Data.State.SearchTerm)
			break
		}
	}

	require.NoError(t, ts.sessions.Close(info.ID))
	nextFrame(t, frames, "session.closed")
}

func TestStream_OtherSessionsAreFiltered(t *testing.T) {
	ts := setupTestServer(t, Options{})
	srv := httptest.NewServer(ts)
	defer srv.Close()

	watched, err := ts.sessions.Open(ScreenHome)
	require.NoError(t, err)
	other, err := ts.sessions.Open(ScreenHome)
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/v1/screens/" + watched.ID + "/stream")
	require.NoError(t, err)
	defer resp.Body.Close()

	frames := readFrames(bufio.NewScanner(resp.Body))
	nextFrame(t, frames, "connected")
	nextFrame(t, frames, "state")

	require.NoError(t, ts.sessions.Process(other.ID, IntentRequest{Type: IntentSearch, Term: "go"}))
	require.Eventually(t, func() bool {
		return len(ts.books.Searches()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, ts.sessions.Close(other.ID))
	require.NoError(t, ts.sessions.Close(watched.ID))

	// Only the watched session's close reaches this client.
	f := nextFrame(t, frames, "session.closed")
	assert.Contains(t, f.data, watched.ID)
	assert.NotContains(t, f.data, other.ID)
}

func TestStream_UnknownSession(t *testing.T) {
	ts := setupTestServer(t, Options{})
	srv := httptest.NewServer(ts)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/screens/scr-missing/stream")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
