// Package sse streams screen sessions to clients as Server-Sent Events.
package sse

import (
	"time"
)

// The driver is headless: clients send intents over plain requests and watch
// the resulting states and events here.

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventState carries a new view state of a session.
	EventState EventType = "state"
	// EventScreen carries a one-shot screen event of a session.
	EventScreen EventType = "event"
	// EventSessionClosed tells the clients of a session that it is gone.
	EventSessionClosed EventType = "session.closed"
	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// SessionID restricts delivery to the clients of one session.
	// Empty means every client.
	SessionID string `json:"session_id,omitempty"`
}

// StateEventData is the data payload for state events.
type StateEventData struct {
	Screen string `json:"screen"`
	State  any    `json:"state"`
}

// ScreenEventData is the data payload for screen events.
type ScreenEventData struct {
	Screen  string `json:"screen"`
	Name    string `json:"name"`
	Payload any    `json:"payload,omitempty"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewStateEvent creates a state event for a session.
func NewStateEvent(sessionID, screen string, state any) Event {
	return Event{
		Type:      EventState,
		Data:      StateEventData{Screen: screen, State: state},
		SessionID: sessionID,
		Timestamp: time.Now(),
	}
}

// NewScreenEvent creates a screen event for a session.
func NewScreenEvent(sessionID, screen, name string, payload any) Event {
	return Event{
		Type:      EventScreen,
		Data:      ScreenEventData{Screen: screen, Name: name, Payload: payload},
		SessionID: sessionID,
		Timestamp: time.Now(),
	}
}

// NewSessionClosedEvent creates a session.closed event.
func NewSessionClosedEvent(sessionID string) Event {
	return Event{
		Type:      EventSessionClosed,
		Data:      map[string]string{"session_id": sessionID},
		SessionID: sessionID,
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type: EventHeartbeat,
		Data: HeartbeatEventData{
			ServerTime: time.Now(),
		},
		Timestamp: time.Now(),
	}
}
