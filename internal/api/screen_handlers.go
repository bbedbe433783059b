package api

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

func (s *Server) registerScreenRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "openScreen",
		Method:        http.MethodPost,
		Path:          "/api/v1/screens",
		Summary:       "Open screen session",
		Description:   "Starts a view-model for a screen. Its states and events stream from /api/v1/screens/{id}/stream.",
		Tags:          []string{"Screens"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   huma.Middlewares{s.rateLimit},
	}, s.handleOpenScreen)

	huma.Register(s.api, huma.Operation{
		OperationID: "listScreens",
		Method:      http.MethodGet,
		Path:        "/api/v1/screens",
		Summary:     "List screen sessions",
		Tags:        []string{"Screens"},
	}, s.handleListScreens)

	huma.Register(s.api, huma.Operation{
		OperationID:   "sendIntent",
		Method:        http.MethodPost,
		Path:          "/api/v1/screens/{id}/intents",
		Summary:       "Send intent",
		Description:   "Hands a user action to the view-model of a session. The outcome shows up on the stream.",
		Tags:          []string{"Screens"},
		DefaultStatus: http.StatusAccepted,
		Middlewares:   huma.Middlewares{s.rateLimit},
	}, s.handleSendIntent)

	huma.Register(s.api, huma.Operation{
		OperationID: "getScreenState",
		Method:      http.MethodGet,
		Path:        "/api/v1/screens/{id}/state",
		Summary:     "Get view state",
		Tags:        []string{"Screens"},
	}, s.handleGetState)

	huma.Register(s.api, huma.Operation{
		OperationID:   "closeScreen",
		Method:        http.MethodDelete,
		Path:          "/api/v1/screens/{id}",
		Summary:       "Close screen session",
		Description:   "Disposes the view-model and every pipeline it runs.",
		Tags:          []string{"Screens"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleCloseScreen)

	// SSE stays a plain handler: huma operations buffer their response.
	s.router.Get("/api/v1/screens/{id}/stream", s.handleStream)
}

// OpenScreenRequest is the body of openScreen.
type OpenScreenRequest struct {
	Screen string `json:"screen" validate:"required,oneof=home detail favorites" doc:"Screen to open: home, detail or favorites"`
}

// OpenScreenInput wraps the openScreen body for Huma.
type OpenScreenInput struct {
	Body OpenScreenRequest
}

// SessionOutput wraps a session description for Huma.
type SessionOutput struct {
	Body SessionInfo
}

// SessionListOutput wraps the open sessions for Huma.
type SessionListOutput struct {
	Body []SessionInfo
}

// SessionPath identifies a session in the URL.
type SessionPath struct {
	ID string `path:"id" doc:"Session ID"`
}

// IntentInput wraps an intent for Huma.
type IntentInput struct {
	SessionPath
	Body IntentRequest
}

// IntentAccepted acknowledges a queued intent.
type IntentAccepted struct {
	SessionID string `json:"session_id" doc:"Session ID"`
	Type      string `json:"type" doc:"Intent type"`
}

// IntentOutput wraps the acknowledgement for Huma.
type IntentOutput struct {
	Body IntentAccepted
}

// StateResponse is the current view state of a session.
type StateResponse struct {
	SessionID string `json:"session_id" doc:"Session ID"`
	Screen    string `json:"screen" doc:"Screen driven by the session"`
	State     any    `json:"state" doc:"View state of the screen"`
}

// StateOutput wraps the view state for Huma.
type StateOutput struct {
	Body StateResponse
}

func (s *Server) handleOpenScreen(_ context.Context, input *OpenScreenInput) (*SessionOutput, error) {
	if err := s.validator.Validate(&input.Body); err != nil {
		return nil, err
	}

	info, err := s.sessions.Open(input.Body.Screen)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: info}, nil
}

func (s *Server) handleListScreens(_ context.Context, _ *struct{}) (*SessionListOutput, error) {
	sessions := slices.SortedFunc(s.sessions.All(), func(a, b SessionInfo) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if sessions == nil {
		sessions = []SessionInfo{}
	}
	return &SessionListOutput{Body: sessions}, nil
}

func (s *Server) handleSendIntent(_ context.Context, input *IntentInput) (*IntentOutput, error) {
	if err := s.validator.Validate(&input.Body); err != nil {
		return nil, err
	}

	if err := s.sessions.Process(input.ID, input.Body); err != nil {
		return nil, err
	}

	s.logger.Debug("intent accepted",
		"session_id", input.ID,
		"type", input.Body.Type)
	return &IntentOutput{Body: IntentAccepted{SessionID: input.ID, Type: input.Body.Type}}, nil
}

func (s *Server) handleGetState(_ context.Context, input *SessionPath) (*StateOutput, error) {
	info, err := s.sessions.Info(input.ID)
	if err != nil {
		return nil, err
	}
	state, err := s.sessions.State(input.ID)
	if err != nil {
		return nil, err
	}
	return &StateOutput{Body: StateResponse{SessionID: info.ID, Screen: info.Screen, State: state}}, nil
}

func (s *Server) handleCloseScreen(_ context.Context, input *SessionPath) (*struct{}, error) {
	if err := s.sessions.Close(input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

// handleStream streams a session as Server-Sent Events.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if _, err := s.sessions.Info(sessionID); err != nil {
		writeError(w, http.StatusNotFound, CodeNotFound, err.Error(), s.logger)
		return
	}
	s.sseHandler.Serve(w, r, sessionID)
}
