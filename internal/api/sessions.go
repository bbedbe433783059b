package api

import (
	"context"
	"iter"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/listenupapp/searchbook/internal/id"
	"github.com/listenupapp/searchbook/internal/screen/detail"
	"github.com/listenupapp/searchbook/internal/screen/favorites"
	"github.com/listenupapp/searchbook/internal/screen/home"
	"github.com/listenupapp/searchbook/internal/sse"
)

// Screen names accepted when opening a session.
const (
	ScreenHome      = "home"
	ScreenDetail    = "detail"
	ScreenFavorites = "favorites"
)

// ViewModels builds a fresh view-model per screen session.
type ViewModels struct {
	Home      func() *home.ViewModel
	Detail    func() *detail.ViewModel
	Favorites func() *favorites.ViewModel
}

// Emitter receives the SSE events of every session.
type Emitter interface {
	Emit(event sse.Event)
}

// SessionInfo describes an open screen session.
type SessionInfo struct {
	ID        string    `json:"id" doc:"Session ID"`
	Screen    string    `json:"screen" doc:"Screen driven by the session"`
	CreatedAt time.Time `json:"created_at" doc:"When the session was opened"`
}

// session holds one view-model behind screen-agnostic closures.
type session struct {
	info    SessionInfo
	process func(IntentRequest) error
	state   func() any
	close   func()
}

// Sessions owns the open screen sessions.
type Sessions struct {
	viewModels ViewModels
	emitter    Emitter
	logger     *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewSessions creates an empty session registry.
func NewSessions(viewModels ViewModels, emitter Emitter, logger *slog.Logger) *Sessions {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sessions{
		viewModels: viewModels,
		emitter:    emitter,
		logger:     logger,
		sessions:   make(map[string]*session),
	}
}

// Open starts a view-model for screen and returns its session.
func (s *Sessions) Open(screen string) (SessionInfo, error) {
	sessionID, err := id.Generate(id.PrefixScreen)
	if err != nil {
		return SessionInfo{}, err
	}

	sess := &session{info: SessionInfo{ID: sessionID, Screen: screen, CreatedAt: time.Now()}}
	switch screen {
	case ScreenHome:
		attach(sess, s.viewModels.Home(), homeIntent, homeEvent, s.emitter)
	case ScreenDetail:
		attach(sess, s.viewModels.Detail(), detailIntent, detailEvent, s.emitter)
	case ScreenFavorites:
		attach(sess, s.viewModels.Favorites(), favoritesIntent, favoritesEvent, s.emitter)
	default:
		return SessionInfo{}, invalid("screen", "must be one of: home detail favorites")
	}

	s.mu.Lock()
	s.sessions[sessionID] = sess
	total := len(s.sessions)
	s.mu.Unlock()

	s.logger.Info("screen session opened",
		slog.String("session_id", sessionID),
		slog.String("screen", screen),
		slog.Int("total_sessions", total))
	return sess.info, nil
}

// Process hands an intent to the view-model of a session.
func (s *Sessions) Process(sessionID string, req IntentRequest) error {
	sess, err := s.get(sessionID)
	if err != nil {
		return err
	}
	return sess.process(req)
}

// State returns the current view state of a session.
func (s *Sessions) State(sessionID string) (any, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.state(), nil
}

// Info returns the description of a session.
func (s *Sessions) Info(sessionID string) (SessionInfo, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return SessionInfo{}, err
	}
	return sess.info, nil
}

// Snapshot returns the current state of a session as an SSE event.
func (s *Sessions) Snapshot(sessionID string) (sse.Event, bool) {
	sess, err := s.get(sessionID)
	if err != nil {
		return sse.Event{}, false
	}
	return sse.NewStateEvent(sessionID, sess.info.Screen, sess.state()), true
}

// Close disposes the view-model of a session.
func (s *Sessions) Close(sessionID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	total := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	sess.close()
	s.emitter.Emit(sse.NewSessionClosedEvent(sessionID))

	s.logger.Info("screen session closed",
		slog.String("session_id", sessionID),
		slog.Duration("duration", time.Since(sess.info.CreatedAt)),
		slog.Int("total_sessions", total))
	return nil
}

// CloseAll disposes every session. Used during shutdown.
func (s *Sessions) CloseAll() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	for _, sess := range all {
		sess.close()
	}
	if len(all) > 0 {
		s.logger.Info("all screen sessions closed", slog.Int("count", len(all)))
	}
}

// All returns an iterator over the open sessions.
func (s *Sessions) All() iter.Seq[SessionInfo] {
	return func(yield func(SessionInfo) bool) {
		s.mu.RLock()
		sessions := maps.Clone(s.sessions)
		s.mu.RUnlock()

		for _, sess := range sessions {
			if !yield(sess.info) {
				return
			}
		}
	}
}

// Count returns the number of open sessions.
func (s *Sessions) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Sessions) get(sessionID string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// viewModel is the surface shared by the screen view-models.
type viewModel[I, S, E any] interface {
	Process(intent I)
	State() S
	States(ctx context.Context) <-chan S
	Events(ctx context.Context) <-chan E
	Close()
}

// attach binds vm to sess and forwards its states and events to emitter
// until the session closes.
func attach[I, S, E any](
	sess *session,
	vm viewModel[I, S, E],
	intent func(IntentRequest, S) (I, error),
	event func(E) (string, any),
	emitter Emitter,
) {
	ctx, cancel := context.WithCancel(context.Background())
	states := vm.States(ctx)
	events := vm.Events(ctx)

	var wg sync.WaitGroup
	wg.Go(func() {
		for state := range states {
			emitter.Emit(sse.NewStateEvent(sess.info.ID, sess.info.Screen, state))
		}
	})
	wg.Go(func() {
		for e := range events {
			name, payload := event(e)
			emitter.Emit(sse.NewScreenEvent(sess.info.ID, sess.info.Screen, name, payload))
		}
	})

	sess.process = func(req IntentRequest) error {
		in, err := intent(req, vm.State())
		if err != nil {
			return err
		}
		vm.Process(in)
		return nil
	}
	sess.state = func() any { return vm.State() }
	sess.close = func() {
		// Closing the view-model completes both streams after what is queued.
		vm.Close()
		wg.Wait()
		cancel()
	}
}
