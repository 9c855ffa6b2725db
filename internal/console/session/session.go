// Package session tracks the console's authentication state. The store is a
// small reducer: every transition goes through apply, so state and user can
// never disagree.
package session

import (
	"sync"

	"github.com/ecogate-dev/ecogate/internal/console/client"
)

// State represents the session lifecycle
type State int

const (
	// StateLoading means the initial session probe has not finished yet
	StateLoading State = iota
	StateAuthenticated
	StateUnauthenticated
)

// String returns a short label for the state
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Session is a snapshot of the current session state
type Session struct {
	State State
	User  *client.User
}

// API is the slice of the client the store needs. Narrowed for testability.
type API interface {
	IsAuthenticated() bool
	Login(email, password string) (*client.LoginResponse, error)
	Logout() bool
	Me() (*client.User, error)
}

type event int

const (
	eventResolved event = iota
	eventCleared
)

// Store holds the session state and serializes transitions
type Store struct {
	mu    sync.RWMutex
	api   API
	state State
	user  *client.User
}

// NewStore creates a session store in the loading state
func NewStore(api API) *Store {
	return &Store{api: api, state: StateLoading}
}

// apply is the single place state transitions happen
func (s *Store) apply(ev event, user *client.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev {
	case eventResolved:
		if user != nil {
			s.state = StateAuthenticated
			s.user = user
		} else {
			s.state = StateUnauthenticated
			s.user = nil
		}
	case eventCleared:
		s.state = StateUnauthenticated
		s.user = nil
	}
}

// Current returns a snapshot of the session
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Session{State: s.state, User: s.user}
}

// Init probes the server for an existing session. Any failure, including a
// transport error, resolves to unauthenticated; the probe never leaves the
// store in the loading state.
func (s *Store) Init() Session {
	if !s.api.IsAuthenticated() {
		s.apply(eventResolved, nil)
		return s.Current()
	}

	user, err := s.api.Me()
	if err != nil {
		s.apply(eventResolved, nil)
		return s.Current()
	}

	s.apply(eventResolved, user)
	return s.Current()
}

// Login authenticates and, on success, moves the store to authenticated
func (s *Store) Login(email, password string) (*client.User, error) {
	resp, err := s.api.Login(email, password)
	if err != nil {
		s.apply(eventResolved, nil)
		return nil, err
	}

	s.apply(eventResolved, resp.User)
	return resp.User, nil
}

// Logout ends the session. The server call is best effort: local state is
// cleared no matter what the server says.
func (s *Store) Logout() {
	s.api.Logout()
	s.apply(eventCleared, nil)
}

// SetUser replaces the cached user after a profile update
func (s *Store) SetUser(user *client.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAuthenticated {
		s.user = user
	}
}
