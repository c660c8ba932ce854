// Package session keeps the UI state of each browser session in memory.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/de-tools/alm-console/pkg/chat"
	"github.com/de-tools/alm-console/pkg/models/api"
	"github.com/de-tools/alm-console/pkg/models/domain"
	"github.com/de-tools/alm-console/pkg/upload"
	"github.com/google/uuid"
)

const (
	DefaultTTL = 8 * time.Hour

	// CookieName carries the session id in the browser.
	CookieName = "alm_session"
)

// State is everything the screen used to keep in page globals.
type State struct {
	ID      string
	Uploads *upload.Tracker
	Chat    *chat.Conversation

	mu           sync.Mutex
	phase        domain.Phase
	results      *api.AnalysisResults
	contextReady bool
	lastSeen     time.Time
}

func newState(id string, mode domain.AcquisitionMode, now time.Time) *State {
	return &State{
		ID:       id,
		Uploads:  upload.NewTracker(mode),
		Chat:     chat.NewConversation(),
		phase:    domain.PhaseIdle,
		lastSeen: now,
	}
}

func (s *State) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Begin moves the session to loading unless an analysis is already running.
func (s *State) Begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == domain.PhaseLoading {
		return false
	}
	s.phase = domain.PhaseLoading
	return true
}

func (s *State) Succeed(results *api.AnalysisResults, contextReady bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = domain.PhaseSuccess
	s.results = results
	s.contextReady = contextReady
}

func (s *State) Fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = domain.PhaseError
	s.results = nil
	s.contextReady = false
}

// Results returns the payload of the last analysis when it succeeded.
func (s *State) Results() (*api.AnalysisResults, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results, s.results != nil
}

func (s *State) ContextReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contextReady
}

func (s *State) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *State) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

type Store struct {
	mu       sync.Mutex
	sessions map[string]*State
	mode     domain.AcquisitionMode
	ttl      time.Duration
	now      func() time.Time
}

func NewStore(mode domain.AcquisitionMode, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		sessions: make(map[string]*State),
		mode:     mode,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the session for id, creating a fresh one when id is unknown or expired.
func (st *Store) Get(id string) *State {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	if s, ok := st.sessions[id]; ok && s.idleSince(now) < st.ttl {
		s.touch(now)
		return s
	}

	s := newState(uuid.NewString(), st.mode, now)
	st.sessions[s.ID] = s
	delete(st.sessions, id)
	return s
}

func (st *Store) Drop(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Evict removes idle sessions and returns how many were dropped.
func (st *Store) Evict() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	n := 0
	for id, s := range st.sessions {
		if s.idleSince(now) >= st.ttl {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Run evicts idle sessions every interval until ctx is done.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Evict()
		}
	}
}

type stateKey struct{}

func WithState(ctx context.Context, s *State) context.Context {
	return context.WithValue(ctx, stateKey{}, s)
}

func FromContext(ctx context.Context) (*State, bool) {
	s, ok := ctx.Value(stateKey{}).(*State)
	return s, ok
}
