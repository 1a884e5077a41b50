// Package session gives every UI session its own cart, report state and selected client.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"salesdesk/cart"
	"salesdesk/logger"
	"salesdesk/report"
)

// Session is the state owned by one UI session
type Session struct {
	ID         string
	Cart       *cart.Cart
	Aggregator *report.Aggregator

	mu       sync.Mutex
	clientID string
	lastSeen time.Time
}

// ClientID returns the selected client, empty if none
func (s *Session) ClientID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientID
}

// SetClientID selects the client the cart will be sold to
func (s *Session) SetClientID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientID = strings.TrimSpace(id)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// Factory builds the per-session components
type Factory struct {
	NewCart       func() *cart.Cart
	NewAggregator func() *report.Aggregator
}

// Store keeps sessions in memory and evicts idle ones
type Store struct {
	factory Factory
	idle    time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore creates a Store. Sessions idle for longer than idle are swept.
func NewStore(factory Factory, idle time.Duration) *Store {
	return &Store{
		factory:  factory,
		idle:     idle,
		now:      time.Now,
		sessions: map[string]*Session{},
	}
}

// Get returns an existing session and marks it as used
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	st.mu.Unlock()
	if ok {
		s.touch(st.now())
	}
	return s, ok
}

// GetOrCreate returns the session with id, creating a new one when id is
// empty or unknown. created reports whether a new session was made.
func (st *Store) GetOrCreate(id string) (s *Session, created bool) {
	if id != "" {
		if s, ok := st.Get(id); ok {
			return s, false
		}
	}

	s = &Session{
		ID:         uuid.NewString(),
		Cart:       st.factory.NewCart(),
		Aggregator: st.factory.NewAggregator(),
		lastSeen:   st.now(),
	}
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()

	logger.L().Debugw("🔑 Session: created", "session", s.ID)
	return s, true
}

// RevalidateAll re-clamps every live cart against stocks and returns how
// many lines were dropped because their product ran out or disappeared.
func (st *Store) RevalidateAll(stocks cart.StockSource) int {
	st.mu.Lock()
	live := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		live = append(live, s)
	}
	st.mu.Unlock()

	dropped := 0
	for _, s := range live {
		if removed := s.Cart.Revalidate(stocks); len(removed) > 0 {
			dropped += len(removed)
			logger.L().Infow("🛒 Session: cart lines dropped after stock refresh", "session", s.ID, "products", removed)
		}
	}
	return dropped
}

// Len returns the number of live sessions
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep removes sessions idle for longer than the idle timeout and returns how many
func (st *Store) Sweep() int {
	if st.idle <= 0 {
		return 0
	}
	now := st.now()

	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for id, s := range st.sessions {
		if s.idleSince(now) > st.idle {
			delete(st.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		logger.L().Infow("🧹 Session: swept idle sessions", "removed", removed, "remaining", len(st.sessions))
	}
	return removed
}

// SweepEvery sweeps on a ticker until ctx is done
func (st *Store) SweepEvery(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Sweep()
		}
	}
}
