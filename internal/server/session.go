package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/pdf-markup/internal/extract"
	"github.com/joseph-ayodele/pdf-markup/internal/llm"
)

// Session is the transient per-upload state the page works against. The
// uploaded bytes, hash and extraction are written once before Put; the plan
// and output change as the user iterates and are guarded by mu.
type Session struct {
	ID        uuid.UUID
	Filename  string
	Data      []byte
	Hash      string
	Doc       *extract.Document
	CreatedAt time.Time

	mu          sync.Mutex
	lastSeen    time.Time
	instruction string
	plan        *llm.EditPlan
	output      []byte
}

// SetPlan stores the latest proposal. Output from an earlier plan is
// discarded so a download can never mix plans.
func (s *Session) SetPlan(instruction string, plan *llm.EditPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instruction = instruction
	s.plan = plan
	s.output = nil
}

// PlanState returns the stored instruction and plan, nil before any plan.
func (s *Session) PlanState() (string, *llm.EditPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.instruction, s.plan
}

func (s *Session) SetOutput(out []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = out
}

func (s *Session) Output() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.output
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) expired(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen) > ttl
}

// SessionStore holds live sessions in memory, the only state that survives
// between requests. A session expires TTL after its last use.
type SessionStore struct {
	ttl time.Duration
	log *slog.Logger

	mu   sync.RWMutex
	byID map[uuid.UUID]*Session
}

func NewSessionStore(ttl time.Duration, log *slog.Logger) *SessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &SessionStore{ttl: ttl, log: log, byID: make(map[uuid.UUID]*Session)}
}

// Put registers a session, assigning its ID and timestamps.
func (st *SessionStore) Put(s *Session) {
	now := time.Now()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = now
	s.lastSeen = now
	st.mu.Lock()
	st.byID[s.ID] = s
	st.mu.Unlock()
}

// Get returns a live session and refreshes its TTL. An expired session is
// dropped on access as if it never existed.
func (st *SessionStore) Get(id uuid.UUID) (*Session, bool) {
	now := time.Now()
	st.mu.RLock()
	s, ok := st.byID[id]
	st.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.expired(now, st.ttl) {
		st.Delete(id)
		return nil, false
	}
	s.touch(now)
	return s, true
}

func (st *SessionStore) Delete(id uuid.UUID) {
	st.mu.Lock()
	delete(st.byID, id)
	st.mu.Unlock()
}

func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.byID)
}

// Sweep drops every expired session and reports how many went.
func (st *SessionStore) Sweep() int {
	now := time.Now()
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for id, s := range st.byID {
		if s.expired(now, st.ttl) {
			delete(st.byID, id)
			n++
		}
	}
	return n
}

// Start runs the sweep loop in the background until ctx is done.
func (st *SessionStore) Start(ctx context.Context) {
	interval := st.ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := st.Sweep(); n > 0 {
					st.log.Info("session.sweep", "expired", n, "live", st.Len())
				}
			}
		}
	}()
}
