package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/andresuchdata/driveup/internal/workflow"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionCookie = "driveup_session"
	sessionMaxAge = 12 * time.Hour
)

type stateEntry struct {
	mu       sync.Mutex
	state    *workflow.State
	lastSeen time.Time
}

// StateStore keeps one workflow.State per browser session in memory.
// Actions within one session run one at a time; sessions never share state.
type StateStore struct {
	mu       sync.Mutex
	entries  map[string]*stateEntry
	newState func() *workflow.State
	now      func() time.Time
}

func NewStateStore(newState func() *workflow.State) *StateStore {
	return &StateStore{
		entries:  make(map[string]*stateEntry),
		newState: newState,
		now:      time.Now,
	}
}

// Acquire returns the caller's state, creating a session when the cookie is
// missing or unknown. The returned release func must be called when the
// action is done.
func (s *StateStore) Acquire(c *gin.Context) (*workflow.State, func()) {
	id, _ := c.Cookie(sessionCookie)

	s.mu.Lock()
	s.evictLocked()
	entry, ok := s.entries[id]
	if !ok {
		id = uuid.NewString()
		entry = &stateEntry{state: s.newState()}
		s.entries[id] = entry
	}
	entry.lastSeen = s.now()
	s.mu.Unlock()

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, id, int(sessionMaxAge.Seconds()), "/", "", false, true)

	entry.mu.Lock()
	return entry.state, entry.mu.Unlock
}

// Len reports the number of live sessions.
func (s *StateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *StateStore) evictLocked() {
	cutoff := s.now().Add(-sessionMaxAge)
	for id, entry := range s.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(s.entries, id)
		}
	}
}
