package scan

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ScanCooldown is how long the camera takes to re-arm after a detection;
// repeats of the same raw code inside the window are dropped.
const ScanCooldown = time.Second

// Session is the state of one open scanning overlay: the accumulated
// selection plus the per-code debounce clock. All of it is discarded when the
// overlay closes.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	selection *Selection
	lastScan  map[string]time.Time
}

func newSession() *Session {
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		selection: NewSelection(),
		lastScan:  make(map[string]time.Time),
	}
}

func (s *Session) Selection() *Selection {
	return s.selection
}

// ShouldResolve reports whether a scan tick for rawValue may start a
// resolution, and records the tick. Repeats of the same raw payload within
// the cool-down window are dropped so an in-flight resolution is not
// re-entered.
func (s *Session) ShouldResolve(rawValue string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.lastScan[rawValue]; ok && now.Sub(last) < ScanCooldown {
		return false
	}
	s.lastScan[rawValue] = now
	return true
}

// Reset discards all session-scoped state.
func (s *Session) Reset() {
	s.mu.Lock()
	s.lastScan = make(map[string]time.Time)
	s.mu.Unlock()
	s.selection.Flush()
}

// SessionStore keeps the open scanning sessions by token.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Open creates a fresh session and registers it.
func (st *SessionStore) Open() *Session {
	s := newSession()
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Close deregisters the session and discards its state, so callbacks holding
// the stale handle cannot leak entries into a reopened session.
func (st *SessionStore) Close(id string) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if ok {
		s.Reset()
	}
}
