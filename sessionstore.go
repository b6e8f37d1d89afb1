package mcqgen

import (
	"sync"

	"github.com/google/uuid"
)

// SessionStore keeps one quiz Session per browser session id. When full, the
// least recently used session is dropped.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*storedSession
	order    []string // least recently used first
	max      int
}

type storedSession struct {
	mu      sync.Mutex
	session *Session
}

// NewSessionStore creates a store holding at most max sessions (0 means unbounded)
func NewSessionStore(max int) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*storedSession),
		order:    make([]string, 0),
		max:      max,
	}
}

// NewSessionID returns a fresh random session id
func NewSessionID() string {
	return uuid.NewString()
}

// With runs fn against the session for id, creating it if needed. Calls for the
// same id run one at a time.
func (ss *SessionStore) With(id string, fn func(*Session) error) error {
	entry := ss.acquire(id)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return fn(entry.session)
}

func (ss *SessionStore) acquire(id string) *storedSession {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if entry, ok := ss.sessions[id]; ok {
		ss.touch(id)
		return entry
	}

	if ss.max > 0 {
		for len(ss.order) >= ss.max {
			oldest := ss.order[0]
			ss.order = ss.order[1:]
			delete(ss.sessions, oldest)
			VerboseLog("Evicted quiz session %s", oldest)
		}
	}

	entry := &storedSession{session: NewSession()}
	ss.sessions[id] = entry
	ss.order = append(ss.order, id)
	return entry
}

func (ss *SessionStore) touch(id string) {
	for i, existing := range ss.order {
		if existing == id {
			ss.order = append(ss.order[:i], ss.order[i+1:]...)
			break
		}
	}
	ss.order = append(ss.order, id)
}

// Has reports whether a session exists for id
func (ss *SessionStore) Has(id string) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	_, ok := ss.sessions[id]
	return ok
}

// Remove drops the session for id
func (ss *SessionStore) Remove(id string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	delete(ss.sessions, id)
	for i, existing := range ss.order {
		if existing == id {
			ss.order = append(ss.order[:i], ss.order[i+1:]...)
			break
		}
	}
}

// Size returns the number of sessions held
func (ss *SessionStore) Size() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.sessions)
}
