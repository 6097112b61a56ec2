package server

import "sync"

// Table is the process-wide session-id → session map: a
// mutex-guarded map with a plain Register/Get/Remove/Count shape.
type Table struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewTable() *Table {
	return &Table{sessions: make(map[string]*Session)}
}

// Register indexes s under id. Callers that already hold s.mu (when
// minting the id on the first offer) must pass the id directly rather
// than going through s.ID(), which would deadlock re-acquiring the
// same session's lock.
func (t *Table) Register(id string, s *Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[id] = s
}

func (t *Table) Get(id string) (*Session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sessions[id]
	return s, ok
}

func (t *Table) Remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, id)
}

func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}
