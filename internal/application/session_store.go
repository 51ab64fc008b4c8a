package application

import "sync"

// SessionStore keeps issued session tokens in memory. Sessions do not expire;
// they live until an explicit logout or a process restart.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Principal
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]Principal)}
}

// Put registers the principal under the given token.
func (s *SessionStore) Put(token string, principal Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = principal
}

// Get resolves a token to its principal.
func (s *SessionStore) Get(token string) (Principal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	principal, ok := s.sessions[token]
	return principal, ok
}

// Delete removes a token. Deleting an unknown token is a no-op.
func (s *SessionStore) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}
