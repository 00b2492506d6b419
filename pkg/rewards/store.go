package rewards

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// SessionStore persists rewards sessions to a JSON file keyed by wallet
// address so restarts do not re-run the auth handshake.
type SessionStore struct {
	mu   sync.Mutex
	path string
}

// NewSessionStore creates a store backed by the given file path. An empty
// path disables persistence and every lookup misses.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// Get returns the cached session for an address, if any.
func (s *SessionStore) Get(address string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.load()
	if err != nil {
		return nil, false
	}
	session, ok := sessions[strings.ToLower(address)]
	if !ok || session.SessionID == "" {
		return nil, false
	}
	return session, true
}

// Put stores the session for an address and writes the file back.
func (s *SessionStore) Put(address string, session *Session) error {
	if s.path == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.load()
	if err != nil {
		sessions = map[string]*Session{}
	}
	sessions[strings.ToLower(address)] = session

	payload, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, payload, 0o600)
}

func (s *SessionStore) load() (map[string]*Session, error) {
	if s.path == "" {
		return map[string]*Session{}, nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*Session{}, nil
		}
		return nil, err
	}
	sessions := map[string]*Session{}
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}
