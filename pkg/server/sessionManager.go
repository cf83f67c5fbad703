package server

import (
	"sync"

	"github.com/nezek6/Wizardry/pkg/transport"
)

type sessionManager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

func newSessionManager() *sessionManager {
	return &sessionManager{
		sessions: make(map[string]*Session),
	}
}

func (m *sessionManager) add(s *Session) {
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
}

func (m *sessionManager) remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

func (m *sessionManager) count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *sessionManager) closeAll(code transport.CloseCode, reason string) (lastErr error) {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		if err := s.Close(code, reason); err != nil {
			lastErr = err
		}
	}
	return
}
