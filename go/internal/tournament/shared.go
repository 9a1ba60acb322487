package tournament

import "sync"

// Shared guards a Manager shared by the tick driver, the list editors and the
// control API.
type Shared struct {
	mu sync.Mutex
	m  *Manager
}

func NewShared(m *Manager) *Shared {
	return &Shared{m: m}
}

// With runs fn with the lock held. fn must not retain the *Manager.
func (s *Shared) With(fn func(m *Manager) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.m)
}

// RunningSignal is safe to use without the lock.
func (s *Shared) RunningSignal() *RunningSignal {
	return s.m.running
}
