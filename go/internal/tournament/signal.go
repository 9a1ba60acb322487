package tournament

import "sync"

// RunningSignal fans the clock-running flag out to subscribers. Each subscriber
// holds at most one pending value and always sees the latest one.
type RunningSignal struct {
	mu   sync.Mutex
	subs []chan bool
	last bool
}

func NewRunningSignal() *RunningSignal {
	return &RunningSignal{}
}

// Subscribe returns a channel that receives every later change.
func (s *RunningSignal) Subscribe() <-chan bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan bool, 1)
	s.subs = append(s.subs, ch)
	return ch
}

// Last returns the most recently sent value.
func (s *RunningSignal) Last() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Send never blocks; a value nobody has read yet is replaced.
func (s *RunningSignal) Send(running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last = running
	for _, ch := range s.subs {
		select {
		case ch <- running:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- running:
			default:
			}
		}
	}
}
