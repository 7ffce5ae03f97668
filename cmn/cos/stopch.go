package cos

import "sync"

// StopCh is a close-once stop signal, the same small idiom the teacher's
// stream collector uses to fan a single shutdown out to any number of
// Listen() callers.
type StopCh struct {
	once sync.Once
	ch   chan struct{}
}

func (s *StopCh) Init() { s.ch = make(chan struct{}) }

func (s *StopCh) Close() {
	s.once.Do(func() { close(s.ch) })
}

func (s *StopCh) Listen() <-chan struct{} { return s.ch }
