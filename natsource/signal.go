package natsource

import (
	"sync"

	"github.com/ahmedkamals/horizonredux"
)

// signal fans a connection event out to its observers.
type signal struct {
	mux       sync.Mutex
	observers map[uint64]horizonredux.Observer
	nextID    uint64
	// latched, when set and true, replays the event to new observers.
	latched func() bool
}

func newSignal(latched func() bool) *signal {
	return &signal{
		observers: make(map[uint64]horizonredux.Observer),
		latched:   latched,
	}
}

func (s *signal) stream() horizonredux.ResultStream {
	return horizonredux.NewStream(func(observer horizonredux.Observer) func() {
		s.mux.Lock()
		id := s.nextID
		s.nextID++
		s.observers[id] = observer
		s.mux.Unlock()

		if s.latched != nil && s.latched() {
			observer.Next(struct{}{})
		}

		return func() {
			s.mux.Lock()
			delete(s.observers, id)
			s.mux.Unlock()
		}
	})
}

func (s *signal) fire() {
	s.mux.Lock()
	observers := make([]horizonredux.Observer, 0, len(s.observers))
	for _, observer := range s.observers {
		observers = append(observers, observer)
	}
	s.mux.Unlock()

	for _, observer := range observers {
		observer.Next(struct{}{})
	}
}

func (s *signal) length() int {
	s.mux.Lock()
	defer s.mux.Unlock()

	return len(s.observers)
}
