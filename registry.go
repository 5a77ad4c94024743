package horizonredux

import "sync"

// Registry holds the action takers in insertion order, which is also the match order.
type Registry struct {
	mux    sync.Mutex
	takers []*ActionTaker
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		takers: make([]*ActionTaker, 0),
	}
}

// Append action takers to the end of the registry.
func (r *Registry) Append(takers ...*ActionTaker) {
	r.mux.Lock()
	for _, taker := range takers {
		if taker != nil {
			r.takers = append(r.takers, taker)
		}
	}
	r.mux.Unlock()
}

// Delete action takers by identity. It reports whether any was found.
func (r *Registry) Delete(takers ...*ActionTaker) bool {
	r.mux.Lock()
	defer r.mux.Unlock()

	found := false
	for _, taker := range takers {
		for index, registered := range r.takers {
			if registered != taker {
				continue
			}

			r.takers = append(r.takers[:index:index], r.takers[index+1:]...)
			found = true

			break
		}
	}

	return found
}

// Exists checks if the action taker is registered.
func (r *Registry) Exists(taker *ActionTaker) bool {
	r.mux.Lock()
	defer r.mux.Unlock()

	for _, registered := range r.takers {
		if registered == taker {
			return true
		}
	}

	return false
}

// Length returns the number of registered action takers.
func (r *Registry) Length() int {
	r.mux.Lock()
	length := len(r.takers)
	r.mux.Unlock()

	return length
}

// Iterator iterates over a snapshot of the registry, in insertion order.
// Takers added or removed while iterating do not affect the snapshot.
func (r *Registry) Iterator() <-chan *ActionTaker {
	r.mux.Lock()
	c := make(chan *ActionTaker, len(r.takers))
	for _, taker := range r.takers {
		c <- taker
	}
	r.mux.Unlock()

	close(c)

	return c
}
