package horizonredux

import (
	"sync"

	"github.com/ahmedkamals/horizonredux/internal/errors"
)

type bindingState uint8

const (
	unbound bindingState = iota
	bound
)

// binding holds the store dispatch function once the middleware is attached.
type binding struct {
	mux      sync.RWMutex
	state    bindingState
	dispatch Dispatch
}

// bind captures dispatch. Only the first call takes effect.
func (b *binding) bind(dispatch Dispatch) error {
	const op errors.Operation = "binding.bind"

	if dispatch == nil {
		return errors.E(op, errors.MissingDispatch)
	}

	b.mux.Lock()
	defer b.mux.Unlock()

	if b.state == bound {
		return errors.E(op, errors.Exist, "middleware is already attached to a store")
	}

	b.dispatch = dispatch
	b.state = bound

	return nil
}

func (b *binding) isBound() bool {
	b.mux.RLock()
	defer b.mux.RUnlock()

	return b.state == bound
}

// send dispatches through the bound store.
func (b *binding) send(action Action) (interface{}, error) {
	const op errors.Operation = "binding.send"

	b.mux.RLock()
	state, dispatch := b.state, b.dispatch
	b.mux.RUnlock()

	if state != bound {
		return nil, errors.E(op, errors.Unbound, errors.Errorf("dropping %#v", action))
	}

	return dispatch(action), nil
}
