package horizonredux

import (
	"fmt"
	"sync"

	"github.com/ahmedkamals/horizonredux/internal/errors"
)

type (
	// Mode is the subscription replacement policy of an action taker.
	Mode uint8

	// QueryProducer runs the query for a matched action.
	QueryProducer func(DataSource, Action) ResultStream

	// SuccessHandler is called with every value the query emits.
	SuccessHandler func(result interface{}, action Action, dispatch Dispatch)

	// ErrorHandler is called when the query fails.
	ErrorHandler func(err error, action Action, dispatch Dispatch)

	// ActionTaker binds a pattern to a query and its handlers.
	ActionTaker struct {
		id             UUID
		pattern        Pattern
		queryProducer  QueryProducer
		successHandler SuccessHandler
		errorHandler   ErrorHandler
		mode           Mode

		mux           sync.Mutex
		subscriptions []*activeSubscription
		generation    uint64
		removed       bool
	}

	// TakerManager removes its action taker from the registry.
	TakerManager struct {
		registry *Registry
		taker    *ActionTaker
		once     sync.Once
	}

	activeSubscription struct {
		handle Subscription
		done   bool
	}
)

const (
	// Many keeps a subscription alive for every matching action.
	Many Mode = iota
	// Latest keeps only the subscription of the latest matching action.
	Latest
)

func (m Mode) String() string {
	switch m {
	case Many:
		return "takeEvery"
	case Latest:
		return "takeLatest"
	}

	return "unknown"
}

func newActionTaker(
	pattern Pattern,
	queryProducer QueryProducer,
	successHandler SuccessHandler,
	errorHandler ErrorHandler,
	mode Mode,
) (*ActionTaker, error) {
	const op errors.Operation = "newActionTaker"

	if err := validatePattern(pattern); err != nil {
		return nil, errors.E(op, err)
	}

	if queryProducer == nil {
		return nil, errors.E(op, errors.InvalidQueryProducer)
	}

	if mode != Many && mode != Latest {
		return nil, errors.E(op, errors.Invalid, fmt.Sprintf("unknown mode %d", mode))
	}

	return &ActionTaker{
		id:             NewUUID(),
		pattern:        pattern,
		queryProducer:  queryProducer,
		successHandler: successHandler,
		errorHandler:   errorHandler,
		mode:           mode,
	}, nil
}

// ID of the action taker.
func (at *ActionTaker) ID() UUID {
	return at.id
}

// Pattern the action taker matches against.
func (at *ActionTaker) Pattern() Pattern {
	return at.pattern
}

// Mode of the action taker.
func (at *ActionTaker) Mode() Mode {
	return at.mode
}

// ActiveSubscriptions returns the number of live subscriptions the taker owns.
func (at *ActionTaker) ActiveSubscriptions() int {
	at.mux.Lock()
	defer at.mux.Unlock()

	return len(at.subscriptions)
}

func (at *ActionTaker) GoString() string {
	return fmt.Sprintf("%s[%s]", at.String(), at.id)
}

func (at *ActionTaker) String() string {
	return fmt.Sprintf("%s(%s)", at.mode, at.pattern)
}

func (at *ActionTaker) isRemoved() bool {
	at.mux.Lock()
	defer at.mux.Unlock()

	return at.removed
}

// subscribes reports whether matches create a subscription at all.
func (at *ActionTaker) subscribes() bool {
	return at.successHandler != nil || at.errorHandler != nil
}

// reserve prepares a placement. In Latest mode it detaches the current
// subscriptions, so they can be cancelled before the new one is created.
func (at *ActionTaker) reserve() (generation uint64, previous []*activeSubscription) {
	at.mux.Lock()
	defer at.mux.Unlock()

	at.generation++
	if at.mode == Latest {
		previous = at.subscriptions
		at.subscriptions = nil
	}

	return at.generation, previous
}

// place records a subscription created for the given generation.
// It returns the subscriptions that must be cancelled by the caller,
// which includes the new one when it was superseded meanwhile.
func (at *ActionTaker) place(generation uint64, sub *activeSubscription) []*activeSubscription {
	at.mux.Lock()
	defer at.mux.Unlock()

	if at.removed {
		return []*activeSubscription{sub}
	}

	if sub.done {
		return nil
	}

	if at.mode == Many {
		at.subscriptions = append(at.subscriptions, sub)

		return nil
	}

	if generation != at.generation {
		return []*activeSubscription{sub}
	}

	stale := at.subscriptions
	at.subscriptions = []*activeSubscription{sub}

	return stale
}

// forget drops a terminated subscription from the active list.
func (at *ActionTaker) forget(sub *activeSubscription) {
	at.mux.Lock()
	defer at.mux.Unlock()

	sub.done = true
	for index, active := range at.subscriptions {
		if active == sub {
			at.subscriptions = append(at.subscriptions[:index], at.subscriptions[index+1:]...)

			return
		}
	}
}

// detach marks the taker as removed and hands over its subscriptions.
func (at *ActionTaker) detach() []*activeSubscription {
	at.mux.Lock()
	defer at.mux.Unlock()

	at.removed = true
	subscriptions := at.subscriptions
	at.subscriptions = nil

	return subscriptions
}

func unsubscribeAll(subscriptions []*activeSubscription) {
	for _, sub := range subscriptions {
		if sub.handle != nil {
			sub.handle.Unsubscribe()
		}
	}
}

func newTakerManager(registry *Registry, taker *ActionTaker) *TakerManager {
	return &TakerManager{
		registry: registry,
		taker:    taker,
	}
}

// ActionTaker returns the managed action taker.
func (tm *TakerManager) ActionTaker() *ActionTaker {
	return tm.taker
}

// Remove unsubscribes every active subscription of the action taker
// and deletes it from the registry. Calling it again does nothing.
func (tm *TakerManager) Remove() {
	tm.once.Do(func() {
		tm.registry.Delete(tm.taker)
		unsubscribeAll(tm.taker.detach())
	})
}
