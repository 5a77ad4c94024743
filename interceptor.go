package horizonredux

import (
	"fmt"

	"github.com/ahmedkamals/horizonredux/internal/errors"
)

// interceptor runs the queries of the action takers that match a dispatched action.
type interceptor struct {
	registry       *Registry
	dataSource     DataSource
	logger         Logger
	errorQueue     ErrorQueue
	metrics        *metrics
	pruneCompleted bool
}

func newInterceptor(registry *Registry, dataSource DataSource, logger Logger, errorQueue ErrorQueue, m *metrics) *interceptor {
	return &interceptor{
		registry:   registry,
		dataSource: dataSource,
		logger:     logger,
		errorQueue: errorQueue,
		metrics:    m,
	}
}

// getMatchedTakers returns the takers matching the action, in registry order.
func (i *interceptor) getMatchedTakers(action Action) []*ActionTaker {
	takers := make([]*ActionTaker, 0)

	for taker := range i.registry.Iterator() {
		if !i.match(action, taker) {
			continue
		}
		takers = append(takers, taker)
	}

	return takers
}

// match never panics, a panicking predicate counts as a miss.
func (i *interceptor) match(action Action, taker *ActionTaker) (matched bool) {
	const op errors.Operation = "interceptor.match"

	defer func() {
		if err := recover(); err != nil {
			i.errorQueue.Report(errors.E(op, errors.Panic, errors.Errorf("%s: %v", taker, err)))
			matched = false
		}
	}()

	return Matches(action, taker.pattern)
}

// handle runs every matching action taker for the action.
func (i *interceptor) handle(action Action, dispatch Dispatch) {
	for _, taker := range i.getMatchedTakers(action) {
		if taker.isRemoved() {
			continue
		}
		i.take(taker, action, dispatch)
	}
}

func (i *interceptor) take(taker *ActionTaker, action Action, dispatch Dispatch) {
	const op errors.Operation = "interceptor.take"

	i.metrics.matchesTotal.WithLabelValues(taker.mode.String()).Inc()
	i.logger.Log(fmt.Sprintf("Action %s matched %s", action, taker))

	results := taker.queryProducer(i.dataSource, action)

	if !taker.subscribes() {
		return
	}

	if results == nil {
		i.errorQueue.Report(errors.E(op, errors.NilStream, errors.Errorf("%s", taker)))
		return
	}

	generation, previous := taker.reserve()
	unsubscribeAll(previous)

	sub := &activeSubscription{}
	sub.handle = results.Subscribe(i.observer(taker, sub, action, dispatch))

	unsubscribeAll(taker.place(generation, sub))
}

func (i *interceptor) observer(taker *ActionTaker, sub *activeSubscription, action Action, dispatch Dispatch) Observer {
	const op errors.Operation = "interceptor.observer"

	observer := Observer{
		Error: func(err error) {
			i.metrics.queryErrorsTotal.Inc()
			if i.pruneCompleted {
				taker.forget(sub)
			}

			if taker.errorHandler == nil {
				i.errorQueue.Report(errors.E(op, errors.Query, err))
				return
			}
			taker.errorHandler(err, action, dispatch)
		},
	}

	if taker.successHandler != nil {
		observer.Next = func(result interface{}) {
			taker.successHandler(result, action, dispatch)
		}
	}

	if i.pruneCompleted {
		observer.Complete = func() {
			taker.forget(sub)
		}
	}

	return observer
}

// activeSubscriptions sums the live subscriptions of every registered taker.
func (i *interceptor) activeSubscriptions() float64 {
	total := 0
	for taker := range i.registry.Iterator() {
		total += taker.ActiveSubscriptions()
	}

	return float64(total)
}
