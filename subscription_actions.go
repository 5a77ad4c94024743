package horizonredux

import (
	"fmt"

	"github.com/ahmedkamals/horizonredux/internal/errors"
)

// SubscriptionAction turns every result of Query into an action.
type SubscriptionAction struct {
	// Query returns the stream to watch. Required.
	Query func(DataSource) ResultStream
	// ActionCreator builds the action dispatched for a result. Required.
	ActionCreator func(result interface{}) Action
	// OnQueryError handles query failures. When nil, a failure panics.
	OnQueryError func(error)
}

// SetupSubscriptionActions runs every configured query right away and dispatches
// the action created for each result. The whole config is validated before any
// query runs. The returned subscriptions stop the queries.
func SetupSubscriptionActions(dataSource DataSource, dispatch Dispatch, config []SubscriptionAction) ([]Subscription, error) {
	const op errors.Operation = "SetupSubscriptionActions"

	if dataSource == nil || isNilPointer(dataSource) {
		return nil, errors.E(op, errors.MissingDataSource)
	}

	if dispatch == nil {
		return nil, errors.E(op, errors.MissingDispatch)
	}

	if config == nil {
		return nil, errors.E(op, errors.MissingConfig)
	}

	for index, item := range config {
		if item.Query == nil || item.ActionCreator == nil {
			return nil, errors.E(op, errors.Invalid, fmt.Sprintf("config item %d needs both Query and ActionCreator", index))
		}
	}

	subscriptions := make([]Subscription, 0, len(config))

	for index, item := range config {
		onQueryError := item.OnQueryError
		if onQueryError == nil {
			onQueryError = panicOnQueryError(index)
		}

		results := item.Query(dataSource)
		if results == nil {
			unsubscribe(subscriptions)
			return nil, errors.E(op, errors.NilStream, fmt.Sprintf("config item %d", index))
		}

		actionCreator := item.ActionCreator
		subscriptions = append(subscriptions, results.Subscribe(Observer{
			Next: func(result interface{}) {
				dispatch(actionCreator(result))
			},
			Error: onQueryError,
		}))
	}

	return subscriptions, nil
}

func panicOnQueryError(index int) func(error) {
	const op errors.Operation = "SetupSubscriptionActions.onQueryError"

	return func(err error) {
		panic(errors.E(op, errors.Query, fmt.Sprintf("config item %d: %v", index, err)))
	}
}

func unsubscribe(subscriptions []Subscription) {
	for _, subscription := range subscriptions {
		subscription.Unsubscribe()
	}
}
