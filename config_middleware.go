package horizonredux

import (
	"fmt"

	"github.com/ahmedkamals/horizonredux/internal/errors"
)

// ConfigHandler runs the query for an action of its configured type.
type ConfigHandler func(dataSource DataSource, action Action, dispatch Dispatch)

// NewConfigMiddleware returns a middleware that runs the handler configured for
// the action type instead of forwarding the action. Actions without a handler
// are forwarded unchanged. There is no readiness buffering.
func NewConfigMiddleware(dataSource DataSource, config map[ActionType]ConfigHandler) (Middleware, error) {
	const op errors.Operation = "NewConfigMiddleware"

	if dataSource == nil || isNilPointer(dataSource) {
		return nil, errors.E(op, errors.MissingDataSource)
	}

	if config == nil {
		return nil, errors.E(op, errors.MissingConfig)
	}

	handlers := make(map[ActionType]ConfigHandler, len(config))
	for actionType, handler := range config {
		if handler == nil {
			return nil, errors.E(op, errors.InvalidHandler, fmt.Sprintf("action type %s", actionType))
		}
		handlers[actionType] = handler
	}

	middleware := func(store StoreAPI) func(next Dispatch) Dispatch {
		return func(next Dispatch) Dispatch {
			return func(action Action) interface{} {
				handler, ok := handlers[action.Type]
				if !ok {
					return next(action)
				}

				handler(dataSource, action, store.Dispatch)

				return nil
			}
		}
	}

	return middleware, nil
}
