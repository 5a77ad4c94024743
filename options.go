package horizonredux

import (
	"github.com/ahmedkamals/horizonredux/internal/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a HorizonRedux during construction in New.
type Option func(*HorizonRedux) error

// WithLogger sets the logger for operational messages.
func WithLogger(logger Logger) Option {
	return func(hr *HorizonRedux) error {
		if logger == nil {
			return errors.E(errors.Operation("WithLogger"), errors.Invalid)
		}
		hr.logger = logger
		return nil
	}
}

// WithErrorQueue sets where asynchronous errors are reported,
// e.g. query errors of takers without an error handler.
func WithErrorQueue(errorQueue ErrorQueue) Option {
	return func(hr *HorizonRedux) error {
		if errorQueue == nil {
			return errors.E(errors.Operation("WithErrorQueue"), errors.Invalid)
		}
		hr.errorQueue = errorQueue
		return nil
	}
}

// WithRegisterer registers the metrics with registerer instead of a private registry.
// Instances sharing a registerer need distinct labels, see prometheus.WrapRegistererWith.
func WithRegisterer(registerer prometheus.Registerer) Option {
	return func(hr *HorizonRedux) error {
		if registerer == nil {
			return errors.E(errors.Operation("WithRegisterer"), errors.Invalid)
		}
		hr.registerer = registerer
		return nil
	}
}

// WithDisconnectAction sets the type of the action dispatched on disconnect.
func WithDisconnectAction(actionType ActionType) Option {
	return func(hr *HorizonRedux) error {
		if actionType == "" {
			return errors.E(errors.Operation("WithDisconnectAction"), errors.Invalid, "empty action type")
		}
		hr.disconnectType = actionType
		return nil
	}
}

// WithPruneCompleted drops Many mode subscriptions from their taker once the
// stream completes or fails. They are kept until Remove otherwise.
func WithPruneCompleted(enabled bool) Option {
	return func(hr *HorizonRedux) error {
		hr.pruneCompleted = enabled
		return nil
	}
}
