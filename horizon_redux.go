package horizonredux

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/ahmedkamals/horizonredux/internal/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// HorizonRedux binds the action takers of a data source to a store.
// Create it with New, attach CreateMiddleware to the store, and register
// action takers at any time.
type HorizonRedux struct {
	dataSource     DataSource
	registry       *Registry
	interceptor    *interceptor
	gate           *gate
	binding        *binding
	logger         Logger
	errorQueue     ErrorQueue
	registerer     prometheus.Registerer
	metrics        *metrics
	disconnectType ActionType
	pruneCompleted bool

	signalsMux sync.Mutex
	signals    []Subscription
}

// New creates a HorizonRedux for dataSource. If the data source is a
// ReadinessNotifier, actions are buffered until it reports ready.
func New(dataSource DataSource, options ...Option) (*HorizonRedux, error) {
	const op errors.Operation = "horizonredux.New"

	if dataSource == nil || isNilPointer(dataSource) {
		return nil, errors.E(op, errors.MissingDataSource)
	}

	hr := &HorizonRedux{
		dataSource:     dataSource,
		registry:       NewRegistry(),
		binding:        &binding{},
		logger:         NewZerologLogger(zerolog.Nop()),
		errorQueue:     NewZerologErrorQueue(zerolog.Nop()),
		disconnectType: DisconnectedActionType,
	}

	for _, option := range options {
		if err := option(hr); err != nil {
			return nil, errors.E(op, err)
		}
	}

	if hr.registerer == nil {
		hr.registerer = prometheus.NewRegistry()
	}

	notifier, isNotifier := dataSource.(ReadinessNotifier)

	initial := ready
	if isNotifier {
		initial = notReady
	}
	hr.gate = newGate(initial)

	m, err := newMetrics(
		hr.registerer,
		func() float64 { return hr.interceptor.activeSubscriptions() },
		func() float64 { return float64(hr.gate.length()) },
	)
	if err != nil {
		return nil, errors.E(op, err)
	}
	hr.metrics = m
	hr.interceptor = newInterceptor(hr.registry, dataSource, hr.logger, hr.errorQueue, hr.metrics)
	hr.interceptor.pruneCompleted = hr.pruneCompleted

	if isNotifier {
		hr.watchReadiness(notifier)
	}

	return hr, nil
}

func isNilPointer(value interface{}) bool {
	v := reflect.ValueOf(value)

	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Func, reflect.Chan, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}

	return false
}

// DataSource returns the data source queries run against.
func (hr *HorizonRedux) DataSource() DataSource {
	return hr.dataSource
}

// Registry returns the action taker registry.
func (hr *HorizonRedux) Registry() *Registry {
	return hr.registry
}

// IsReady reports whether dispatched actions reach the action takers immediately.
func (hr *HorizonRedux) IsReady() bool {
	return hr.gate.current() == ready
}

// AddActionTaker registers an action taker. Every action matching pattern runs
// queryProducer. When successHandler or errorHandler is set the resulting stream
// is subscribed and its values or error are passed to them.
func (hr *HorizonRedux) AddActionTaker(
	pattern Pattern,
	queryProducer QueryProducer,
	successHandler SuccessHandler,
	errorHandler ErrorHandler,
	mode Mode,
) (*TakerManager, error) {
	const op errors.Operation = "HorizonRedux.AddActionTaker"

	taker, err := newActionTaker(pattern, queryProducer, successHandler, errorHandler, mode)
	if err != nil {
		return nil, errors.E(op, err)
	}

	hr.registry.Append(taker)
	hr.logger.Log(fmt.Sprintf("Registered action taker %#v", taker))

	return newTakerManager(hr.registry, taker), nil
}

// TakeEvery registers an action taker that keeps a subscription for every matching action.
func (hr *HorizonRedux) TakeEvery(
	pattern Pattern,
	queryProducer QueryProducer,
	successHandler SuccessHandler,
	errorHandler ErrorHandler,
) (*TakerManager, error) {
	return hr.AddActionTaker(pattern, queryProducer, successHandler, errorHandler, Many)
}

// TakeLatest registers an action taker that cancels its previous subscription on every matching action.
func (hr *HorizonRedux) TakeLatest(
	pattern Pattern,
	queryProducer QueryProducer,
	successHandler SuccessHandler,
	errorHandler ErrorHandler,
) (*TakerManager, error) {
	return hr.AddActionTaker(pattern, queryProducer, successHandler, errorHandler, Latest)
}

// CreateMiddleware returns the store middleware. It captures the store
// dispatch on attachment; attach it to one store only.
func (hr *HorizonRedux) CreateMiddleware() Middleware {
	return func(store StoreAPI) func(next Dispatch) Dispatch {
		if err := hr.binding.bind(store.Dispatch); err != nil {
			hr.errorQueue.Report(err)
		}

		return func(next Dispatch) Dispatch {
			return func(action Action) interface{} {
				if !hr.gate.admit(action) {
					hr.metrics.actionsTotal.WithLabelValues("buffered").Inc()
					hr.logger.Log(fmt.Sprintf("Buffering action %s until the data source is ready", action))

					return next(action)
				}

				hr.metrics.actionsTotal.WithLabelValues("handled").Inc()
				hr.interceptor.handle(action, hr.dispatch)

				return next(action)
			}
		}
	}
}

// dispatch is handed to the handlers, it goes through the bound store.
func (hr *HorizonRedux) dispatch(action Action) interface{} {
	result, err := hr.binding.send(action)
	if err != nil {
		hr.errorQueue.Report(err)
	}

	return result
}

// Ready replays the buffered actions and opens the gate.
// It is called by the data source readiness signal.
func (hr *HorizonRedux) Ready() {
	const op errors.Operation = "HorizonRedux.Ready"

	defer func() {
		if err := recover(); err != nil {
			hr.errorQueue.Report(errors.E(op, errors.Panic, errors.Errorf("%v", err)))
		}
	}()

	if !hr.gate.open(func(action Action) {
		hr.metrics.actionsTotal.WithLabelValues("replayed").Inc()
		hr.interceptor.handle(action, hr.dispatch)
	}) {
		return
	}

	hr.metrics.readinessTransitions.WithLabelValues("ready").Inc()
	hr.logger.Log("Data source is ready")
}

// Disconnected closes the gate and dispatches the disconnect action.
// It is called by the data source disconnect signal.
func (hr *HorizonRedux) Disconnected() {
	const op errors.Operation = "HorizonRedux.Disconnected"

	defer func() {
		if err := recover(); err != nil {
			hr.errorQueue.Report(errors.E(op, errors.Panic, errors.Errorf("%v", err)))
		}
	}()

	if !hr.gate.close() {
		return
	}

	hr.metrics.readinessTransitions.WithLabelValues("disconnected").Inc()

	hr.logger.Log("Data source disconnected")

	if _, err := hr.binding.send(NewAction(hr.disconnectType, nil)); err != nil {
		hr.errorQueue.Report(errors.E(op, err))
	}
}

func (hr *HorizonRedux) watchReadiness(notifier ReadinessNotifier) {
	const op errors.Operation = "HorizonRedux.watchReadiness"

	reportError := func(err error) {
		hr.errorQueue.Report(errors.E(op, errors.Query, err))
	}

	subscriptions := make([]Subscription, 0, 2)

	if readySignal := notifier.OnReady(); readySignal != nil {
		subscriptions = append(subscriptions, readySignal.Subscribe(Observer{
			Next:  func(interface{}) { hr.Ready() },
			Error: reportError,
		}))
	}

	if disconnectedSignal := notifier.OnDisconnected(); disconnectedSignal != nil {
		subscriptions = append(subscriptions, disconnectedSignal.Subscribe(Observer{
			Next:  func(interface{}) { hr.Disconnected() },
			Error: reportError,
		}))
	}

	hr.signalsMux.Lock()
	hr.signals = append(hr.signals, subscriptions...)
	hr.signalsMux.Unlock()
}

// Close stops listening to the readiness signals, removes every action taker
// and unregisters the metrics.
func (hr *HorizonRedux) Close() {
	hr.signalsMux.Lock()
	signals := hr.signals
	hr.signals = nil
	hr.signalsMux.Unlock()

	for _, signal := range signals {
		signal.Unsubscribe()
	}

	for taker := range hr.registry.Iterator() {
		hr.registry.Delete(taker)
		unsubscribeAll(taker.detach())
	}

	hr.metrics.unregister()
}
