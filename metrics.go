package horizonredux

import (
	"github.com/ahmedkamals/horizonredux/internal/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "horizonredux"

type metrics struct {
	actionsTotal         *prometheus.CounterVec
	matchesTotal         *prometheus.CounterVec
	queryErrorsTotal     prometheus.Counter
	activeSubscriptions  prometheus.GaugeFunc
	pendingActions       prometheus.GaugeFunc
	readinessTransitions *prometheus.CounterVec

	registerer prometheus.Registerer
}

// newMetrics registers the collectors. The gauges are sampled from active and pending on scrape.
// Registering twice with the same registerer fails with Exist, wrap it with
// prometheus.WrapRegistererWith to tell the instances apart.
func newMetrics(registerer prometheus.Registerer, active, pending func() float64) (*metrics, error) {
	const op errors.Operation = "newMetrics"

	m := &metrics{
		actionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "actions_total",
				Help:      "Actions seen by the middleware, by outcome.",
			},
			[]string{"outcome"},
		),
		matchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "taker_matches_total",
				Help:      "Action taker matches, by mode.",
			},
			[]string{"mode"},
		),
		queryErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "query_errors_total",
				Help:      "Errors emitted by action taker queries.",
			},
		),
		activeSubscriptions: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "active_subscriptions",
				Help:      "Subscriptions currently owned by action takers.",
			},
			active,
		),
		pendingActions: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "pending_actions",
				Help:      "Actions buffered until the data source is ready.",
			},
			pending,
		),
		readinessTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "readiness_transitions_total",
				Help:      "Readiness state changes caused by the data source signals.",
			},
			[]string{"signal"},
		),
	}

	m.registerer = registerer

	registered := make([]prometheus.Collector, 0, len(m.collectors()))
	for _, collector := range m.collectors() {
		if err := registerer.Register(collector); err != nil {
			for _, done := range registered {
				registerer.Unregister(done)
			}

			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				return nil, errors.E(op, errors.Exist, err)
			}

			return nil, errors.E(op, errors.Failure, err)
		}
		registered = append(registered, collector)
	}

	return m, nil
}

func (m *metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.actionsTotal,
		m.matchesTotal,
		m.queryErrorsTotal,
		m.activeSubscriptions,
		m.pendingActions,
		m.readinessTransitions,
	}
}

// unregister releases the collectors, so the registerer can host a new instance.
func (m *metrics) unregister() {
	for _, collector := range m.collectors() {
		m.registerer.Unregister(collector)
	}
}
