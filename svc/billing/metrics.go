package billing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts lifecycle events worth alerting on. A nil *Metrics is a no-op.
type Metrics struct {
	customersBootstrapped prometheus.Counter
	trialCancellations    *prometheus.CounterVec
	duplicateMappings     prometheus.Counter
	duplicatePaid         prometheus.Counter
}

// NewMetrics registers the billing collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		customersBootstrapped: f.NewCounter(prometheus.CounterOpts{
			Namespace: "saasadmin",
			Subsystem: "billing",
			Name:      "customers_bootstrapped_total",
			Help:      "Provider customers created for tenants.",
		}),
		trialCancellations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "saasadmin",
			Subsystem: "billing",
			Name:      "trial_cancellations_total",
			Help:      "Trial subscriptions cancelled during duplicate reconciliation, by result.",
		}, []string{"result"}),
		duplicateMappings: f.NewCounter(prometheus.CounterOpts{
			Namespace: "saasadmin",
			Subsystem: "billing",
			Name:      "duplicate_mappings_total",
			Help:      "Lookups that found more than one customer mapping for a tenant.",
		}),
		duplicatePaid: f.NewCounter(prometheus.CounterOpts{
			Namespace: "saasadmin",
			Subsystem: "billing",
			Name:      "duplicate_paid_subscriptions_total",
			Help:      "Lookups that found more than one paid subscription for a tenant.",
		}),
	}
}

func (m *Metrics) customerBootstrapped() {
	if m != nil {
		m.customersBootstrapped.Inc()
	}
}

func (m *Metrics) trialCancellation(result string) {
	if m != nil {
		m.trialCancellations.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) duplicateMapping() {
	if m != nil {
		m.duplicateMappings.Inc()
	}
}

func (m *Metrics) duplicatePaidSubscriptions() {
	if m != nil {
		m.duplicatePaid.Inc()
	}
}
