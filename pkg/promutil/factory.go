package promutil

import "github.com/prometheus/client_golang/prometheus"

// Factory produces native prometheus metrics that are registered with the
// owning Registry on creation, like promauto. Every metric carries the
// factory's const labels and its name is prefixed with the factory prefix.
type Factory interface {
	// NewCounter works like the function of the same name in the prometheus
	// package, but it automatically registers the Counter with the Factory's
	// Registerer. Panic if it can't register successfully.
	NewCounter(opts prometheus.CounterOpts) prometheus.Counter

	// NewCounterVec works like the function of the same name in the
	// prometheus package, but it automatically registers the CounterVec.
	NewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec

	// NewGaugeVec works like the function of the same name in the prometheus
	// package but it automatically registers the GaugeVec.
	NewGaugeVec(opts prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec
}

// NewFactory returns a Factory whose metrics are owned by owner in r.
func NewFactory(r *Registry, owner, prefix string, constLabels prometheus.Labels) Factory {
	return &wrappingFactory{
		r:           r,
		id:          owner,
		prefix:      prefix,
		constLabels: constLabels,
	}
}

// NewFactory4Component returns a Factory registering into the process wide
// registry.
func NewFactory4Component(component string) Factory {
	return NewFactory(globalMetricRegistry, component, "instancesync", prometheus.Labels{
		constLabelComponentKey: component,
	})
}
