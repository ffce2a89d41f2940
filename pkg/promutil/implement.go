package promutil

import (
	"github.com/prometheus/client_golang/prometheus"
)

type wrappingFactory struct {
	r *Registry
	// id identifies the component owning the metrics. It's used to
	// unregister all collectors of the component at once.
	id string
	// prefix is added to the metric name to avoid cross component conflict
	// e.g. $prefix_$namespace_$subsystem_$name
	prefix string
	// constLabels is added to every metric by default
	constLabels prometheus.Labels
}

func (f *wrappingFactory) NewCounter(opts prometheus.CounterOpts) prometheus.Counter {
	opts.Namespace, opts.ConstLabels = f.wrap(opts.Namespace, opts.ConstLabels)
	c := prometheus.NewCounter(opts)
	f.r.MustRegister(f.id, c)
	return c
}

func (f *wrappingFactory) NewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	opts.Namespace, opts.ConstLabels = f.wrap(opts.Namespace, opts.ConstLabels)
	c := prometheus.NewCounterVec(opts, labelNames)
	f.r.MustRegister(f.id, c)
	return c
}

func (f *wrappingFactory) NewGaugeVec(opts prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec {
	opts.Namespace, opts.ConstLabels = f.wrap(opts.Namespace, opts.ConstLabels)
	c := prometheus.NewGaugeVec(opts, labelNames)
	f.r.MustRegister(f.id, c)
	return c
}

func (f *wrappingFactory) wrap(namespace string, labels prometheus.Labels) (string, prometheus.Labels) {
	if f.prefix != "" {
		if namespace == "" {
			namespace = f.prefix
		} else {
			namespace = f.prefix + "_" + namespace
		}
	}
	cls := make(prometheus.Labels, len(labels)+len(f.constLabels))
	for name, value := range labels {
		cls[name] = value
	}
	for name, value := range f.constLabels {
		if _, exists := cls[name]; exists {
			panic("duplicate label name " + name)
		}
		cls[name] = value
	}
	return namespace, cls
}
