package promutil

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	systemID = "system"
	// constLabelComponentKey is used to recognize metrics of one component
	constLabelComponentKey = "component"
)

// NOTICE: we don't use prometheus.DefaultRegistry in case of incorrect usage of a
// non-wrapped metric
var globalMetricRegistry = NewRegistry()

func init() {
	globalMetricRegistry.MustRegister(systemID, collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	globalMetricRegistry.MustRegister(systemID, collectors.NewGoCollector())
}

// Registry is used for registering metric
type Registry struct {
	sync.Mutex
	*prometheus.Registry

	// collectorByOwner is for cleaning all collectors of one owner
	collectorByOwner map[string][]prometheus.Collector
}

// NewRegistry new a Registry
func NewRegistry() *Registry {
	return &Registry{
		Registry:         prometheus.NewRegistry(),
		collectorByOwner: make(map[string][]prometheus.Collector),
	}
}

// MustRegister registers the provided Collector of the specified owner
func (r *Registry) MustRegister(owner string, c prometheus.Collector) {
	if c == nil {
		return
	}
	r.Lock()
	defer r.Unlock()

	r.Registry.MustRegister(c)
	r.collectorByOwner[owner] = append(r.collectorByOwner[owner], c)
}

// Unregister unregisters all Collectors of the specified owner
func (r *Registry) Unregister(owner string) {
	r.Lock()
	defer r.Unlock()

	cls, exists := r.collectorByOwner[owner]
	if exists {
		for _, collector := range cls {
			r.Registry.Unregister(collector)
		}
		delete(r.collectorByOwner, owner)
	}
}

// HTTPHandlerForMetric return http.Handler for prometheus metric
func HTTPHandlerForMetric() http.Handler {
	return promhttp.HandlerFor(globalMetricRegistry, promhttp.HandlerOpts{})
}
