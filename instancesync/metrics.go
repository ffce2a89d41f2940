package instancesync

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hanfei1991/instancesync/pkg/promutil"
)

// Metrics are the counters of task creation and write arbitration. A nil
// *Metrics records nothing.
type Metrics struct {
	tasksCreated    *prometheus.CounterVec
	tasksReset      *prometheus.CounterVec
	taskFailures    *prometheus.CounterVec
	updateDecisions *prometheus.CounterVec
}

// NewMetrics registers the instance sync metrics through factory.
func NewMetrics(factory promutil.Factory) *Metrics {
	return &Metrics{
		tasksCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tasks_created_total",
			Help: "Number of perpetual tasks created or found by instance sync",
		}, []string{"task_type"}),
		tasksReset: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tasks_reset_total",
			Help: "Number of perpetual tasks reset in place",
		}, []string{"task_type"}),
		taskFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "task_failures_total",
			Help: "Number of failed perpetual task registry calls",
		}, []string{"task_type"}),
		updateDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "db_update_decisions_total",
			Help: "Instance state write authorizations by flow",
		}, []string{"flow", "allowed"}),
	}
}

var (
	defaultMetricsOnce sync.Once
	defaultMetrics     *Metrics
)

// DefaultMetrics returns the metrics registered in the process registry.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = NewMetrics(promutil.NewFactory4Component("instance_sync"))
	})
	return defaultMetrics
}

func (m *Metrics) created(taskType string) {
	if m != nil {
		m.tasksCreated.WithLabelValues(taskType).Inc()
	}
}

func (m *Metrics) reset(taskType string) {
	if m != nil {
		m.tasksReset.WithLabelValues(taskType).Inc()
	}
}

func (m *Metrics) failed(taskType string) {
	if m != nil {
		m.taskFailures.WithLabelValues(taskType).Inc()
	}
}

func (m *Metrics) decided(flow InstanceSyncFlow, allowed bool) {
	if m != nil {
		m.updateDecisions.WithLabelValues(string(flow), strconv.FormatBool(allowed)).Inc()
	}
}
