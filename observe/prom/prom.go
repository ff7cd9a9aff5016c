// Package prom exports scope lifecycle events as Prometheus metrics.
package prom

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/NetPo4ki/go-supervise/scope"
)

// Observer implements scope.Observer on top of a Prometheus registry.
type Observer struct {
	activeTasks     prometheus.Gauge
	tasksStarted    prometheus.Counter
	tasksFinished   *prometheus.CounterVec
	taskDuration    prometheus.Histogram
	scopesCreated   prometheus.Counter
	scopesCancelled prometheus.Counter
	joinWait        prometheus.Histogram
}

// New registers the observer's collectors with reg and returns it. A nil
// reg uses the default registerer.
func New(reg prometheus.Registerer) *Observer {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &Observer{
		activeTasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "supervise_active_tasks",
			Help: "Number of currently running tasks.",
		}),
		tasksStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "supervise_tasks_started_total",
			Help: "Total number of tasks started.",
		}),
		tasksFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "supervise_tasks_finished_total",
			Help: "Total number of tasks reaching a terminal state.",
		}, []string{"state"}),
		taskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "supervise_task_duration_seconds",
			Help:    "Task run time from start to terminal state, in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		scopesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "supervise_scopes_created_total",
			Help: "Total number of scopes created.",
		}),
		scopesCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "supervise_scopes_cancelled_total",
			Help: "Total number of scopes cancelled.",
		}),
		joinWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "supervise_join_wait_seconds",
			Help:    "Time spent blocked in Wait joining a scope, in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		o.activeTasks,
		o.tasksStarted,
		o.tasksFinished,
		o.taskDuration,
		o.scopesCreated,
		o.scopesCancelled,
		o.joinWait,
	)
	// Pre-initialize terminal-state labels so they report 0 from startup.
	for _, s := range []scope.TaskState{scope.StateCompleted, scope.StateFailed, scope.StateCancelled} {
		o.tasksFinished.WithLabelValues(s.String())
	}
	return o
}

func (o *Observer) ScopeCreated(_ context.Context) {
	o.scopesCreated.Inc()
}

func (o *Observer) ScopeCancelled(_ context.Context, _ error) {
	o.scopesCancelled.Inc()
}

func (o *Observer) ScopeJoined(_ context.Context, wait time.Duration) {
	o.joinWait.Observe(wait.Seconds())
}

func (o *Observer) TaskStarted(_ context.Context) {
	o.activeTasks.Inc()
	o.tasksStarted.Inc()
}

func (o *Observer) TaskFinished(_ context.Context, dur time.Duration, state scope.TaskState, _ error) {
	o.activeTasks.Dec()
	o.tasksFinished.WithLabelValues(state.String()).Inc()
	o.taskDuration.Observe(dur.Seconds())
}
