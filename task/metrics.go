package task

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tasksSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hslindex_tasks_submitted_total",
		Help: "Tasks accepted by the task manager.",
	})
	tasksRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hslindex_tasks_rejected_total",
		Help: "Tasks refused because the manager was shutting down or the queue was full.",
	})
	tasksFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hslindex_tasks_finished_total",
		Help: "Tasks that reached a terminal state, by state.",
	}, []string{"state"})
	tasksRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hslindex_tasks_running",
		Help: "Tasks currently executing on a worker.",
	})
)
