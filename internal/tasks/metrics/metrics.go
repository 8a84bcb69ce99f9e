package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the tasks module.
type Metrics struct {
	TasksCreated prometheus.Counter
	TasksUpdated prometheus.Counter
	TasksDeleted prometheus.Counter
}

// New creates a new Metrics instance with all tasks module metrics registered.
func New() *Metrics {
	return &Metrics{
		TasksCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "taskdeck_tasks_created_total",
			Help: "Total number of tasks created",
		}),
		TasksUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "taskdeck_tasks_updated_total",
			Help: "Total number of tasks updated",
		}),
		TasksDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "taskdeck_tasks_deleted_total",
			Help: "Total number of tasks deleted",
		}),
	}
}

// IncrementTasksCreated records a successful task creation.
func (m *Metrics) IncrementTasksCreated() {
	m.TasksCreated.Inc()
}

// IncrementTasksUpdated records a successful task update.
func (m *Metrics) IncrementTasksUpdated() {
	m.TasksUpdated.Inc()
}

// IncrementTasksDeleted records a successful task deletion.
func (m *Metrics) IncrementTasksDeleted() {
	m.TasksDeleted.Inc()
}
