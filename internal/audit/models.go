package audit

import "time"

// Action identifies what happened to a task.
type Action string

const (
	ActionCreated Action = "task.created"
	ActionUpdated Action = "task.updated"
	ActionDeleted Action = "task.deleted"
)

// Event is emitted from domain logic to capture mutations out-of-band. Keep
// it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	Subject   string
	Action    Action
	TaskID    string
	RequestID string
}
