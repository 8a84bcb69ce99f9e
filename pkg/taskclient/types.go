package taskclient

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date on the wire, formatted as YYYY-MM-DD.
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(value string) (Date, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return fmt.Errorf("invalid date %s: expected a JSON string", raw)
	}
	parsed, err := ParseDate(raw[1 : len(raw)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Task is the task record as the server represents it.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	DueDate     *Date     `json:"dueDate"`
	IsCompleted bool      `json:"isCompleted"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	OwnerID     string    `json:"ownerId"`
}

// Clone returns a deep copy so cache internals never alias caller memory.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	clone := *t
	if t.Description != nil {
		desc := *t.Description
		clone.Description = &desc
	}
	if t.DueDate != nil {
		due := *t.DueDate
		clone.DueDate = &due
	}
	return &clone
}

// CreateTaskRequest is the payload for creating a task.
type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	DueDate     *Date   `json:"dueDate,omitempty"`
	IsCompleted bool    `json:"isCompleted,omitempty"`
}

// UpdateTaskRequest is the payload for a partial update. Nil fields are left
// unchanged by the server.
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	DueDate     *Date   `json:"dueDate,omitempty"`
	IsCompleted *bool   `json:"isCompleted,omitempty"`
}
