package models

import (
	"fmt"
	"time"
)

// Task is the aggregate for a single todo item.
//
// Invariants:
//   - OwnerID is set once at creation from the verified subject and never
//     changes; no request payload can override it
//   - Title is non-empty and at most 200 characters
//   - Description is nil or at most 1000 characters
//   - CreatedAt is immutable after construction; UpdatedAt is refreshed on
//     every successful mutation
//
// Optional fields marshal as explicit null, never omitted, because the wire
// contract promises stable field presence to clients.
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

// New constructs a Task owned by the given subject. The request is assumed
// validated; see CreateTaskRequest.Validate.
func New(id string, owner string, req CreateTaskRequest, now time.Time) *Task {
	return &Task{
		ID:          id,
		Title:       req.TrimmedTitle(),
		Description: req.Description,
		DueDate:     req.DueDate.Value(),
		IsCompleted: req.IsCompleted,
		CreatedAt:   now,
		UpdatedAt:   now,
		OwnerID:     owner,
	}
}

// ApplyUpdate merges the supplied fields into the task and refreshes
// UpdatedAt. CreatedAt and OwnerID are left untouched.
func (t *Task) ApplyUpdate(req UpdateTaskRequest, now time.Time) {
	if req.Title != nil {
		t.Title = req.TrimmedTitle()
	}
	if req.Description != nil {
		t.Description = req.Description
	}
	if req.DueDate != nil {
		t.DueDate = req.DueDate.Value()
	}
	if req.IsCompleted != nil {
		t.IsCompleted = *req.IsCompleted
	}
	t.UpdatedAt = now
}

// Clone returns a deep copy so stores can hand out tasks without aliasing
// their internal state.
func (t *Task) Clone() *Task {
	c := *t
	if t.Description != nil {
		desc := *t.Description
		c.Description = &desc
	}
	if t.DueDate != nil {
		due := *t.DueDate
		c.DueDate = &due
	}
	return &c
}

// Date is a calendar date without a time component. It marshals as
// YYYY-MM-DD to match the wire contract for dueDate.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
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
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s: expected YYYY-MM-DD string", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
