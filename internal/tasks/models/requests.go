package models

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

const (
	// MaxTitleLen and MaxDescriptionLen bound field sizes in characters,
	// not bytes, so multibyte titles are not penalized.
	MaxTitleLen       = 200
	MaxDescriptionLen = 1000
)

// DateInput is a dueDate as received on the wire. Parsing is deferred so a
// bad format surfaces as a field-level validation detail instead of aborting
// the whole body decode. A JSON null never reaches UnmarshalJSON; it leaves
// the request field nil, meaning "absent".
type DateInput struct {
	date  *Date
	valid bool
}

// DateInputOf wraps an already-parsed date, for building requests in code.
func DateInputOf(d Date) *DateInput {
	return &DateInput{date: &d, valid: true}
}

func (d *DateInput) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		*d = DateInput{}
		return nil
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		*d = DateInput{}
		return nil
	}
	*d = DateInput{date: &parsed, valid: true}
	return nil
}

func (d DateInput) MarshalJSON() ([]byte, error) {
	if d.date == nil {
		return []byte("null"), nil
	}
	return d.date.MarshalJSON()
}

// Value returns a copy of the parsed date, or nil when absent or invalid.
func (d *DateInput) Value() *Date {
	if d == nil || d.date == nil {
		return nil
	}
	due := *d.date
	return &due
}

// CreateTaskRequest is the wire shape for POST /api/tasks.
type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	DueDate     *DateInput `json:"dueDate"`
	IsCompleted bool       `json:"isCompleted"`
}

// TrimmedTitle returns the title with surrounding whitespace removed; the
// trimmed form is what gets validated and persisted.
func (r CreateTaskRequest) TrimmedTitle() string {
	return strings.TrimSpace(r.Title)
}

// HasTitle reports whether a non-blank title was supplied. A blank title is a
// missing required field (bad request), not a length violation.
func (r CreateTaskRequest) HasTitle() bool {
	return r.TrimmedTitle() != ""
}

// Validate returns a field → message map of bound violations. An empty map
// means the request is well-formed.
func (r CreateTaskRequest) Validate() map[string]string {
	details := map[string]string{}
	validateTitle(r.TrimmedTitle(), details)
	validateDescription(r.Description, details)
	validateDueDate(r.DueDate, details)
	return details
}

// UpdateTaskRequest is the wire shape for PUT /api/tasks/{id}. All fields are
// optional; nil means "leave unchanged".
type UpdateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	DueDate     *DateInput `json:"dueDate"`
	IsCompleted *bool      `json:"isCompleted"`
}

// IsEmpty reports whether no field was supplied at all. Empty updates are
// rejected as bad requests rather than silently succeeding.
func (r UpdateTaskRequest) IsEmpty() bool {
	return r.Title == nil && r.Description == nil && r.DueDate == nil && r.IsCompleted == nil
}

// TrimmedTitle returns the supplied title with surrounding whitespace removed.
// Only meaningful when Title is non-nil.
func (r UpdateTaskRequest) TrimmedTitle() string {
	if r.Title == nil {
		return ""
	}
	return strings.TrimSpace(*r.Title)
}

// Validate returns a field → message map of bound violations for the fields
// that were supplied.
func (r UpdateTaskRequest) Validate() map[string]string {
	details := map[string]string{}
	if r.Title != nil {
		if r.TrimmedTitle() == "" {
			details["title"] = "must not be empty"
		} else {
			validateTitle(r.TrimmedTitle(), details)
		}
	}
	validateDescription(r.Description, details)
	validateDueDate(r.DueDate, details)
	return details
}

func validateTitle(title string, details map[string]string) {
	if utf8.RuneCountInString(title) > MaxTitleLen {
		details["title"] = "must be 200 characters or less"
	}
}

func validateDescription(description *string, details map[string]string) {
	if description != nil && utf8.RuneCountInString(*description) > MaxDescriptionLen {
		details["description"] = "must be 1000 characters or less"
	}
}

func validateDueDate(dueDate *DateInput, details map[string]string) {
	if dueDate != nil && !dueDate.valid {
		details["dueDate"] = "must be a valid date in YYYY-MM-DD format"
	}
}
