package todo

import (
	"errors"
	"strings"
	"time"
	"unicode"
)

// DefaultProject is the name of the project that always exists.
const DefaultProject = "DEFAULT"

// DateLayout is the layout of Todo.DueDate.
const DateLayout = "2006-01-02"

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority accepts the enum values case-insensitively. An empty string
// is treated as low.
func ParsePriority(s string) (Priority, error) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case "", PriorityLow:
		return PriorityLow, nil
	case PriorityMedium:
		return PriorityMedium, nil
	case PriorityHigh:
		return PriorityHigh, nil
	}
	return "", ErrInvalidPriority
}

type Todo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	DueDate     string   `json:"dueDate"`
	Priority    Priority `json:"priority"`
	Completed   bool     `json:"completed"`
}

// Due parses DueDate in the local time zone.
func (t Todo) Due() (time.Time, error) {
	return time.ParseInLocation(DateLayout, t.DueDate, time.Local)
}

// Overdue reports whether an incomplete todo's due date is before the day of now.
func (t Todo) Overdue(now time.Time) bool {
	if t.Completed {
		return false
	}
	due, err := t.Due()
	if err != nil {
		return false
	}
	return due.Before(startOfDay(now))
}

type Project struct {
	Name  string `json:"name"`
	Todos []Todo `json:"todos"`
}

func (p Project) IsDefault() bool {
	return p.Name == DefaultProject
}

// Label is the display name; the default project reads "To Do (Default)".
func (p Project) Label() string {
	if p.IsDefault() {
		return "To Do (Default)"
	}
	return p.Name
}

// CompletedCount returns the number of completed todos.
func (p Project) CompletedCount() int {
	n := 0
	for _, t := range p.Todos {
		if t.Completed {
			n++
		}
	}
	return n
}

// Fields is the user-editable part of a Todo.
type Fields struct {
	Name        string
	Description string
	DueDate     string
	Priority    Priority
}

// FieldsOf returns the editable fields of t.
func FieldsOf(t Todo) Fields {
	return Fields{
		Name:        t.Name,
		Description: t.Description,
		DueDate:     t.DueDate,
		Priority:    t.Priority,
	}
}

// Validation and lookup errors.
var (
	ErrNameRequired        = errors.New("todo name is required")
	ErrDueDateRequired     = errors.New("due date is required")
	ErrInvalidDueDate      = errors.New("due date must be YYYY-MM-DD")
	ErrDueDateInPast       = errors.New("due date cannot be in the past")
	ErrInvalidPriority     = errors.New("priority must be low, medium or high")
	ErrProjectNameRequired = errors.New("project name is required")
	ErrDuplicateProject    = errors.New("a project with this name already exists")
	ErrProjectNotFound     = errors.New("project not found")
	ErrTodoNotFound        = errors.New("todo not found")
)

// validate normalizes f and checks the required fields. minDate is the
// earliest acceptable due date; a zero minDate skips the check.
func (f Fields) validate(minDate time.Time) (Fields, error) {
	f.Name = sanitize(f.Name, false)
	f.Description = sanitize(f.Description, true)
	f.DueDate = strings.TrimSpace(f.DueDate)
	if f.Name == "" {
		return f, ErrNameRequired
	}
	if err := ValidateDueDate(f.DueDate, minDate); err != nil {
		return f, err
	}
	p, err := ParsePriority(string(f.Priority))
	if err != nil {
		return f, err
	}
	f.Priority = p
	return f, nil
}

// ValidateDueDate checks that s is a YYYY-MM-DD date not before minDate.
func ValidateDueDate(s string, minDate time.Time) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return ErrDueDateRequired
	}
	due, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return ErrInvalidDueDate
	}
	if !minDate.IsZero() && due.Before(startOfDay(minDate)) {
		return ErrDueDateInPast
	}
	return nil
}

// Today returns the current date in DateLayout.
func Today() string {
	return now().Format(DateLayout)
}

var now = time.Now

func startOfDay(t time.Time) time.Time {
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// sanitize trims s and drops control characters, which would otherwise be
// written straight to the terminal. Multi-line text keeps its newlines.
func sanitize(s string, multiline bool) string {
	s = strings.Map(func(r rune) rune {
		if multiline && r == '\n' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
