package models

import "time"

type TaskStatus string

const (
	TaskStatusNeedsAction     TaskStatus = "Needs_Action"
	TaskStatusInProgress      TaskStatus = "In_Progress"
	TaskStatusPendingApproval TaskStatus = "Pending_Approval"
	TaskStatusDone            TaskStatus = "Done"
)

// StatusDisplayOrder is the fixed order used for grouped views and the
// status sort key.
var StatusDisplayOrder = []TaskStatus{
	TaskStatusNeedsAction,
	TaskStatusInProgress,
	TaskStatusPendingApproval,
	TaskStatusDone,
}

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusNeedsAction, TaskStatusInProgress, TaskStatusPendingApproval, TaskStatusDone:
		return true
	}
	return false
}

// Rank returns the position of s in StatusDisplayOrder.
func (s TaskStatus) Rank() int {
	for i, v := range StatusDisplayOrder {
		if v == s {
			return i
		}
	}
	return len(StatusDisplayOrder)
}

// Label is the human-readable form ("Needs_Action" -> "Needs Action").
func (s TaskStatus) Label() string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '_' {
			out[i] = ' '
		} else {
			out[i] = s[i]
		}
	}
	return string(out)
}

type TaskKind string

const (
	TaskKindEmail   TaskKind = "email"
	TaskKindFinance TaskKind = "finance"
	TaskKindSocial  TaskKind = "social"
	TaskKindSystem  TaskKind = "system"
	TaskKindNotes   TaskKind = "notes"
)

func (k TaskKind) IsValid() bool {
	switch k {
	case TaskKindEmail, TaskKindFinance, TaskKindSocial, TaskKindSystem, TaskKindNotes:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"
)

func (p TaskPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Weight orders priorities Low < Medium < High.
func (p TaskPriority) Weight() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	}
	return 0
}

type Task struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Status    TaskStatus     `json:"status"`
	Kind      TaskKind       `json:"kind"`
	Priority  TaskPriority   `json:"priority"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	DueDate   *time.Time     `json:"due_date,omitempty"`
	Tags      []string       `json:"tags"`
	History   []HistoryEntry `json:"history"`
}

// Clone returns a deep copy so callers can hand tasks to read-only
// consumers without exposing the store's backing slices.
func (t *Task) Clone() *Task {
	c := *t
	if t.DueDate != nil {
		due := *t.DueDate
		c.DueDate = &due
	}
	c.Tags = append([]string(nil), t.Tags...)
	c.History = append([]HistoryEntry(nil), t.History...)
	return &c
}

// DateOnly truncates ts to midnight in its own location. Due-date
// comparisons ignore time of day.
func DateOnly(ts time.Time) time.Time {
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
}
