package models

import (
	"time"

	"github.com/google/uuid"
)

// Well-known history actors. Generated entries carry the generator's
// own name instead.
const (
	ActorSystem   = "System"
	ActorOperator = "Architect"
)

// HistoryEntry is one immutable audit record attached to a task.
// Entries are only ever appended, in chronological order.
type HistoryEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	Actor      string    `json:"actor"`
	RecordedAt time.Time `json:"recorded_at"`
}

func NewHistoryEntry(action, actor string) HistoryEntry {
	return HistoryEntry{
		ID:         uuid.New().String(),
		Action:     action,
		Actor:      actor,
		RecordedAt: time.Now(),
	}
}
