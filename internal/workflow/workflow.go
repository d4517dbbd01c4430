// Package workflow is the single gate through which a task's status may
// change. It owns the transition table and the policy reasons reported
// when a requested transition is refused.
package workflow

import (
	"fmt"

	"github.com/ldi/opsvault/pkg/models"
)

var transitions = map[models.TaskStatus][]models.TaskStatus{
	models.TaskStatusNeedsAction:     {models.TaskStatusInProgress},
	models.TaskStatusInProgress:      {models.TaskStatusPendingApproval, models.TaskStatusDone, models.TaskStatusNeedsAction},
	models.TaskStatusPendingApproval: {models.TaskStatusDone, models.TaskStatusInProgress},
	models.TaskStatusDone:            {models.TaskStatusInProgress},
}

// InvalidTransitionError reports a refused status change together with
// the policy reason. The store leaves the task untouched when this is
// returned.
type InvalidTransitionError struct {
	From   models.TaskStatus
	To     models.TaskStatus
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	return e.Reason
}

// Allowed returns the statuses reachable from the given status in one
// step. The returned slice must not be mutated.
func Allowed(from models.TaskStatus) []models.TaskStatus {
	return transitions[from]
}

// CanTransition reports whether from -> to is legal. A self-transition
// is treated as a legal no-op.
func CanTransition(from, to models.TaskStatus) bool {
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Apply mutates t to the requested status and appends a history entry
// recording the change. A self-transition succeeds without mutating
// anything. A refused transition mutates nothing and returns an
// *InvalidTransitionError; changed reports whether the task was
// actually modified.
func Apply(t *models.Task, to models.TaskStatus, actor string) (changed bool, err error) {
	if to == t.Status {
		return false, nil
	}
	if !to.IsValid() || !CanTransition(t.Status, to) {
		return false, &InvalidTransitionError{
			From:   t.Status,
			To:     to,
			Reason: refusalReason(t.Status, to),
		}
	}

	from := t.Status
	t.Status = to
	t.History = append(t.History, models.NewHistoryEntry(
		fmt.Sprintf("Status updated: %s -> %s", from, to), actor))
	return true, nil
}

// refusalReason maps specific disallowed pairs to their policy message.
// These three messages encode workflow policy, not generic refusal, so
// their wording is deliberate.
func refusalReason(from, to models.TaskStatus) string {
	switch {
	case from == models.TaskStatusNeedsAction && to == models.TaskStatusDone:
		return "Quality Gate: Tasks must be 'In Progress' before being marked as 'Done'."
	case from == models.TaskStatusNeedsAction && to == models.TaskStatusPendingApproval:
		return "Pre-requisite missing: You must start work ('In Progress') before requesting approval."
	case from == models.TaskStatusDone && (to == models.TaskStatusNeedsAction || to == models.TaskStatusPendingApproval):
		return "Audit Trail Reset: Completed tasks must revert to 'In Progress' for modifications."
	}
	return fmt.Sprintf("Workflow Violation: Cannot transition from '%s' to '%s'.", from.Label(), to.Label())
}
