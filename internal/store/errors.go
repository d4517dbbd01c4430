package store

import "fmt"

// NotFoundError reports an operation that referenced an unknown task id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.ID)
}

// WouldEmptyStoreError reports a delete that was refused because it
// would have removed the last remaining task(s). The store is unchanged.
type WouldEmptyStoreError struct {
	Requested int
	Count     int
}

func (e *WouldEmptyStoreError) Error() string {
	return fmt.Sprintf("refusing to delete %d of %d tasks: the vault must retain at least one task", e.Requested, e.Count)
}
