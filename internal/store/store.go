// Package store owns the authoritative task collection. Every mutation
// goes through it: status changes are delegated to the workflow gate,
// and each accepted mutation appends to the task's audit history.
package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/ldi/opsvault/internal/workflow"
	"github.com/ldi/opsvault/pkg/models"
)

// Store holds the task collection in iteration order, most recently
// created first. Operations are synchronous and all-or-nothing; a
// failed operation leaves the collection exactly as it was.
type Store struct {
	tasks    []*models.Task
	byID     map[string]*models.Task
	now      func() time.Time
	onChange func()
}

func New() *Store {
	return &Store{
		byID: make(map[string]*models.Task),
		now:  time.Now,
	}
}

// SetOnChange registers a hook invoked after every successful mutation.
// Used to auto-export snapshots.
func (s *Store) SetOnChange(fn func()) {
	s.onChange = fn
}

func (s *Store) triggerChange() {
	if s.onChange != nil {
		s.onChange()
	}
}

// SetClock overrides the store's time source. Intended for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Draft carries the caller-supplied fields for a new task. Identity,
// creation time, initial status and the seed history entry are assigned
// by the store.
type Draft struct {
	Title    string
	Kind     models.TaskKind
	Priority models.TaskPriority
	Content  string
	DueDate  *time.Time
	Tags     []string
	Actor    string
}

// Create inserts a new task at the front of iteration order and returns
// a copy of it. New tasks always start at Needs_Action with a single
// "Asset Initialized" history entry.
func (s *Store) Create(d Draft) *models.Task {
	actor := d.Actor
	if actor == "" {
		actor = models.ActorOperator
	}
	if d.Priority == "" {
		d.Priority = models.PriorityMedium
	}
	if d.Kind == "" {
		d.Kind = models.TaskKindSystem
	}

	t := &models.Task{
		ID:        uuid.New().String(),
		Title:     d.Title,
		Status:    models.TaskStatusNeedsAction,
		Kind:      d.Kind,
		Priority:  d.Priority,
		Content:   d.Content,
		CreatedAt: s.now(),
		Tags:      append([]string(nil), d.Tags...),
		History:   []models.HistoryEntry{models.NewHistoryEntry("Asset Initialized", actor)},
	}
	if d.DueDate != nil {
		due := models.DateOnly(*d.DueDate)
		t.DueDate = &due
	}

	s.tasks = append([]*models.Task{t}, s.tasks...)
	s.byID[t.ID] = t
	s.triggerChange()
	return t.Clone()
}

// Fields is a partial update. Nil pointers mean "leave unchanged";
// ClearDueDate removes the due date regardless of DueDate.
type Fields struct {
	Title        *string
	Content      *string
	Priority     *models.TaskPriority
	DueDate      *time.Time
	ClearDueDate bool
	Tags         *[]string
}

// UpdateFields applies a partial update to the task with the given id.
// When historyMsg is non-empty exactly one history entry is appended;
// an empty historyMsg records nothing, which is how high-frequency
// content edits avoid flooding the audit trail.
func (s *Store) UpdateFields(id string, f Fields, historyMsg, actor string) (*models.Task, error) {
	t, ok := s.byID[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}

	if f.Title != nil {
		t.Title = *f.Title
	}
	if f.Content != nil {
		t.Content = *f.Content
	}
	if f.Priority != nil {
		t.Priority = *f.Priority
	}
	if f.ClearDueDate {
		t.DueDate = nil
	} else if f.DueDate != nil {
		due := models.DateOnly(*f.DueDate)
		t.DueDate = &due
	}
	if f.Tags != nil {
		t.Tags = append([]string(nil), (*f.Tags)...)
	}

	if historyMsg != "" {
		if actor == "" {
			actor = models.ActorOperator
		}
		t.History = append(t.History, models.NewHistoryEntry(historyMsg, actor))
	}
	s.triggerChange()
	return t.Clone(), nil
}

// SaveContent is the deliberate checkpoint for free-text edits: it
// writes the content and appends a single "Manual content save" entry.
func (s *Store) SaveContent(id, content string) (*models.Task, error) {
	return s.UpdateFields(id, Fields{Content: &content}, "Manual content save", models.ActorOperator)
}

// Transition requests a status change through the workflow gate. On
// refusal the task is untouched and the returned error carries the
// policy reason.
func (s *Store) Transition(id string, to models.TaskStatus) (*models.Task, error) {
	return s.TransitionAs(id, to, models.ActorOperator)
}

func (s *Store) TransitionAs(id string, to models.TaskStatus, actor string) (*models.Task, error) {
	t, ok := s.byID[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	changed, err := workflow.Apply(t, to, actor)
	if err != nil {
		return nil, err
	}
	if changed {
		s.triggerChange()
	}
	return t.Clone(), nil
}

// Delete removes the tasks with the given ids atomically and returns
// the ids actually removed, so external selection state can be
// reconciled. It is refused outright with *WouldEmptyStoreError when it
// could leave the store empty.
func (s *Store) Delete(ids ...string) ([]string, error) {
	if len(ids) >= len(s.tasks) {
		return nil, &WouldEmptyStoreError{Requested: len(ids), Count: len(s.tasks)}
	}

	doomed := make(map[string]bool, len(ids))
	for _, id := range ids {
		doomed[id] = true
	}

	var removed []string
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if doomed[t.ID] {
			removed = append(removed, t.ID)
			delete(s.byID, t.ID)
			continue
		}
		kept = append(kept, t)
	}
	s.tasks = kept
	if len(removed) > 0 {
		s.triggerChange()
	}
	return removed, nil
}

// Get returns a copy of the task with the given id.
func (s *Store) Get(id string) (*models.Task, error) {
	t, ok := s.byID[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return t.Clone(), nil
}

// Tasks returns a copy of the collection in iteration order, most
// recently created first.
func (s *Store) Tasks() []*models.Task {
	out := make([]*models.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

func (s *Store) Len() int {
	return len(s.tasks)
}

// First returns the first task in iteration order, or nil when the
// store is empty. Presentation layers fall back to it after their
// selected task disappears.
func (s *Store) First() *models.Task {
	if len(s.tasks) == 0 {
		return nil
	}
	return s.tasks[0].Clone()
}

// Restore replaces the collection with previously serialized tasks,
// preserving their order, ids and history. Used by snapshot import and
// the archive loader.
func (s *Store) Restore(tasks []*models.Task) {
	s.tasks = make([]*models.Task, 0, len(tasks))
	s.byID = make(map[string]*models.Task, len(tasks))
	for _, t := range tasks {
		c := t.Clone()
		s.tasks = append(s.tasks, c)
		s.byID[c.ID] = c
	}
	s.triggerChange()
}
