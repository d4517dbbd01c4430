// Package query derives read-only views of the task collection:
// filtering, sorting and grouping for presentation. Nothing in here
// mutates its inputs, and identical inputs always produce identical
// output.
package query

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/ldi/opsvault/pkg/models"
)

type DueFilter string

const (
	DueAll           DueFilter = "all"
	DueHasDueDate    DueFilter = "has_due_date"
	DueOverdue       DueFilter = "overdue"
	DueNextSevenDays DueFilter = "next_7_days"
)

type SortKey string

const (
	SortByTitle     SortKey = "title"
	SortByStatus    SortKey = "status"
	SortByPriority  SortKey = "priority"
	SortByCreatedAt SortKey = "created_at"
	SortByDueDate   SortKey = "due_date"
)

type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// Filter is a set of independently composable predicates combined with
// logical AND. Zero values ("" / DueAll) match everything.
type Filter struct {
	Kind   models.TaskKind
	Status models.TaskStatus
	Due    DueFilter
}

// titles sort the way a directory listing would, not by raw code
// points.
var titleCollator = collate.New(language.Und, collate.Loose)

// Match reports whether t passes every active predicate. Due-date
// buckets compare dates only; a task without a due date passes only
// the DueAll bucket.
func (f Filter) Match(t *models.Task, today time.Time) bool {
	if f.Kind != "" && t.Kind != f.Kind {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}

	switch f.Due {
	case "", DueAll:
		return true
	case DueHasDueDate:
		return t.DueDate != nil
	case DueOverdue:
		return t.DueDate != nil && t.DueDate.Before(models.DateOnly(today))
	case DueNextSevenDays:
		if t.DueDate == nil {
			return false
		}
		day := models.DateOnly(today)
		horizon := day.AddDate(0, 0, 7)
		return !t.DueDate.Before(day) && !t.DueDate.After(horizon)
	}
	return false
}

// Apply filters and sorts without touching the input slice. The sort is
// stable, and descending order is the exact inversion of ascending.
func Apply(tasks []*models.Task, f Filter, key SortKey, order SortOrder, today time.Time) []*models.Task {
	out := make([]*models.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t, today) {
			out = append(out, t)
		}
	}
	Sort(out, key, order)
	return out
}

// Sort orders tasks in place by the given key. Order is applied by
// inverting the ascending comparison, never by a second comparator.
func Sort(tasks []*models.Task, key SortKey, order SortOrder) {
	cmp := comparator(key)
	if cmp == nil {
		return
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		c := cmp(tasks[i], tasks[j])
		if order == Descending {
			c = -c
		}
		return c < 0
	})
}

func comparator(key SortKey) func(a, b *models.Task) int {
	switch key {
	case SortByTitle:
		return func(a, b *models.Task) int {
			return titleCollator.CompareString(a.Title, b.Title)
		}
	case SortByStatus:
		return func(a, b *models.Task) int {
			return a.Status.Rank() - b.Status.Rank()
		}
	case SortByPriority:
		return func(a, b *models.Task) int {
			return a.Priority.Weight() - b.Priority.Weight()
		}
	case SortByCreatedAt:
		return func(a, b *models.Task) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	case SortByDueDate:
		// Missing due dates are largest, so they land at the end
		// ascending and at the front descending.
		return func(a, b *models.Task) int {
			switch {
			case a.DueDate == nil && b.DueDate == nil:
				return 0
			case a.DueDate == nil:
				return 1
			case b.DueDate == nil:
				return -1
			}
			return a.DueDate.Compare(*b.DueDate)
		}
	}
	return nil
}

// Bucket is one status folder of a grouped view.
type Bucket struct {
	Status models.TaskStatus
	Tasks  []*models.Task
}

// GroupByStatus partitions tasks into the four fixed status buckets in
// display order, each independently filtered and sorted. Buckets a
// status filter excludes come back empty rather than missing, so the
// shape of the result never changes.
func GroupByStatus(tasks []*models.Task, f Filter, key SortKey, order SortOrder, today time.Time) []Bucket {
	buckets := make([]Bucket, 0, len(models.StatusDisplayOrder))
	for _, status := range models.StatusDisplayOrder {
		bf := f
		bf.Status = status
		var bucket []*models.Task
		if f.Status == "" || f.Status == status {
			bucket = Apply(tasks, bf, key, order, today)
		}
		buckets = append(buckets, Bucket{Status: status, Tasks: bucket})
	}
	return buckets
}
