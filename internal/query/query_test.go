package query

import (
	"testing"
	"time"

	"github.com/ldi/opsvault/pkg/models"
)

var today = time.Date(2024, 1, 5, 11, 30, 0, 0, time.UTC)

func date(y int, m time.Month, d int) *time.Time {
	ts := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &ts
}

func fixture() []*models.Task {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	return []*models.Task{
		{
			ID: "1", Title: "alpha", Status: models.TaskStatusNeedsAction,
			Kind: models.TaskKindEmail, Priority: models.PriorityHigh,
			CreatedAt: base, DueDate: date(2024, 1, 1),
		},
		{
			ID: "2", Title: "Bravo", Status: models.TaskStatusInProgress,
			Kind: models.TaskKindFinance, Priority: models.PriorityLow,
			CreatedAt: base.Add(time.Hour), DueDate: date(2024, 1, 10),
		},
		{
			ID: "3", Title: "charlie", Status: models.TaskStatusDone,
			Kind: models.TaskKindEmail, Priority: models.PriorityMedium,
			CreatedAt: base.Add(2 * time.Hour),
		},
	}
}

func ids(tasks []*models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func assertIDs(t *testing.T, got []*models.Task, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Expected %d tasks %v, got %d %v", len(want), want, len(got), ids(got))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("Expected order %v, got %v", want, ids(got))
		}
	}
}

func TestDueDateBuckets(t *testing.T) {
	tasks := fixture()

	overdue := Apply(tasks, Filter{Due: DueOverdue}, SortByCreatedAt, Ascending, today)
	assertIDs(t, overdue, "1")

	next7 := Apply(tasks, Filter{Due: DueNextSevenDays}, SortByCreatedAt, Ascending, today)
	assertIDs(t, next7, "2")

	all := Apply(tasks, Filter{Due: DueAll}, SortByCreatedAt, Ascending, today)
	assertIDs(t, all, "1", "2", "3")

	withDue := Apply(tasks, Filter{Due: DueHasDueDate}, SortByCreatedAt, Ascending, today)
	assertIDs(t, withDue, "1", "2")
}

func TestNextSevenDaysBoundariesInclusive(t *testing.T) {
	tasks := []*models.Task{
		{ID: "today", DueDate: date(2024, 1, 5)},
		{ID: "horizon", DueDate: date(2024, 1, 12)},
		{ID: "past-horizon", DueDate: date(2024, 1, 13)},
		{ID: "yesterday", DueDate: date(2024, 1, 4)},
	}

	got := Apply(tasks, Filter{Due: DueNextSevenDays}, SortByDueDate, Ascending, today)
	assertIDs(t, got, "today", "horizon")
}

func TestFiltersCombineWithAND(t *testing.T) {
	tasks := fixture()

	got := Apply(tasks, Filter{Kind: models.TaskKindEmail, Due: DueOverdue}, SortByCreatedAt, Ascending, today)
	assertIDs(t, got, "1")

	got = Apply(tasks, Filter{Kind: models.TaskKindEmail, Status: models.TaskStatusDone}, SortByCreatedAt, Ascending, today)
	assertIDs(t, got, "3")

	got = Apply(tasks, Filter{Kind: models.TaskKindFinance, Status: models.TaskStatusDone}, SortByCreatedAt, Ascending, today)
	assertIDs(t, got)
}

func TestSortByPriority(t *testing.T) {
	tasks := fixture() // High, Low, Medium

	asc := Apply(tasks, Filter{}, SortByPriority, Ascending, today)
	assertIDs(t, asc, "2", "3", "1") // Low, Medium, High

	desc := Apply(tasks, Filter{}, SortByPriority, Descending, today)
	assertIDs(t, desc, "1", "3", "2")
}

func TestSortByTitleIgnoresCase(t *testing.T) {
	tasks := fixture()

	asc := Apply(tasks, Filter{}, SortByTitle, Ascending, today)
	assertIDs(t, asc, "1", "2", "3") // alpha, Bravo, charlie
}

func TestSortByDueDateMissingValues(t *testing.T) {
	tasks := fixture() // due 2024-01-01, 2024-01-10, none

	asc := Apply(tasks, Filter{}, SortByDueDate, Ascending, today)
	assertIDs(t, asc, "1", "2", "3") // missing at the end

	desc := Apply(tasks, Filter{}, SortByDueDate, Descending, today)
	assertIDs(t, desc, "3", "2", "1") // missing at the front
}

func TestSortByStatusUsesDisplayOrder(t *testing.T) {
	tasks := fixture()

	asc := Apply(tasks, Filter{}, SortByStatus, Ascending, today)
	assertIDs(t, asc, "1", "2", "3") // Needs_Action, In_Progress, Done
}

func TestSortIsIdempotentAndReversible(t *testing.T) {
	tasks := fixture()

	once := Apply(tasks, Filter{}, SortByPriority, Ascending, today)
	twice := Apply(once, Filter{}, SortByPriority, Ascending, today)
	for i := range once {
		if once[i].ID != twice[i].ID {
			t.Fatalf("Sorting twice changed the order: %v vs %v", ids(once), ids(twice))
		}
	}

	desc := Apply(tasks, Filter{}, SortByPriority, Descending, today)
	for i := range once {
		if once[i].ID != desc[len(desc)-1-i].ID {
			t.Fatalf("Descending is not the reverse of ascending: %v vs %v", ids(once), ids(desc))
		}
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	tasks := fixture()
	before := ids(tasks)

	Apply(tasks, Filter{Kind: models.TaskKindEmail}, SortByTitle, Descending, today)

	after := ids(tasks)
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("Apply reordered its input: %v -> %v", before, after)
		}
	}
}

func TestGroupByStatus(t *testing.T) {
	tasks := fixture()

	buckets := GroupByStatus(tasks, Filter{}, SortByTitle, Ascending, today)
	if len(buckets) != 4 {
		t.Fatalf("Expected 4 buckets, got %d", len(buckets))
	}

	wantOrder := models.StatusDisplayOrder
	for i, b := range buckets {
		if b.Status != wantOrder[i] {
			t.Errorf("Bucket %d: expected %s, got %s", i, wantOrder[i], b.Status)
		}
	}

	assertIDs(t, buckets[0].Tasks, "1")
	assertIDs(t, buckets[1].Tasks, "2")
	assertIDs(t, buckets[2].Tasks)
	assertIDs(t, buckets[3].Tasks, "3")
}

func TestGroupByStatusRespectsStatusFilter(t *testing.T) {
	tasks := fixture()

	buckets := GroupByStatus(tasks, Filter{Status: models.TaskStatusDone}, SortByTitle, Ascending, today)
	if len(buckets) != 4 {
		t.Fatalf("Expected the fixed 4 buckets, got %d", len(buckets))
	}
	assertIDs(t, buckets[0].Tasks)
	assertIDs(t, buckets[3].Tasks, "3")
}
