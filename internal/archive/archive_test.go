package archive

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ldi/opsvault/internal/store"
	"github.com/ldi/opsvault/pkg/models"
)

func setupArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open archive: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("Failed to init schema: %v", err)
	}
	return a
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	a := setupArchive(t)
	ctx := context.Background()

	s := store.New()
	due := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	first := s.Create(store.Draft{
		Title:    "EMAIL_followup",
		Kind:     models.TaskKindEmail,
		Priority: models.PriorityHigh,
		Content:  "ping the client",
		DueDate:  &due,
		Tags:     []string{"Client-Facing", "Urgent"},
	})
	s.Create(store.Draft{
		Title: "Core_Values_Note",
		Kind:  models.TaskKindNotes,
	})
	if _, err := s.Transition(first.ID, models.TaskStatusInProgress); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}

	if err := a.Save(ctx, s.Tasks()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := a.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(loaded))
	}

	// Iteration order survives the round trip.
	if loaded[0].Title != "Core_Values_Note" || loaded[1].Title != "EMAIL_followup" {
		t.Errorf("Expected stored order preserved, got %s, %s", loaded[0].Title, loaded[1].Title)
	}

	got := loaded[1]
	if got.Status != models.TaskStatusInProgress {
		t.Errorf("Expected In_Progress, got %s", got.Status)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Errorf("Expected due date %v, got %v", due, got.DueDate)
	}
	if fmt.Sprint(got.Tags) != fmt.Sprint([]string{"Client-Facing", "Urgent"}) {
		t.Errorf("Expected tags preserved, got %v", got.Tags)
	}

	if len(got.History) != 2 {
		t.Fatalf("Expected 2 history entries, got %d", len(got.History))
	}
	if got.History[0].Action != "Asset Initialized" {
		t.Errorf("Expected creation entry first, got %q", got.History[0].Action)
	}
	if got.History[1].Action != "Status updated: Needs_Action -> In_Progress" {
		t.Errorf("Expected transition entry second, got %q", got.History[1].Action)
	}

	if loaded[0].DueDate != nil {
		t.Errorf("Expected nil due date to survive, got %v", loaded[0].DueDate)
	}
}

func TestSaveReplacesPreviousContents(t *testing.T) {
	a := setupArchive(t)
	ctx := context.Background()

	s := store.New()
	old := s.Create(store.Draft{Title: "old"})
	if err := a.Save(ctx, s.Tasks()); err != nil {
		t.Fatalf("First save failed: %v", err)
	}

	s2 := store.New()
	s2.Create(store.Draft{Title: "fresh"})
	if err := a.Save(ctx, s2.Tasks()); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	loaded, err := a.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Title != "fresh" {
		t.Fatalf("Expected only the fresh task, got %d tasks", len(loaded))
	}
	if loaded[0].ID == old.ID {
		t.Errorf("Expected old task gone, still present")
	}
}

func TestLoadEmptyArchive(t *testing.T) {
	a := setupArchive(t)

	loaded, err := a.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("Expected empty archive, got %d tasks", len(loaded))
	}
}

func TestRestoredStoreStaysConsistent(t *testing.T) {
	a := setupArchive(t)
	ctx := context.Background()

	s := store.New()
	s.Seed()
	if err := a.Save(ctx, s.Tasks()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := a.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	restored := store.New()
	restored.Restore(loaded)
	if restored.Len() != s.Len() {
		t.Fatalf("Expected %d tasks after restore, got %d", s.Len(), restored.Len())
	}

	// Restored tasks remain addressable and mutable.
	id := restored.First().ID
	if _, err := restored.SaveContent(id, "updated after restore"); err != nil {
		t.Fatalf("SaveContent after restore failed: %v", err)
	}
}
