package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ldi/opsvault/pkg/models"
)

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vault", "snapshot.jsonl")

	s := New()
	s.Seed()
	ip := s.Create(Draft{Title: "EXPORT_me", Kind: models.TaskKindEmail, Priority: models.PriorityHigh})
	mustTransition(t, s, ip.ID, models.TaskStatusInProgress)

	if err := s.ExportSnapshot(path); err != nil {
		t.Fatalf("ExportSnapshot failed: %v", err)
	}

	restored := New()
	if err := restored.ImportSnapshot(path); err != nil {
		t.Fatalf("ImportSnapshot failed: %v", err)
	}

	if restored.Len() != s.Len() {
		t.Fatalf("Expected %d tasks after import, got %d", s.Len(), restored.Len())
	}

	want := s.Tasks()
	got := restored.Tasks()
	for i := range want {
		if got[i].ID != want[i].ID {
			t.Errorf("Task %d: expected id %s, got %s (order not preserved)", i, want[i].ID, got[i].ID)
		}
		if got[i].Status != want[i].Status {
			t.Errorf("Task %s: expected status %s, got %s", want[i].Title, want[i].Status, got[i].Status)
		}
		if len(got[i].History) != len(want[i].History) {
			t.Errorf("Task %s: expected %d history entries, got %d", want[i].Title, len(want[i].History), len(got[i].History))
			continue
		}
		for j := range want[i].History {
			if got[i].History[j].Action != want[i].History[j].Action {
				t.Errorf("Task %s: history entry %d reordered", want[i].Title, j)
			}
		}
	}
}

func TestImportSnapshotRejectsBadStatus(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.jsonl")

	line := `{"id":"x","title":"bad","status":"Archived","kind":"system","priority":"Low","content":"","created_at":"2024-01-01T00:00:00Z","tags":[],"history":[{"id":"h","action":"Asset Initialized","actor":"System","recorded_at":"2024-01-01T00:00:00Z"}]}`
	if err := os.WriteFile(path, []byte(line+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	s := New()
	if err := s.ImportSnapshot(path); err == nil {
		t.Errorf("Expected import to reject unknown status")
	}
}

func TestAutoSnapshotExportsOnMutation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.jsonl")

	s := New()
	s.EnableAutoSnapshot(path)
	s.Create(Draft{Title: "auto"})

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Expected snapshot written after create: %v", err)
	}
}
