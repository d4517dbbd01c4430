package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/ldi/opsvault/internal/archive"
	"github.com/ldi/opsvault/internal/gen"
	"github.com/ldi/opsvault/internal/mcp"
	"github.com/ldi/opsvault/internal/query"
	"github.com/ldi/opsvault/internal/store"
	"github.com/ldi/opsvault/pkg/models"
)

var (
	archivePath  string
	snapshotPath string
)

func main() {
	// Optional .env for OPENAI_API_KEY and friends.
	godotenv.Load()

	flag.StringVar(&archivePath, "archive-path", ".opsvault/opsvault.db", "Path to archive database file")
	flag.StringVar(&snapshotPath, "snapshot-path", ".opsvault/snapshot.jsonl", "Path to snapshot file")
	flag.Parse()

	if flag.NArg() == 0 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	var err error
	switch command {
	case "init":
		err = runInit(args)
	case "mcp":
		err = runMCP(args)
	case "list-tasks":
		err = runListTasks(args)
	case "status":
		err = runStatus(args)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: opsvault [flags] <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  init        Initialize the workspace and seed starter tasks")
	fmt.Println("  mcp         Run the MCP server on stdio")
	fmt.Println("  list-tasks  List tasks with optional filters")
	fmt.Println("  status      Show workspace status")
}

// openStore loads the archived collection into a fresh store, seeding
// starter tasks when the archive is empty, and wires persistence so
// every mutation is written back to both the archive and the JSONL
// snapshot.
func openStore(ctx context.Context) (*store.Store, *archive.Archive, error) {
	a, err := archive.Open(archivePath)
	if err != nil {
		return nil, nil, err
	}
	if err := a.Init(ctx); err != nil {
		a.Close()
		return nil, nil, err
	}

	tasks, err := a.Load(ctx)
	if err != nil {
		a.Close()
		return nil, nil, err
	}

	s := store.New()
	if len(tasks) > 0 {
		s.Restore(tasks)
	} else {
		s.Seed()
	}

	s.SetOnChange(func() {
		if err := a.Save(ctx, s.Tasks()); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving archive: %v\n", err)
		}
		if err := s.ExportSnapshot(snapshotPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting snapshot: %v\n", err)
		}
	})
	return s, a, nil
}

// newGenService builds the generation service from the environment.
// Returns nil when no API key is configured; generation tools then
// explain how to enable themselves.
func newGenService(s *store.Store) *gen.Service {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil
	}
	return gen.NewService(s, gen.NewClient(key, os.Getenv("OPENAI_MODEL")))
}

func runInit(args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	vaultDir := filepath.Join(targetDir, ".opsvault")
	if err := os.MkdirAll(vaultDir, 0755); err != nil {
		return fmt.Errorf("failed to create .opsvault directory: %w", err)
	}
	fmt.Println("✓ Created .opsvault/ directory")

	gitignorePath := filepath.Join(vaultDir, ".gitignore")
	if err := os.WriteFile(gitignorePath, []byte("opsvault.db*\n"), 0644); err != nil {
		return fmt.Errorf("failed to create .gitignore: %w", err)
	}
	fmt.Println("✓ Created .opsvault/.gitignore")

	if archivePath == ".opsvault/opsvault.db" {
		archivePath = filepath.Join(vaultDir, "opsvault.db")
	}
	if snapshotPath == ".opsvault/snapshot.jsonl" {
		snapshotPath = filepath.Join(vaultDir, "snapshot.jsonl")
	}

	ctx := context.Background()
	s, a, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// openStore seeds an empty archive; persist the result.
	if err := a.Save(ctx, s.Tasks()); err != nil {
		return fmt.Errorf("failed to save archive: %w", err)
	}
	fmt.Printf("✓ Initialized archive at %s with %d task(s)\n", archivePath, s.Len())
	return nil
}

func runMCP(args []string) error {
	ctx := context.Background()
	s, a, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := mcp.NewServer(s, newGenService(s))
	return mcp.Serve(srv)
}

func runListTasks(args []string) error {
	taskFlags := flag.NewFlagSet("list-tasks", flag.ContinueOnError)
	kindFilter := taskFlags.String("kind", "", "Filter by kind (email|finance|social|system|notes)")
	statusFilter := taskFlags.String("status", "", "Filter by status (Needs_Action|In_Progress|Pending_Approval|Done)")
	dueFilter := taskFlags.String("due", "all", "Due bucket (all|has_due_date|overdue|next_7_days)")
	sortBy := taskFlags.String("sort", "created_at", "Sort key (title|status|priority|created_at|due_date)")
	order := taskFlags.String("order", "desc", "Sort order (asc|desc)")
	if err := taskFlags.Parse(args); err != nil {
		return err
	}

	f := query.Filter{
		Kind:   models.TaskKind(*kindFilter),
		Status: models.TaskStatus(*statusFilter),
		Due:    query.DueFilter(*dueFilter),
	}
	if f.Kind != "" && !f.Kind.IsValid() {
		return fmt.Errorf("invalid kind '%s'", f.Kind)
	}
	if f.Status != "" && !f.Status.IsValid() {
		return fmt.Errorf("invalid status '%s'", f.Status)
	}

	ctx := context.Background()
	s, a, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	tasks := query.Apply(s.Tasks(), f, query.SortKey(*sortBy), query.SortOrder(*order), time.Now())

	fmt.Printf("%-30s %-10s %-10s %-18s %-15s %s\n", "TITLE", "KIND", "PRIORITY", "STATUS", "DUE", "CREATED")
	fmt.Println("--------------------------------------------------------------------------------------------------")
	for _, t := range tasks {
		fmt.Printf("%-30s %-10s %-10s %-18s %-15s %s\n",
			truncate(t.Title, 30), t.Kind, t.Priority, t.Status.Label(), formatDue(t.DueDate), humanize.Time(t.CreatedAt))
	}
	return nil
}

func runStatus(args []string) error {
	ctx := context.Background()
	s, a, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	tasks := s.Tasks()
	counts := statusCounts(tasks)
	overdue := 0
	today := models.DateOnly(time.Now())
	for _, t := range tasks {
		if t.DueDate != nil && t.DueDate.Before(today) && t.Status != models.TaskStatusDone {
			overdue++
		}
	}

	fmt.Println("OpsVault Status")
	fmt.Println("===============")
	fmt.Printf("Total Tasks: %d\n", len(tasks))
	fmt.Printf("Overdue:     %d\n", overdue)

	fmt.Println("\nTask Breakdown:")
	for _, status := range models.StatusDisplayOrder {
		fmt.Printf("  %-17s %d\n", status.Label()+":", counts[status])
	}

	if first := s.First(); first != nil {
		fmt.Printf("\nMost recent: %s (%s)\n", first.Title, humanize.Time(first.CreatedAt))
	}
	return nil
}

func statusCounts(tasks []*models.Task) map[models.TaskStatus]int {
	counts := make(map[models.TaskStatus]int)
	for _, t := range tasks {
		counts[t.Status]++
	}
	return counts
}

func formatDue(due *time.Time) string {
	if due == nil {
		return "-"
	}
	return due.Format("2006-01-02")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
