// Package archive persists the task collection to SQLite. The in-memory
// store stays authoritative; the archive serializes the task model
// as-is, including iteration order and the append-only history of each
// task.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	embedsql "github.com/ldi/opsvault/embed/sql"
	"github.com/ldi/opsvault/pkg/models"
	_ "modernc.org/sqlite"
)

type Archive struct {
	*sql.DB
}

// Open opens a SQLite archive at the given path.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Foreign keys support
	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)

	return &Archive{DB: db}, nil
}

func (a *Archive) Init(ctx context.Context) error {
	if _, err := a.ExecContext(ctx, embedsql.Schema); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// Save replaces the archived collection with the given tasks,
// preserving their order. All-or-nothing via a transaction.
func (a *Archive) Save(ctx context.Context, tasks []*models.Task) error {
	tx, err := a.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("failed to clear archive: %w", err)
	}

	for pos, t := range tasks {
		tags, err := json.Marshal(t.Tags)
		if err != nil {
			return fmt.Errorf("failed to encode tags for %s: %w", t.ID, err)
		}

		var due sql.NullTime
		if t.DueDate != nil {
			due = sql.NullTime{Time: *t.DueDate, Valid: true}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO tasks (id, position, title, status, kind, priority, content, created_at, due_date, tags)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, pos, t.Title, t.Status, t.Kind, t.Priority, t.Content, t.CreatedAt, due, string(tags),
		)
		if err != nil {
			return fmt.Errorf("failed to insert task %s: %w", t.ID, err)
		}

		for seq, h := range t.History {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO history (id, task_id, seq, action, actor, recorded_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				h.ID, t.ID, seq, h.Action, h.Actor, h.RecordedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert history entry %s: %w", h.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit archive: %w", err)
	}
	return nil
}

// Load reads the archived collection back in its stored order.
func (a *Archive) Load(ctx context.Context) ([]*models.Task, error) {
	rows, err := a.QueryContext(ctx, `
		SELECT id, title, status, kind, priority, content, created_at, due_date, tags
		FROM tasks
		ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		t := &models.Task{}
		var due sql.NullTime
		var tags string
		if err := rows.Scan(&t.ID, &t.Title, &t.Status, &t.Kind, &t.Priority, &t.Content, &t.CreatedAt, &due, &tags); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		if due.Valid {
			d := due.Time
			t.DueDate = &d
		}
		if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags for %s: %w", t.ID, err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for _, t := range tasks {
		history, err := a.loadHistory(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		t.History = history
	}

	return tasks, nil
}

func (a *Archive) loadHistory(ctx context.Context, taskID string) ([]models.HistoryEntry, error) {
	rows, err := a.QueryContext(ctx, `
		SELECT id, action, actor, recorded_at
		FROM history
		WHERE task_id = ?
		ORDER BY seq ASC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var h models.HistoryEntry
		if err := rows.Scan(&h.ID, &h.Action, &h.Actor, &h.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return entries, nil
}
