// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

package taskstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/taskwire/taskwire/lib/clock"
	"github.com/taskwire/taskwire/lib/sqlitepool"
	"github.com/taskwire/taskwire/lib/task"
)

// ErrNotFound covers both "no task with that id" and "task owned by
// someone else". Callers cannot distinguish the two cases, so a probe
// cannot confirm that a foreign id exists.
var ErrNotFound = errors.New("taskstore: task not found")

// schema is created once per pooled connection. IF NOT EXISTS makes it
// idempotent across connections and restarts.
const schema = `
	CREATE TABLE IF NOT EXISTS tasks (
		id          TEXT PRIMARY KEY,
		owner       TEXT NOT NULL,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		completed   INTEGER NOT NULL DEFAULT 0,
		created_at  INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS tasks_owner ON tasks (owner);
`

// Config holds the parameters for opening a task store.
type Config struct {
	// Path is the SQLite database file, created if it does not
	// exist. Tests use a file under t.TempDir().
	Path string

	// PoolSize is the connection pool size. Defaults to 4.
	PoolSize int

	// Clock provides creation timestamps.
	Clock clock.Clock

	// Logger receives operational messages. Nil means discard.
	Logger *slog.Logger
}

// Store is the SQLite-backed task store.
type Store struct {
	pool   *sqlitepool.Pool
	clock  clock.Clock
	logger *slog.Logger
}

// Open creates the store and its schema.
func Open(cfg Config) (*Store, error) {
	if cfg.Clock == nil {
		return nil, fmt.Errorf("taskstore: Clock is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: poolSize,
		Logger:   logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, err
	}

	return &Store{pool: pool, clock: cfg.Clock, logger: logger}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Create inserts a new task owned by the caller. The id and creation
// timestamp are assigned here and never change.
func (s *Store) Create(ctx context.Context, owner, title, description string) (task.Task, error) {
	if err := task.ValidateTitle(title); err != nil {
		return task.Task{}, err
	}

	record := task.Task{
		ID:          uuid.NewString(),
		Owner:       owner,
		Title:       title,
		Description: description,
		Completed:   false,
		CreatedAt:   s.clock.Now().UTC().Truncate(time.Millisecond),
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return task.Task{}, err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT INTO tasks (id, owner, title, description, completed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				record.ID,
				record.Owner,
				record.Title,
				record.Description,
				boolToInt(record.Completed),
				record.CreatedAt.UnixMilli(),
			},
		})
	if err != nil {
		return task.Task{}, fmt.Errorf("taskstore: inserting task: %w", err)
	}

	return record, nil
}

// List returns the caller's tasks in insertion order. The order is
// stable across calls absent mutation.
func (s *Store) List(ctx context.Context, owner string) ([]task.Task, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	tasks := []task.Task{}
	err = sqlitex.Execute(conn,
		`SELECT id, owner, title, description, completed, created_at
		 FROM tasks WHERE owner = ? ORDER BY rowid`,
		&sqlitex.ExecOptions{
			Args: []any{owner},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				tasks = append(tasks, readTask(stmt))
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("taskstore: listing tasks: %w", err)
	}

	return tasks, nil
}

// Update applies the patch to the caller's task and returns the full
// post-commit record. All set fields land in one UPDATE statement
// inside one immediate transaction; concurrent updates to the same id
// serialize at whole-record granularity.
func (s *Store) Update(ctx context.Context, owner, id string, patch task.Patch) (task.Task, error) {
	if err := patch.Validate(); err != nil {
		return task.Task{}, err
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return task.Task{}, err
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return task.Task{}, fmt.Errorf("taskstore: beginning transaction: %w", err)
	}
	defer endTransaction(&err)

	if !patch.IsZero() {
		var assignments []string
		var args []any
		if patch.Title != nil {
			assignments = append(assignments, "title = ?")
			args = append(args, *patch.Title)
		}
		if patch.Description != nil {
			assignments = append(assignments, "description = ?")
			args = append(args, *patch.Description)
		}
		if patch.Completed != nil {
			assignments = append(assignments, "completed = ?")
			args = append(args, boolToInt(*patch.Completed))
		}
		args = append(args, id, owner)

		query := "UPDATE tasks SET " + strings.Join(assignments, ", ") + " WHERE id = ? AND owner = ?"
		if err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: args}); err != nil {
			return task.Task{}, fmt.Errorf("taskstore: updating task: %w", err)
		}
		if conn.Changes() == 0 {
			err = ErrNotFound
			return task.Task{}, err
		}
	}

	var updated task.Task
	found := false
	err = sqlitex.Execute(conn,
		`SELECT id, owner, title, description, completed, created_at
		 FROM tasks WHERE id = ? AND owner = ?`,
		&sqlitex.ExecOptions{
			Args: []any{id, owner},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				updated = readTask(stmt)
				found = true
				return nil
			},
		})
	if err != nil {
		return task.Task{}, fmt.Errorf("taskstore: reading updated task: %w", err)
	}
	if !found {
		// Reached only for a zero patch on a missing or foreign id.
		err = ErrNotFound
		return task.Task{}, err
	}

	return updated, nil
}

// Delete removes the caller's task and returns its id. A second
// delete of the same id fails with ErrNotFound like any other missing
// or foreign id.
func (s *Store) Delete(ctx context.Context, owner, id string) (string, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return "", err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`DELETE FROM tasks WHERE id = ? AND owner = ?`,
		&sqlitex.ExecOptions{Args: []any{id, owner}})
	if err != nil {
		return "", fmt.Errorf("taskstore: deleting task: %w", err)
	}
	if conn.Changes() == 0 {
		return "", ErrNotFound
	}

	return id, nil
}

// readTask scans one row of the tasks table. Column order matches the
// SELECT lists above.
func readTask(stmt *sqlite.Stmt) task.Task {
	return task.Task{
		ID:          stmt.ColumnText(0),
		Owner:       stmt.ColumnText(1),
		Title:       stmt.ColumnText(2),
		Description: stmt.ColumnText(3),
		Completed:   stmt.ColumnInt(4) != 0,
		CreatedAt:   time.UnixMilli(stmt.ColumnInt64(5)).UTC(),
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
