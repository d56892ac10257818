package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"taskpad/internal/todo"
)

// Store is the embedded key-value store behind the task list and settings.
type Store struct {
	db *sqlx.DB
}

// taskRow mirrors the tasks table. Timestamps are RFC3339Nano text so they
// come back exactly as they went in.
type taskRow struct {
	ID        string         `db:"id"`
	Text      string         `db:"text"`
	Completed bool           `db:"completed"`
	Priority  string         `db:"priority"`
	DueDate   sql.NullString `db:"due_date"`
	Category  string         `db:"category"`
	CreatedAt string         `db:"created_at"`
}

func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) runMigrations() error {
	current := 0
	var tables int
	err := s.db.Get(&tables, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'")
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}
	if tables > 0 {
		if err := s.db.Get(&current, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}
	return nil
}

// All returns every stored task ordered by creation time.
func (s *Store) All(ctx context.Context) ([]todo.Task, error) {
	var rows []taskRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, text, completed, priority, due_date, category, created_at FROM tasks ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	tasks := make([]todo.Task, 0, len(rows))
	for _, r := range rows {
		t, err := r.task()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

const upsertTask = `
INSERT INTO tasks (id, text, completed, priority, due_date, category, created_at)
VALUES (:id, :text, :completed, :priority, :due_date, :category, :created_at)
ON CONFLICT(id) DO UPDATE SET
	text = excluded.text,
	completed = excluded.completed,
	priority = excluded.priority,
	due_date = excluded.due_date,
	category = excluded.category`

// Put upserts one task. created_at is never rewritten for an existing id.
func (s *Store) Put(ctx context.Context, t todo.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, err := s.db.NamedExecContext(ctx, upsertTask, rowFromTask(t)); err != nil {
		return fmt.Errorf("upserting task %s: %w", t.ID, err)
	}
	return nil
}

func (s *Store) PutMany(ctx context.Context, tasks []todo.Task) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		return putAll(ctx, tx, tasks)
	})
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	return nil
}

func (s *Store) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := sqlx.In(`DELETE FROM tasks WHERE id IN (?)`, ids)
		if err != nil {
			return fmt.Errorf("building delete query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("deleting %d tasks: %w", len(ids), err)
		}
		return nil
	})
}

func (s *Store) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("clearing tasks: %w", err)
	}
	return nil
}

// ReplaceAll swaps the whole table for tasks in one transaction.
func (s *Store) ReplaceAll(ctx context.Context, tasks []todo.Task) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
			return fmt.Errorf("clearing tasks: %w", err)
		}
		return putAll(ctx, tx, tasks)
	})
}

// Setting reads one settings value.
func (s *Store) Setting(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.GetContext(ctx, &v, `SELECT value FROM settings WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading setting %s: %w", key, err)
	}
	return v, true, nil
}

// PutSettings writes all values in one transaction.
func (s *Store) PutSettings(ctx context.Context, values map[string]string) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		for k, v := range values {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, v)
			if err != nil {
				return fmt.Errorf("writing setting %s: %w", k, err)
			}
		}
		return nil
	})
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func putAll(ctx context.Context, tx *sqlx.Tx, tasks []todo.Task) error {
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			return err
		}
		if _, err := tx.NamedExecContext(ctx, upsertTask, rowFromTask(t)); err != nil {
			return fmt.Errorf("upserting task %s: %w", t.ID, err)
		}
	}
	return nil
}

func rowFromTask(t todo.Task) taskRow {
	r := taskRow{
		ID:        t.ID,
		Text:      t.Text,
		Completed: t.Completed,
		Priority:  string(t.Priority),
		Category:  t.Category,
		CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if t.HasDue() {
		r.DueDate = sql.NullString{String: t.DueDate.UTC().Format(time.RFC3339Nano), Valid: true}
	}
	return r
}

func (r taskRow) task() (todo.Task, error) {
	created, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return todo.Task{}, fmt.Errorf("parsing created_at for task %s: %w", r.ID, err)
	}
	t := todo.Task{
		ID:        r.ID,
		Text:      r.Text,
		Completed: r.Completed,
		Priority:  todo.Priority(r.Priority),
		Category:  r.Category,
		CreatedAt: created,
	}
	if r.DueDate.Valid && r.DueDate.String != "" {
		due, err := time.Parse(time.RFC3339Nano, r.DueDate.String)
		if err != nil {
			return todo.Task{}, fmt.Errorf("parsing due_date for task %s: %w", r.ID, err)
		}
		t.DueDate = &due
	}
	return t, nil
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
