package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpad/internal/todo"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "tasks.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

var base = time.Date(2026, 10, 19, 9, 0, 0, 123456789, time.UTC)

func sample(id, text string, minute int) todo.Task {
	return todo.Task{ID: id, Text: text, CreatedAt: base.Add(time.Duration(minute) * time.Minute)}
}

func TestPutAndAllRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	due := time.Date(2026, 10, 20, 17, 30, 0, 0, time.UTC)
	full := todo.Task{
		ID:        "a",
		Text:      "Buy milk",
		Completed: true,
		Priority:  todo.PriorityHigh,
		DueDate:   &due,
		Category:  "home",
		CreatedAt: base,
	}
	plain := sample("b", "Call bank", 1)

	require.NoError(t, s.Put(ctx, plain))
	require.NoError(t, s.Put(ctx, full))

	got, err := s.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []todo.Task{full, plain}, got)
}

func TestPutUpdatesButKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	orig := sample("a", "draft", 0)
	require.NoError(t, s.Put(ctx, orig))

	changed := orig
	changed.Text = "final"
	changed.Completed = true
	changed.CreatedAt = base.Add(time.Hour)
	require.NoError(t, s.Put(ctx, changed))

	got, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "final", got[0].Text)
	assert.True(t, got[0].Completed)
	assert.Equal(t, orig.CreatedAt, got[0].CreatedAt)
}

func TestPutRejectsInvalidTask(t *testing.T) {
	s, _ := openTestStore(t)
	err := s.Put(context.Background(), todo.Task{ID: "a", Text: " ", CreatedAt: base})
	assert.ErrorIs(t, err, todo.ErrEmptyText)
}

func TestDeleteVariants(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)
	require.NoError(t, s.PutMany(ctx, []todo.Task{
		sample("a", "one", 0),
		sample("b", "two", 1),
		sample("c", "three", 2),
		sample("d", "four", 3),
	}))

	require.NoError(t, s.Delete(ctx, "a"))
	require.NoError(t, s.Delete(ctx, "missing"))
	require.NoError(t, s.DeleteMany(ctx, []string{"b", "d"}))
	require.NoError(t, s.DeleteMany(ctx, nil))

	got, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)

	require.NoError(t, s.DeleteAll(ctx))
	got, err = s.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPutManyIsAtomic(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	err := s.PutMany(ctx, []todo.Task{
		sample("a", "ok", 0),
		{ID: "b", Text: "", CreatedAt: base},
	})
	require.Error(t, err)

	got, err := s.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, got, "first row rolled back with the failing one")
}

func TestReplaceAll(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)
	require.NoError(t, s.Put(ctx, sample("stale", "stale", 0)))

	want := []todo.Task{sample("x", "x", 1), sample("y", "y", 2)}
	require.NoError(t, s.ReplaceAll(ctx, want))

	got, err := s.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	_, ok, err := s.Setting(ctx, "default_priority")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.PutSettings(ctx, map[string]string{"default_priority": "low", "other": "1"}))
	require.NoError(t, s.PutSettings(ctx, map[string]string{"default_priority": "high"}))

	v, ok, err := s.Setting(ctx, "default_priority")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "high", v)
}

func TestReopenKeepsDataAndSkipsAppliedMigrations(t *testing.T) {
	ctx := context.Background()
	s, path := openTestStore(t)
	require.NoError(t, s.Put(ctx, sample("a", "persisted", 0)))
	require.NoError(t, s.Close())

	again, err := Open(path)
	require.NoError(t, err)
	defer again.Close()

	got, err := again.All(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "persisted", got[0].Text)

	var versions int
	require.NoError(t, again.db.Get(&versions, "SELECT COUNT(*) FROM schema_version"))
	assert.Equal(t, 1, versions)
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestStoreSatisfiesPersister(t *testing.T) {
	var _ todo.Persister = (*Store)(nil)
}
