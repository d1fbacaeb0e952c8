package sqlitedb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabasele/shule/core"
	"github.com/kabasele/shule/core/directory"
)

func setup(t *testing.T) directory.Repository {
	t.Helper()

	conf := &core.Config{}
	conf.Store.SQLitePath = filepath.Join(t.TempDir(), "directory.db")

	db, err := Open(conf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(db))
	return NewEntryRepository(db)
}

func newEntry(name, position, email string, research []string) directory.Entry {
	now := time.Now().UTC().Truncate(time.Second)
	return directory.Entry{
		ID:        uuid.NewString(),
		Name:      name,
		Position:  position,
		Email:     email,
		Research:  research,
		Picture:   directory.PlaceholderPicture,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestEntryRepository_CreateAndGet(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	entry := newEntry("Jane Doe", "Lecturer", "jane@x.edu", []string{"distributed systems", "databases"})
	_, err := repo.CreateEntry(ctx, entry)
	require.NoError(t, err)

	got, err := repo.GetEntryByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.Name, got.Name)
	assert.Equal(t, entry.Position, got.Position)
	assert.Equal(t, entry.Email, got.Email)
	assert.Equal(t, entry.Research, got.Research)
	assert.Equal(t, entry.Picture, got.Picture)
}

func TestEntryRepository_GetEntryByID_notFound(t *testing.T) {
	repo := setup(t)
	_, err := repo.GetEntryByID(context.Background(), "nope")
	assert.Equal(t, directory.ErrNotFound, err)
}

func TestEntryRepository_QueryAllEntries_ordered(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	first := newEntry("Jane Doe", "Lecturer", "jane@x.edu", nil)
	second := newEntry("John Smith", "Dean", "john@x.edu", nil)
	second.CreatedAt = first.CreatedAt.Add(time.Minute)
	second.UpdatedAt = second.CreatedAt

	// insert out of order; query must come back by creation time
	_, err := repo.CreateEntry(ctx, second)
	require.NoError(t, err)
	_, err = repo.CreateEntry(ctx, first)
	require.NoError(t, err)

	entries, err := repo.QueryAllEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.ID, entries[0].ID)
	assert.Equal(t, second.ID, entries[1].ID)
}

func TestEntryRepository_UpdateEntry(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	entry := newEntry("Jane Doe", "Lecturer", "jane@x.edu", nil)
	_, err := repo.CreateEntry(ctx, entry)
	require.NoError(t, err)

	entry.Position = "Senior Lecturer"
	entry.Research = []string{"distributed systems"}
	entry.UpdatedAt = entry.UpdatedAt.Add(time.Minute)
	_, err = repo.UpdateEntry(ctx, entry)
	require.NoError(t, err)

	got, err := repo.GetEntryByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Senior Lecturer", got.Position)
	assert.Equal(t, []string{"distributed systems"}, got.Research)
}

func TestEntryRepository_UpdateEntry_notFound(t *testing.T) {
	repo := setup(t)

	entry := newEntry("Ghost", "None", "ghost@x.edu", nil)
	_, err := repo.UpdateEntry(context.Background(), entry)
	assert.Equal(t, directory.ErrNotFound, err)
}

func TestEntryRepository_DeleteEntry(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	entry := newEntry("Jane Doe", "Lecturer", "jane@x.edu", nil)
	_, err := repo.CreateEntry(ctx, entry)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteEntry(ctx, entry.ID))
	_, err = repo.GetEntryByID(ctx, entry.ID)
	assert.Equal(t, directory.ErrNotFound, err)

	assert.Equal(t, directory.ErrNotFound, repo.DeleteEntry(ctx, entry.ID))
}
