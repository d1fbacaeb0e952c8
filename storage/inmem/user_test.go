package inmemdb

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabasele/shule/core/user"
)

func watcherCount(db *DB) int {
	db.user.watchMu.Lock()
	defer db.user.watchMu.Unlock()
	return len(db.user.watchers)
}

func createUser(t *testing.T, repo user.Repository, email string) user.User {
	t.Helper()
	usr, err := repo.CreateUser(context.Background(), user.User{ID: uuid.NewString(), Email: email})
	require.NoError(t, err)
	return usr
}

func TestUserRepository_WatchUsers_stopReleasesWatcher(t *testing.T) {
	db := Open()
	repo := NewUserRepository(db)

	var snapshots int
	before := runtime.NumGoroutine()
	stop, err := repo.WatchUsers(context.Background(), func([]user.User) { snapshots++ }, nil)
	require.NoError(t, err)
	require.Equal(t, 1, watcherCount(db))
	require.Equal(t, 1, snapshots, "initial snapshot expected")

	stop()
	stop() // safe to call twice

	assert.Equal(t, 0, watcherCount(db))

	createUser(t, repo, "john@test.cd")
	assert.Equal(t, 1, snapshots, "stopped watcher must not receive snapshots")

	// the companion goroutine must exit even though ctx never expires
	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, time.Second, 10*time.Millisecond, "watch goroutine leaked after stop")
}

func TestUserRepository_WatchUsers_ctxCancelReleasesWatcher(t *testing.T) {
	db := Open()
	repo := NewUserRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := repo.WatchUsers(ctx, func([]user.User) {}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, watcherCount(db))

	cancel()
	require.Eventually(t, func() bool {
		return watcherCount(db) == 0
	}, time.Second, 10*time.Millisecond, "cancelled watch still registered")
}

func TestUserRepository_WatchUsers_snapshotsOnMutations(t *testing.T) {
	db := Open()
	repo := NewUserRepository(db)

	var last []user.User
	stop, err := repo.WatchUsers(context.Background(), func(users []user.User) { last = users }, nil)
	require.NoError(t, err)
	defer stop()

	usr := createUser(t, repo, "john@test.cd")
	require.Len(t, last, 1)

	require.NoError(t, repo.DeleteUsersByID(context.Background(), usr.ID))
	assert.Empty(t, last)
}
