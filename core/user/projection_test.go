package user_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabasele/shule/core"
	"github.com/kabasele/shule/core/user"
	inmemdb "github.com/kabasele/shule/storage/inmem"
	testutil "github.com/kabasele/shule/tests"
)

func newProjection(t *testing.T, repo user.Repository) *user.Projection {
	t.Helper()
	logger := core.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags))
	p, err := user.NewProjection(context.Background(), repo, logger)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func TestProjection_initialSnapshot(t *testing.T) {
	repo := inmemdb.NewUserRepository(inmemdb.Open())
	jane := testutil.CreateUser(t, repo, "Jane", "Smith", "jane@test.cd", "", user.RoleInstructor, true)
	john := testutil.CreateUser(t, repo, "John", "Doe", "john@test.cd", "", user.RoleStudent, false)

	p := newProjection(t, repo)

	users := p.Users()
	require.Len(t, users, 2)
	// pending first, even though the active record was inserted first
	assert.Equal(t, john.ID, users[0].ID)
	assert.Equal(t, jane.ID, users[1].ID)
}

func TestProjection_convergesOnMutations(t *testing.T) {
	repo := inmemdb.NewUserRepository(inmemdb.Open())
	p := newProjection(t, repo)

	assert.Empty(t, p.Users())

	john := testutil.CreateUser(t, repo, "John", "Doe", "john@test.cd", "", user.RoleStudent, false)
	require.Len(t, p.Users(), 1)
	assert.False(t, p.Users()[0].IsVerified)

	john.IsVerified = true
	_, err := repo.UpdateUser(context.Background(), john)
	require.NoError(t, err)
	require.Len(t, p.Users(), 1)
	assert.True(t, p.Users()[0].IsVerified)

	require.NoError(t, repo.DeleteUsersByID(context.Background(), john.ID))
	assert.Empty(t, p.Users())
}

func TestProjection_reordersOnAccept(t *testing.T) {
	repo := inmemdb.NewUserRepository(inmemdb.Open())
	pendingA := testutil.CreateUser(t, repo, "Alpha", "One", "alpha@test.cd", "", user.RoleStudent, false)
	pendingB := testutil.CreateUser(t, repo, "Beta", "Two", "beta@test.cd", "", user.RoleStudent, false)

	p := newProjection(t, repo)

	pendingA.IsVerified = true
	_, err := repo.UpdateUser(context.Background(), pendingA)
	require.NoError(t, err)

	users := p.Users()
	require.Len(t, users, 2)
	// the accepted record drops behind the remaining pending one
	assert.Equal(t, pendingB.ID, users[0].ID)
	assert.Equal(t, pendingA.ID, users[1].ID)
}

func TestProjection_closeStopsUpdates(t *testing.T) {
	repo := inmemdb.NewUserRepository(inmemdb.Open())
	testutil.CreateUser(t, repo, "Jane", "Smith", "jane@test.cd", "", user.RoleInstructor, true)

	p := newProjection(t, repo)
	require.Len(t, p.Users(), 1)

	p.Close()
	p.Close() // idempotent

	testutil.CreateUser(t, repo, "John", "Doe", "john@test.cd", "", user.RoleStudent, false)
	assert.Len(t, p.Users(), 1, "a closed projection must not pick up mutations")
}

func TestProjection_usersReturnsCopy(t *testing.T) {
	repo := inmemdb.NewUserRepository(inmemdb.Open())
	testutil.CreateUser(t, repo, "Jane", "Smith", "jane@test.cd", "", user.RoleInstructor, true)

	p := newProjection(t, repo)

	users := p.Users()
	require.Len(t, users, 1)
	users[0].FirstName = "mutated"

	assert.Equal(t, "Jane", p.Users()[0].FirstName)
}
