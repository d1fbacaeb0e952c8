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
	emailsvc "github.com/kabasele/shule/services/email"
	pushsvc "github.com/kabasele/shule/services/push"
	inmemdb "github.com/kabasele/shule/storage/inmem"
	testutil "github.com/kabasele/shule/tests"
)

func setup() (*user.Service, user.Repository, *pushsvc.DummyService) {
	conf := &core.Config{AppName: "Shule", FrontendBaseURL: "http://localhost:3000"}
	repo := inmemdb.NewUserRepository(inmemdb.Open())
	pushSvc := pushsvc.NewDummyService()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	logger := core.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags))
	return user.NewService(repo, mailSvc, pushSvc, conf, logger), repo, pushSvc
}

func register(t *testing.T, svc *user.Service, first, email, deviceToken string) user.User {
	t.Helper()
	usr, err := svc.Register(context.Background(), user.NewUser{
		FirstName:       first,
		LastName:        "Doe",
		Course:          "Computer Science",
		Year:            user.Year2,
		Email:           email,
		Role:            user.RoleStudent,
		Password:        "s3cr3t!",
		PasswordConfirm: "s3cr3t!",
		DeviceToken:     deviceToken,
	})
	require.NoError(t, err)
	return usr
}

func TestService_Register(t *testing.T) {
	svc, repo, pushSvc := setup()

	usr := register(t, svc, "John", "john@test.cd", "")

	assert.NotEmpty(t, usr.ID)
	assert.False(t, usr.IsVerified, "a fresh registration must be pending")
	assert.NoError(t, usr.CheckPassword("s3cr3t!"))
	assert.Empty(t, pushSvc.SentMessages())

	stored, err := repo.GetUserByID(context.Background(), usr.ID)
	require.NoError(t, err)
	assert.Equal(t, usr.Email, stored.Email)
}

func TestService_Accept(t *testing.T) {
	svc, repo, pushSvc := setup()
	ctx := context.Background()
	emailsvc.ClearSentMessages()

	usr := register(t, svc, "John", "john@test.cd", "device-tok-1")

	accepted, err := svc.Accept(ctx, usr.ID)
	require.NoError(t, err)
	assert.True(t, accepted.IsVerified)

	stored, err := repo.GetUserByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)

	// acceptance push carries the stored device token
	sent := pushSvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "device-tok-1", sent[0].DeviceToken)
	assert.Equal(t, "Registration approved", sent[0].Title)

	// welcome email went out
	assert.NotEmpty(t, emailsvc.SentMessages)
}

func TestService_Accept_idempotent(t *testing.T) {
	svc, _, pushSvc := setup()
	ctx := context.Background()

	usr := register(t, svc, "John", "john@test.cd", "device-tok-1")

	first, err := svc.Accept(ctx, usr.ID)
	require.NoError(t, err)
	second, err := svc.Accept(ctx, usr.ID)
	require.NoError(t, err)

	assert.True(t, first.IsVerified)
	assert.True(t, second.IsVerified)
	assert.Len(t, pushSvc.SentMessages(), 1, "a second Accept must not notify again")
}

func TestService_Accept_notFound(t *testing.T) {
	svc, _, _ := setup()
	_, err := svc.Accept(context.Background(), "nope")
	assert.Equal(t, user.ErrNotFound, err)
}

func TestService_Accept_pushFailureKeepsState(t *testing.T) {
	svc, repo, pushSvc := setup()
	ctx := context.Background()
	pushSvc.Err = assert.AnError

	usr := register(t, svc, "John", "john@test.cd", "device-tok-1")

	accepted, err := svc.Accept(ctx, usr.ID)
	require.NoError(t, err, "a failed notification must not fail the accept")
	assert.True(t, accepted.IsVerified)

	stored, err := repo.GetUserByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)
}

func TestService_Reject(t *testing.T) {
	svc, repo, pushSvc := setup()
	ctx := context.Background()

	usr := register(t, svc, "John", "john@test.cd", "device-tok-1")

	require.NoError(t, svc.Reject(ctx, usr.ID))

	_, err := repo.GetUserByID(ctx, usr.ID)
	assert.Equal(t, user.ErrNotFound, err)

	sent := pushSvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Registration rejected", sent[0].Title)
}

func TestService_Reject_noDeviceToken(t *testing.T) {
	svc, repo, pushSvc := setup()
	ctx := context.Background()

	usr := register(t, svc, "John", "john@test.cd", "")

	require.NoError(t, svc.Reject(ctx, usr.ID))

	_, err := repo.GetUserByID(ctx, usr.ID)
	assert.Equal(t, user.ErrNotFound, err)
	assert.Empty(t, pushSvc.SentMessages())
}

func TestService_Update_keepsVerificationFlag(t *testing.T) {
	svc, _, _ := setup()
	ctx := context.Background()

	usr := register(t, svc, "John", "john@test.cd", "")
	accepted, err := svc.Accept(ctx, usr.ID)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, accepted.ID, user.UpdateUser{
		FirstName: "Johnny",
		LastName:  accepted.LastName,
		Course:    accepted.Course,
		Year:      user.Year3,
		Email:     accepted.Email,
		Role:      accepted.Role,
	})
	require.NoError(t, err)
	assert.Equal(t, "Johnny", updated.FirstName)
	assert.Equal(t, user.Year3, updated.Year)
	assert.True(t, updated.IsVerified, "Update must not touch the verification flag")
}

func TestService_Query_pendingFirst(t *testing.T) {
	svc, repo, _ := setup()
	ctx := context.Background()

	active1 := testutil.CreateUser(t, repo, "Jane", "Smith", "jane@test.cd", "", user.RoleInstructor, true)
	pending1 := testutil.CreateUser(t, repo, "John", "Doe", "john@test.cd", "", user.RoleStudent, false)
	active2 := testutil.CreateUser(t, repo, "Admin", "Root", "admin@test.cd", "", user.RoleAdmin, true)
	pending2 := testutil.CreateUser(t, repo, "Hero", "Kid", "hero@test.cd", "", user.RoleStudent, false)

	users, err := svc.Query(ctx, nil)
	require.NoError(t, err)
	require.Len(t, users, 4)

	// all pending before all active, store order preserved within each group
	assert.Equal(t, []string{pending1.ID, pending2.ID, active1.ID, active2.ID},
		[]string{users[0].ID, users[1].ID, users[2].ID, users[3].ID})
}

func TestService_Query_filter(t *testing.T) {
	svc, repo, _ := setup()
	ctx := context.Background()

	jane := testutil.CreateUser(t, repo, "Jane", "Smith", "jane@test.cd", "", user.RoleInstructor, true)
	john := testutil.CreateUser(t, repo, "John", "Doe", "john@test.cd", "", user.RoleStudent, false)
	testutil.CreateUser(t, repo, "Amina", "Kalala", "amina@test.cd", "", user.RoleStudent, true)

	tests := []struct {
		name   string
		filter user.QueryFilter
		want   []string
	}{
		{name: "search matches name", filter: user.QueryFilter{Search: "smith"}, want: []string{jane.ID}},
		{name: "search matches email", filter: user.QueryFilter{Search: "JOHN@"}, want: []string{john.ID}},
		{name: "search unknown", filter: user.QueryFilter{Search: "zzz"}, want: nil},
		{name: "role filter", filter: user.QueryFilter{Role: user.RoleInstructor}, want: []string{jane.ID}},
		{name: "search and role", filter: user.QueryFilter{Search: "j", Role: user.RoleStudent}, want: []string{john.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.filter.Clean()
			users, err := svc.Query(ctx, &tt.filter)
			require.NoError(t, err)

			var ids []string
			for _, u := range users {
				ids = append(ids, u.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestService_CheckEmailUniqueness(t *testing.T) {
	svc, repo, _ := setup()

	usr := testutil.CreateUser(t, repo, "Jane", "Smith", "jane@test.cd", "", user.RoleInstructor, true)

	err := svc.CheckEmailUniqueness("jane@test.cd")
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Len(t, vErr.Fields, 1)
	assert.Equal(t, "email", vErr.Fields[0].Field)

	assert.NoError(t, svc.CheckEmailUniqueness("jane@test.cd", usr), "the record itself is excluded")
	assert.NoError(t, svc.CheckEmailUniqueness("new@test.cd"))
}

func TestService_SetDeviceToken(t *testing.T) {
	svc, repo, _ := setup()
	ctx := context.Background()

	usr := register(t, svc, "John", "john@test.cd", "")

	updated, err := svc.SetDeviceToken(ctx, usr.ID, "device-tok-9")
	require.NoError(t, err)
	assert.Equal(t, "device-tok-9", updated.DeviceToken)

	stored, err := repo.GetUserByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, "device-tok-9", stored.DeviceToken)
}
