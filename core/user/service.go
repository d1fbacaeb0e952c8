package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/kabasele/shule/core"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
)

// Fixed notification texts sent on lifecycle transitions.
const (
	acceptedPushTitle = "Registration approved"
	acceptedPushBody  = "Your account has been approved. You can now sign in."
	rejectedPushTitle = "Registration rejected"
	rejectedPushBody  = "Your registration request was not approved."
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, user User) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		// FilterUsers applies AND operation on available QueryFilter fields.
		FilterUsers(ctx context.Context, filter QueryFilter) ([]User, error)
		UpdateUser(ctx context.Context, user User) (User, error)
		DeleteUsersByID(ctx context.Context, ids ...string) error
		// WatchUsers subscribes to the user collection. onSnapshot is invoked
		// with the full collection contents, in store order, each time it
		// changes (including once for the initial state). The returned stop
		// function releases the subscription; no callback fires after it
		// returns.
		WatchUsers(ctx context.Context, onSnapshot func([]User), onError func(error)) (stop func(), err error)
	}

	ServiceInterface interface {
		CheckEmailUniqueness(email string, exclUsers ...User) error
		Register(ctx context.Context, nu NewUser) (User, error)
		Accept(ctx context.Context, id string) (User, error)
		Reject(ctx context.Context, id string) error
		Query(ctx context.Context, filter *QueryFilter) ([]User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		Update(ctx context.Context, id string, uu UpdateUser) (User, error)
		Delete(ctx context.Context, ids ...string) error
		SetDeviceToken(ctx context.Context, id, token string) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		pushSvc core.PushService
		conf    *core.Config
		logger  core.Logger
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, pushSvc core.PushService, conf *core.Config, logger core.Logger) *Service {
	return &Service{
		repo:    repo,
		mailSvc: mailSvc,
		pushSvc: pushSvc,
		conf:    conf,
		logger:  logger,
	}
}

func (svc *Service) CheckEmailUniqueness(email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(context.Background(), email, exclUsers...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Register creates a pending account. The record stays unverified until an
// admin accepts it.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		ID:          uuid.NewString(),
		FirstName:   nu.FirstName,
		MiddleName:  nu.MiddleName,
		LastName:    nu.LastName,
		Course:      nu.Course,
		Year:        nu.Year,
		Email:       nu.Email,
		Role:        nu.Role,
		IsVerified:  false,
		DeviceToken: nu.DeviceToken,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

// Accept flips the verification flag and notifies the user. Accepting an
// already-verified user is a no-op so repeated calls never double-notify.
// The store mutation and the notification are independent calls: a failed
// notification after a successful mutation is logged and otherwise ignored.
func (svc *Service) Accept(ctx context.Context, id string) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if usr.IsVerified {
		return usr, nil
	}

	usr.IsVerified = true
	usr.UpdatedAt = time.Now().UTC()
	usr, err = svc.repo.UpdateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}

	svc.notify(ctx, usr, acceptedPushTitle, acceptedPushBody)
	svc.sendWelcomeEmail(usr)
	return usr, nil
}

// Reject notifies the user (best-effort) and deletes the record. The two
// calls are not transactional: the rejection push may be delivered even if
// the deletion subsequently fails.
func (svc *Service) Reject(ctx context.Context, id string) error {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}

	svc.notify(ctx, usr, rejectedPushTitle, rejectedPushBody)
	return svc.repo.DeleteUsersByID(ctx, usr.ID)
}

// Query returns the filtered collection, pending records first.
func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]User, error) {
	var users []User
	var err error
	if filter == nil || filter.IsEmpty() {
		users, err = svc.repo.QueryAllUsers(ctx)
	} else {
		users, err = svc.repo.FilterUsers(ctx, *filter)
	}
	if err != nil {
		return nil, err
	}
	SortPendingFirst(users)
	return users, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	usr.FirstName = uu.FirstName
	usr.MiddleName = uu.MiddleName
	usr.LastName = uu.LastName
	usr.Course = uu.Course
	usr.Year = uu.Year
	usr.Email = uu.Email
	usr.Role = uu.Role
	usr.UpdatedAt = time.Now().UTC()
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteUsersByID(ctx, ids...)
}

func (svc *Service) SetDeviceToken(ctx context.Context, id, token string) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.DeviceToken = token
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) notify(ctx context.Context, usr User, title, body string) {
	if usr.DeviceToken == "" {
		return
	}
	msg := core.PushMessage{DeviceToken: usr.DeviceToken, Title: title, Body: body}
	if err := svc.pushSvc.Send(ctx, msg); err != nil {
		svc.logger.Error(
			fmt.Sprintf("push notification not delivered: %v", err),
			pkgerrors.Wrap(err, "sending push notification"), usr,
		)
	}
}

func (svc *Service) sendWelcomeEmail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name(), Address: usr.Email}},
		Subject: "Welcome to " + svc.conf.AppName,
		TextContent: fmt.Sprintf(
			"Hi %s,\n\nYour account has been approved. Sign in at %s to get started.\n",
			usr.FirstName, svc.conf.FrontendBaseURL,
		),
	})
}
