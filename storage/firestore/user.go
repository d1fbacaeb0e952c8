package firestoredb

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kabasele/shule/core/user"
)

type (
	userRepository struct {
		client *firestore.Client
	}

	userDoc struct {
		FirstName    string    `firestore:"first_name"`
		MiddleName   string    `firestore:"middle_name"`
		LastName     string    `firestore:"last_name"`
		Course       string    `firestore:"course"`
		Year         string    `firestore:"year"`
		Email        string    `firestore:"email"`
		Role         string    `firestore:"role"`
		IsVerified   bool      `firestore:"is_verified"`
		DeviceToken  string    `firestore:"device_token"`
		PasswordHash []byte    `firestore:"password_hash"`
		CreatedAt    time.Time `firestore:"created_at"`
		UpdatedAt    time.Time `firestore:"updated_at"`
		LastLogin    time.Time `firestore:"last_login"`
	}
)

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(client *firestore.Client) user.Repository {
	return &userRepository{client: client}
}

func newUserDoc(usr user.User) userDoc {
	return userDoc{
		FirstName:    usr.FirstName,
		MiddleName:   usr.MiddleName,
		LastName:     usr.LastName,
		Course:       usr.Course,
		Year:         usr.Year,
		Email:        usr.Email,
		Role:         usr.Role,
		IsVerified:   usr.IsVerified,
		DeviceToken:  usr.DeviceToken,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt,
		UpdatedAt:    usr.UpdatedAt,
		LastLogin:    usr.LastLogin,
	}
}

func (d userDoc) toUser(id string) user.User {
	return user.User{
		ID:           id,
		FirstName:    d.FirstName,
		MiddleName:   d.MiddleName,
		LastName:     d.LastName,
		Course:       d.Course,
		Year:         d.Year,
		Email:        d.Email,
		Role:         d.Role,
		IsVerified:   d.IsVerified,
		DeviceToken:  d.DeviceToken,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		LastLogin:    d.LastLogin,
	}
}

func (repo *userRepository) users() *firestore.CollectionRef {
	return repo.client.Collection(userCollection)
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	iter := repo.users().Where("email", "==", email).Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "querying users by email")
		}
		excluded := false
		for _, excl := range excludedUsers {
			if doc.Ref.ID == excl.ID {
				excluded = true
				break
			}
		}
		if !excluded {
			return user.ErrEmailExists
		}
	}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if _, err := repo.users().Doc(usr.ID).Create(ctx, newUserDoc(usr)); err != nil {
		return user.User{}, errors.Wrap(err, "creating user document")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	return repo.collect(repo.users().OrderBy("created_at", firestore.Asc).Documents(ctx))
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	doc, err := repo.users().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting user document")
	}
	return repo.decode(doc)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	iter := repo.users().Where("email", "==", email).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "querying user by email")
	}
	return repo.decode(doc)
}

// FilterUsers matches in memory; Firestore has no case-insensitive substring
// operator and the collection stays small.
func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	users, err := repo.QueryAllUsers(ctx)
	if err != nil {
		return nil, err
	}

	var filtered []user.User
	for _, usr := range users {
		if filter.Match(usr) {
			filtered = append(filtered, usr)
		}
	}
	return filtered, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	ref := repo.users().Doc(usr.ID)
	if _, err := ref.Get(ctx); status.Code(err) == codes.NotFound {
		return user.User{}, user.ErrNotFound
	} else if err != nil {
		return user.User{}, errors.Wrap(err, "getting user document")
	}

	if _, err := ref.Set(ctx, newUserDoc(usr)); err != nil {
		return user.User{}, errors.Wrap(err, "updating user document")
	}
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if _, err := repo.users().Doc(id).Delete(ctx); err != nil {
			return errors.Wrap(err, "deleting user document")
		}
	}
	return nil
}

// WatchUsers streams collection snapshots to onSnapshot until the returned
// stop function is called or ctx is cancelled.
func (repo *userRepository) WatchUsers(ctx context.Context, onSnapshot func([]user.User), onError func(error)) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	snaps := repo.users().OrderBy("created_at", firestore.Asc).Snapshots(ctx)

	go func() {
		defer snaps.Stop()
		for {
			snap, err := snaps.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					onError(errors.Wrap(err, "user snapshot stream"))
				}
				return
			}
			users, err := repo.collect(snap.Documents)
			if err != nil {
				onError(err)
				continue
			}
			onSnapshot(users)
		}
	}()
	return cancel, nil
}

func (repo *userRepository) collect(iter *firestore.DocumentIterator) ([]user.User, error) {
	defer iter.Stop()

	var users []user.User
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			return users, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "iterating user documents")
		}
		usr, err := repo.decode(doc)
		if err != nil {
			return nil, err
		}
		users = append(users, usr)
	}
}

func (repo *userRepository) decode(doc *firestore.DocumentSnapshot) (user.User, error) {
	var d userDoc
	if err := doc.DataTo(&d); err != nil {
		return user.User{}, errors.Wrap(err, "decoding user document")
	}
	return d.toUser(doc.Ref.ID), nil
}
