package inmemdb

import (
	"context"
	"sort"
	"sync"

	"github.com/kabasele/shule/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

// query returns all rows in insertion order. Callers must hold the lock.
func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.order))
	for _, id := range repo.db.order {
		users = append(users, *repo.db.rows[id])
	}
	return users
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedUsers ...user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	exclUsrsLen := len(excludedUsers)
	if exclUsrsLen > 1 {
		sort.Slice(excludedUsers, func(i, j int) bool { return excludedUsers[i].ID < excludedUsers[j].ID })
	}

	for _, usr := range repo.query() {
		if usr.Email == email && !isExcluded(usr, excludedUsers, exclUsrsLen) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	repo.db.rows[usr.ID] = &usr
	repo.db.order = append(repo.db.order, usr.ID)
	repo.db.Unlock()

	repo.notifyWatchers()
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(_ context.Context) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.rows[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) FilterUsers(_ context.Context, filter user.QueryFilter) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var filtered []user.User
	for _, usr := range repo.query() {
		if filter.Match(usr) {
			filtered = append(filtered, usr)
		}
	}
	return filtered, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	if _, ok := repo.db.rows[usr.ID]; !ok {
		repo.db.Unlock()
		return user.User{}, user.ErrNotFound
	}
	repo.db.rows[usr.ID] = &usr
	repo.db.Unlock()

	repo.notifyWatchers()
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(_ context.Context, ids ...string) error {
	repo.db.Lock()
	for _, id := range ids {
		if _, ok := repo.db.rows[id]; !ok {
			continue
		}
		delete(repo.db.rows, id)
		for i, oid := range repo.db.order {
			if oid == id {
				repo.db.order = append(repo.db.order[:i], repo.db.order[i+1:]...)
				break
			}
		}
	}
	repo.db.Unlock()

	repo.notifyWatchers()
	return nil
}

func (repo *userRepository) WatchUsers(ctx context.Context, onSnapshot func([]user.User), _ func(error)) (func(), error) {
	repo.db.watchMu.Lock()
	repo.db.watchSeq++
	key := repo.db.watchSeq
	repo.db.watchers[key] = onSnapshot
	repo.db.watchMu.Unlock()

	// initial snapshot
	repo.db.RLock()
	onSnapshot(repo.query())
	repo.db.RUnlock()

	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() {
			repo.db.watchMu.Lock()
			delete(repo.db.watchers, key)
			repo.db.watchMu.Unlock()
			close(done)
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-done:
		}
	}()
	return stop, nil
}

func (repo *userRepository) notifyWatchers() {
	repo.db.RLock()
	users := repo.query()
	repo.db.RUnlock()

	repo.db.watchMu.Lock()
	defer repo.db.watchMu.Unlock()
	for _, onSnapshot := range repo.db.watchers {
		onSnapshot(users)
	}
}

func isExcluded(usr user.User, sortedExcl []user.User, exclLen int) bool {
	if exclLen == 0 {
		return false
	}
	i := sort.Search(exclLen, func(i int) bool { return sortedExcl[i].ID >= usr.ID })
	return i < exclLen && sortedExcl[i].ID == usr.ID
}
