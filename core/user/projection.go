package user

import (
	"context"
	"fmt"
	"sync"

	"github.com/kabasele/shule/core"
)

// Projection is a read-only, eventually-consistent mirror of the user
// collection. It subscribes to the repository's watch primitive on
// construction and converges to every snapshot the store emits, pending
// records first. The owner must call Close when done; snapshots delivered
// after Close are discarded.
type Projection struct {
	mu     sync.RWMutex
	users  []User
	closed bool
	stop   func()
	logger core.Logger
}

func NewProjection(ctx context.Context, repo Repository, logger core.Logger) (*Projection, error) {
	p := &Projection{logger: logger}

	stop, err := repo.WatchUsers(ctx, p.apply, func(err error) {
		logger.Error(fmt.Sprintf("user watch error: %v", err), err)
	})
	if err != nil {
		return nil, err
	}
	p.stop = stop
	return p, nil
}

func (p *Projection) apply(users []User) {
	sorted := make([]User, len(users))
	copy(sorted, users)
	SortPendingFirst(sorted)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.users = sorted
}

// Users returns the current mirror contents, pending records first.
func (p *Projection) Users() []User {
	p.mu.RLock()
	defer p.mu.RUnlock()
	users := make([]User, len(p.users))
	copy(users, p.users)
	return users
}

// Close releases the subscription. Safe to call more than once.
func (p *Projection) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.stop()
}
