// Package inmemdb provides map-backed repositories for DEV mode and tests.
package inmemdb

import (
	"sync"

	"github.com/kabasele/shule/core/directory"
	"github.com/kabasele/shule/core/user"
)

type (
	userTable struct {
		sync.RWMutex
		rows  map[string]*user.User
		order []string // insertion order; the store's "default order"

		watchMu  sync.Mutex
		watchers map[int]func([]user.User)
		watchSeq int
	}

	entryTable struct {
		sync.RWMutex
		rows  map[string]*directory.Entry
		order []string
	}

	DB struct {
		user  *userTable
		entry *entryTable
	}
)

func Open() *DB {
	return &DB{
		user: &userTable{
			rows:     make(map[string]*user.User),
			watchers: make(map[int]func([]user.User)),
		},
		entry: &entryTable{rows: make(map[string]*directory.Entry)},
	}
}
