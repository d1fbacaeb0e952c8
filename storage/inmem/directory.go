package inmemdb

import (
	"context"

	"github.com/kabasele/shule/core/directory"
)

type entryRepository struct {
	db *entryTable
}

var _ directory.Repository = (*entryRepository)(nil) // interface compliance check

func NewEntryRepository(db *DB) directory.Repository {
	return &entryRepository{db: db.entry}
}

func (repo *entryRepository) query() []directory.Entry {
	entries := make([]directory.Entry, 0, len(repo.db.order))
	for _, id := range repo.db.order {
		entries = append(entries, *repo.db.rows[id])
	}
	return entries
}

func (repo *entryRepository) CreateEntry(_ context.Context, entry directory.Entry) (directory.Entry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.rows[entry.ID] = &entry
	repo.db.order = append(repo.db.order, entry.ID)
	return entry, nil
}

func (repo *entryRepository) QueryAllEntries(_ context.Context) ([]directory.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *entryRepository) GetEntryByID(_ context.Context, id string) (directory.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if entry, ok := repo.db.rows[id]; ok {
		return *entry, nil
	}
	return directory.Entry{}, directory.ErrNotFound
}

func (repo *entryRepository) UpdateEntry(_ context.Context, entry directory.Entry) (directory.Entry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[entry.ID]; !ok {
		return directory.Entry{}, directory.ErrNotFound
	}
	repo.db.rows[entry.ID] = &entry
	return entry, nil
}

func (repo *entryRepository) DeleteEntry(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[id]; !ok {
		return directory.ErrNotFound
	}
	delete(repo.db.rows, id)
	for i, oid := range repo.db.order {
		if oid == id {
			repo.db.order = append(repo.db.order[:i], repo.db.order[i+1:]...)
			break
		}
	}
	return nil
}
