package sqlitedb

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/kabasele/shule/core/directory"
)

type (
	entryRepository struct {
		db *sqlx.DB
	}

	entryRow struct {
		ID         string    `db:"id"`
		Name       string    `db:"name"`
		Position   string    `db:"position"`
		Email      string    `db:"email"`
		Background string    `db:"background"`
		Research   string    `db:"research"` // JSON array
		Picture    string    `db:"picture"`
		CreatedAt  time.Time `db:"created_at"`
		UpdatedAt  time.Time `db:"updated_at"`
	}
)

var _ directory.Repository = (*entryRepository)(nil) // interface compliance check

func NewEntryRepository(db *sqlx.DB) directory.Repository {
	return &entryRepository{db: db}
}

func newEntryRow(entry directory.Entry) (entryRow, error) {
	research := entry.Research
	if research == nil {
		research = []string{}
	}
	data, err := json.Marshal(research)
	if err != nil {
		return entryRow{}, errors.Wrap(err, "encoding research list")
	}
	return entryRow{
		ID:         entry.ID,
		Name:       entry.Name,
		Position:   entry.Position,
		Email:      entry.Email,
		Background: entry.Background,
		Research:   string(data),
		Picture:    entry.Picture,
		CreatedAt:  entry.CreatedAt,
		UpdatedAt:  entry.UpdatedAt,
	}, nil
}

func (r entryRow) toEntry() (directory.Entry, error) {
	var research []string
	if err := json.Unmarshal([]byte(r.Research), &research); err != nil {
		return directory.Entry{}, errors.Wrap(err, "decoding research list")
	}
	if len(research) == 0 {
		research = nil
	}
	return directory.Entry{
		ID:         r.ID,
		Name:       r.Name,
		Position:   r.Position,
		Email:      r.Email,
		Background: r.Background,
		Research:   research,
		Picture:    r.Picture,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}, nil
}

func (repo *entryRepository) CreateEntry(ctx context.Context, entry directory.Entry) (directory.Entry, error) {
	row, err := newEntryRow(entry)
	if err != nil {
		return directory.Entry{}, err
	}
	_, err = repo.db.NamedExecContext(ctx, `
		INSERT INTO directory_entries (id, name, position, email, background, research, picture, created_at, updated_at)
		VALUES (:id, :name, :position, :email, :background, :research, :picture, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		return directory.Entry{}, errors.Wrap(err, "inserting entry")
	}
	return entry, nil
}

func (repo *entryRepository) QueryAllEntries(ctx context.Context) ([]directory.Entry, error) {
	var rows []entryRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM directory_entries ORDER BY created_at`)
	if err != nil {
		return nil, errors.Wrap(err, "querying entries")
	}

	var entries []directory.Entry
	for _, row := range rows {
		entry, err := row.toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (repo *entryRepository) GetEntryByID(ctx context.Context, id string) (directory.Entry, error) {
	var row entryRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM directory_entries WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return directory.Entry{}, directory.ErrNotFound
	}
	if err != nil {
		return directory.Entry{}, errors.Wrap(err, "getting entry")
	}
	return row.toEntry()
}

func (repo *entryRepository) UpdateEntry(ctx context.Context, entry directory.Entry) (directory.Entry, error) {
	row, err := newEntryRow(entry)
	if err != nil {
		return directory.Entry{}, err
	}
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE directory_entries
		SET name = :name, position = :position, email = :email, background = :background,
		    research = :research, picture = :picture, updated_at = :updated_at
		WHERE id = :id`,
		row,
	)
	if err != nil {
		return directory.Entry{}, errors.Wrap(err, "updating entry")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return directory.Entry{}, directory.ErrNotFound
	}
	return entry, nil
}

func (repo *entryRepository) DeleteEntry(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM directory_entries WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "deleting entry")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return directory.ErrNotFound
	}
	return nil
}
