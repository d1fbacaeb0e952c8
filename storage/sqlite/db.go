// Package sqlitedb persists directory entries in a local sqlite file, the
// single-machine variant that needs no hosted document store.
package sqlitedb

import (
	"embed"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/kabasele/shule/core"
)

//go:embed migrations/*.sql
var migrations embed.FS

func Open(conf *core.Config) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", conf.Store.SQLitePath)
	if err != nil {
		return nil, errors.Wrap(err, "opening sqlite database")
	}
	// modernc sqlite serializes writes itself; a single conn avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	return db, nil
}

func Migrate(db *sqlx.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return errors.Wrap(err, "setting goose dialect")
	}
	return errors.Wrap(goose.Up(db.DB, "migrations"), "applying migrations")
}
