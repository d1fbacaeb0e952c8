package main

import (
	"fmt"

	sqlitedb "github.com/kabasele/shule/storage/sqlite"
)

// migrate applies pending migrations to the local sqlite directory store.
func (cli *commandLine) migrate() error {
	db, err := sqlitedb.Open(cli.conf)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := sqlitedb.Migrate(db); err != nil {
		return err
	}
	fmt.Println("migrations applied")
	return nil
}
