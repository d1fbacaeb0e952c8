package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/kabasele/shule/core"
	"github.com/kabasele/shule/core/user"
	firestoredb "github.com/kabasele/shule/storage/firestore"
	inmemdb "github.com/kabasele/shule/storage/inmem"
)

func main() {
	conf := core.NewConfig()
	ctx := context.Background()

	usrRepo, closeRepo, err := setUpUserRepo(ctx, conf)
	if err != nil {
		log.Fatalf("setting up user repository: %v", err)
	}
	defer closeRepo()

	cli := &commandLine{conf: conf, usrRepo: usrRepo}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func setUpUserRepo(ctx context.Context, conf *core.Config) (user.Repository, func(), error) {
	if conf.Store.Engine == "firestore" {
		client, err := firestoredb.Open(ctx, conf)
		if err != nil {
			return nil, nil, err
		}
		return firestoredb.NewUserRepository(client), func() { _ = client.Close() }, nil
	}
	return inmemdb.NewUserRepository(inmemdb.Open()), func() {}, nil
}
