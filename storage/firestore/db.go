// Package firestoredb persists users and directory entries in Cloud
// Firestore, the schemaless document store behind the hosted deployment.
package firestoredb

import (
	"context"

	"cloud.google.com/go/firestore"

	"github.com/kabasele/shule/core"
)

const (
	userCollection  = "users"
	entryCollection = "directory_entries"
)

func Open(ctx context.Context, conf *core.Config) (*firestore.Client, error) {
	return firestore.NewClient(ctx, conf.Store.FirestoreProjectID)
}
