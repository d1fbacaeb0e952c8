package firestoredb

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kabasele/shule/core/directory"
)

type (
	entryRepository struct {
		client *firestore.Client
	}

	entryDoc struct {
		Name       string    `firestore:"name"`
		Position   string    `firestore:"position"`
		Email      string    `firestore:"email"`
		Background string    `firestore:"background"`
		Research   []string  `firestore:"research"`
		Picture    string    `firestore:"picture"`
		CreatedAt  time.Time `firestore:"created_at"`
		UpdatedAt  time.Time `firestore:"updated_at"`
	}
)

var _ directory.Repository = (*entryRepository)(nil) // interface compliance check

func NewEntryRepository(client *firestore.Client) directory.Repository {
	return &entryRepository{client: client}
}

func newEntryDoc(entry directory.Entry) entryDoc {
	return entryDoc{
		Name:       entry.Name,
		Position:   entry.Position,
		Email:      entry.Email,
		Background: entry.Background,
		Research:   entry.Research,
		Picture:    entry.Picture,
		CreatedAt:  entry.CreatedAt,
		UpdatedAt:  entry.UpdatedAt,
	}
}

func (d entryDoc) toEntry(id string) directory.Entry {
	return directory.Entry{
		ID:         id,
		Name:       d.Name,
		Position:   d.Position,
		Email:      d.Email,
		Background: d.Background,
		Research:   d.Research,
		Picture:    d.Picture,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func (repo *entryRepository) entries() *firestore.CollectionRef {
	return repo.client.Collection(entryCollection)
}

func (repo *entryRepository) CreateEntry(ctx context.Context, entry directory.Entry) (directory.Entry, error) {
	if _, err := repo.entries().Doc(entry.ID).Create(ctx, newEntryDoc(entry)); err != nil {
		return directory.Entry{}, errors.Wrap(err, "creating entry document")
	}
	return entry, nil
}

func (repo *entryRepository) QueryAllEntries(ctx context.Context) ([]directory.Entry, error) {
	iter := repo.entries().OrderBy("created_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var entries []directory.Entry
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			return entries, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "iterating entry documents")
		}
		var d entryDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, errors.Wrap(err, "decoding entry document")
		}
		entries = append(entries, d.toEntry(doc.Ref.ID))
	}
}

func (repo *entryRepository) GetEntryByID(ctx context.Context, id string) (directory.Entry, error) {
	doc, err := repo.entries().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return directory.Entry{}, directory.ErrNotFound
	}
	if err != nil {
		return directory.Entry{}, errors.Wrap(err, "getting entry document")
	}
	var d entryDoc
	if err := doc.DataTo(&d); err != nil {
		return directory.Entry{}, errors.Wrap(err, "decoding entry document")
	}
	return d.toEntry(doc.Ref.ID), nil
}

func (repo *entryRepository) UpdateEntry(ctx context.Context, entry directory.Entry) (directory.Entry, error) {
	ref := repo.entries().Doc(entry.ID)
	if _, err := ref.Get(ctx); status.Code(err) == codes.NotFound {
		return directory.Entry{}, directory.ErrNotFound
	} else if err != nil {
		return directory.Entry{}, errors.Wrap(err, "getting entry document")
	}

	if _, err := ref.Set(ctx, newEntryDoc(entry)); err != nil {
		return directory.Entry{}, errors.Wrap(err, "updating entry document")
	}
	return entry, nil
}

func (repo *entryRepository) DeleteEntry(ctx context.Context, id string) error {
	ref := repo.entries().Doc(id)
	if _, err := ref.Get(ctx); status.Code(err) == codes.NotFound {
		return directory.ErrNotFound
	} else if err != nil {
		return errors.Wrap(err, "getting entry document")
	}

	_, err := ref.Delete(ctx)
	return errors.Wrap(err, "deleting entry document")
}
