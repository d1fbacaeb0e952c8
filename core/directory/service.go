package directory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("directory entry not found")

type (
	Repository interface {
		CreateEntry(ctx context.Context, entry Entry) (Entry, error)
		QueryAllEntries(ctx context.Context) ([]Entry, error)
		GetEntryByID(ctx context.Context, id string) (Entry, error)
		UpdateEntry(ctx context.Context, entry Entry) (Entry, error)
		DeleteEntry(ctx context.Context, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, ne NewEntry) (Entry, error) {
	now := time.Now().UTC()
	entry := Entry{
		ID:         uuid.NewString(),
		Name:       ne.Name,
		Position:   ne.Position,
		Email:      ne.Email,
		Background: ne.Background,
		Research:   ne.Research,
		Picture:    ne.Picture,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	entry.Picture = entry.PictureOrPlaceholder()
	return svc.repo.CreateEntry(ctx, entry)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Entry, error) {
	return svc.repo.QueryAllEntries(ctx)
}

// Search filters the full collection in memory; see Filter.
func (svc *Service) Search(ctx context.Context, q string) ([]Entry, error) {
	entries, err := svc.repo.QueryAllEntries(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(entries, q), nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Entry, error) {
	return svc.repo.GetEntryByID(ctx, id)
}

// Update applies a partial update: zero-valued fields keep the stored value.
func (svc *Service) Update(ctx context.Context, id string, ue UpdateEntry) (Entry, error) {
	entry, err := svc.repo.GetEntryByID(ctx, id)
	if err != nil {
		return Entry{}, err
	}

	if ue.Name != "" {
		entry.Name = ue.Name
	}
	if ue.Position != "" {
		entry.Position = ue.Position
	}
	if ue.Email != "" {
		entry.Email = ue.Email
	}
	if ue.Background != "" {
		entry.Background = ue.Background
	}
	if ue.Research != nil {
		entry.Research = ue.Research
	}
	if ue.Picture != "" {
		entry.Picture = ue.Picture
	}
	entry.UpdatedAt = time.Now().UTC()
	entry.Picture = entry.PictureOrPlaceholder()
	return svc.repo.UpdateEntry(ctx, entry)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteEntry(ctx, id)
}
