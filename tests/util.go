// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kabasele/shule/core/directory"
	"github.com/kabasele/shule/core/user"
)

// CreateUser inserts a user straight into the repository, bypassing the
// registration flow.
func CreateUser(t *testing.T, repo user.Repository, first, last, email, pwd, role string, verified bool) user.User {
	t.Helper()

	now := time.Now().UTC()
	usr := user.User{
		ID:         uuid.NewString(),
		FirstName:  first,
		LastName:   last,
		Email:      email,
		Role:       role,
		IsVerified: verified,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() SetPassword failed: %v", err)
		}
	}

	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateEntry inserts a directory entry straight into the repository.
func CreateEntry(t *testing.T, repo directory.Repository, name, position, email, picture string) directory.Entry {
	t.Helper()

	now := time.Now().UTC()
	entry := directory.Entry{
		ID:        uuid.NewString(),
		Name:      name,
		Position:  position,
		Email:     email,
		Picture:   picture,
		CreatedAt: now,
		UpdatedAt: now,
	}

	entry, err := repo.CreateEntry(context.Background(), entry)
	if err != nil {
		t.Fatalf("CreateEntry() failed: %v", err)
	}
	return entry
}
