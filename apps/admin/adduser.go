package main

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kabasele/shule/core"
	"github.com/kabasele/shule/core/user"
)

// addUser updates or creates a verified user.User directly in the store,
// bypassing the registration approval flow.
func (cli *commandLine) addUser(email, first, last, pwd string, isAdmin bool) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)

	var created bool
	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		created = true
		usr = user.User{
			ID:        uuid.NewString(),
			Email:     email,
			Role:      user.RoleInstructor,
			CreatedAt: time.Now().UTC(),
		}
	}

	usr.FirstName = core.CleanString(first)
	usr.LastName = core.CleanString(last)
	if isAdmin {
		usr.Role = user.RoleAdmin
	}
	usr.IsVerified = true
	usr.UpdatedAt = time.Now().UTC()
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if created {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	}
	return err
}
