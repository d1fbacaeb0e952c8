package main

import (
	"context"
	"fmt"
	"time"

	"github.com/kabasele/shule/core"
)

// approve flips the verification flag on a pending user. No notification is
// sent from the operator path.
func (cli *commandLine) approve(email string) error {
	ctx := context.Background()

	usr, err := cli.usrRepo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	if usr.IsVerified {
		fmt.Printf("%s is already verified\n", usr.Email)
		return nil
	}

	usr.IsVerified = true
	usr.UpdatedAt = time.Now().UTC()
	if _, err := cli.usrRepo.UpdateUser(ctx, usr); err != nil {
		return err
	}
	fmt.Printf("%s approved\n", usr.Email)
	return nil
}
