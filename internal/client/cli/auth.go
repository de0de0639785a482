package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/prestigeforum/internal/common"
	"github.com/dmitrijs2005/prestigeforum/internal/models"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for email, username and password and creates an account.
// The new account is signed in.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	username, err := getSimpleText(a.reader, "Choose a username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.session.SignUp(ctx, models.NewIdentity{Email: email, Username: username, Password: string(password)})
	if err != nil {
		a.printError(ctx, err)
		return err
	}

	fmt.Fprintf(a.out, "Welcome, %s!\n", u.Username)
	a.printIdentity(u)
	return nil
}

// Login prompts for credentials and signs in. Failures print the same
// message whether the email is unknown or the password is wrong.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.session.SignIn(ctx, email, string(password))
	if err != nil {
		a.printError(ctx, err)
		return err
	}

	fmt.Fprintf(a.out, "Signed in as %s\n", u.Username)
	return nil
}

// Logout always leaves the client signed out, even when the store could not
// be told.
func (a *App) Logout(ctx context.Context) error {
	err := a.session.SignOut(ctx)
	if err != nil {
		a.printError(ctx, err)
	}
	fmt.Fprintln(a.out, "Signed out")
	return err
}
