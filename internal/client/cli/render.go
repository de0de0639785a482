package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/prestigeforum/internal/common"
)

// getStatus returns the prompt status: the signed-in username or "guest",
// the store mode and, in remote mode, the data service connectivity.
func (a *App) getStatus() string {
	user := "guest"
	if u, err := a.session.CurrentUser(); err != nil {
		user = "..."
	} else if u != nil {
		user = u.Username
	}

	a.mu.Lock()
	conn := a.connectivity
	a.mu.Unlock()

	if conn == "" {
		return fmt.Sprintf("(%s, %s)", user, a.session.Mode())
	}
	return fmt.Sprintf("(%s, %s, %s)", user, a.session.Mode(), conn)
}

var userMessages = []struct {
	err error
	msg string
}{
	{common.ErrDuplicateEmail, "An account with this email already exists"},
	{common.ErrorUnauthorized, "Invalid email or password"},
	{common.ErrorValidation, "Please check the entered data: email, username and password are required"},
	{common.ErrNotSignedIn, "You are not signed in"},
	{common.ErrSessionLoading, "Still restoring your session, try again in a moment"},
	{common.ErrSessionSuperseded, "The request was cancelled by a newer one"},
	{common.ErrUnknownAction, "Something went wrong, the action was not recorded"},
	{common.ErrStoreUnavailable, "The account service is unavailable, try again later"},
	{common.ErrWalletNotInstalled, "No TRON wallet found. Install TronLink and start its bridge"},
	{common.ErrWalletTimeout, "The wallet did not answer in time"},
	{common.ErrWalletRejected, "The wallet connection was rejected"},
	{common.ErrInvalidAddress, "The wallet returned an invalid address"},
}

// printError shows a user-facing message for err and logs the cause.
func (a *App) printError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	a.logger.Debug(ctx, "command failed", "error", err)

	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			fmt.Fprintln(a.out, m.msg)
			return
		}
	}
	fmt.Fprintln(a.out, "Unexpected error:", err)
}
