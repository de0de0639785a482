package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/prestigeforum/internal/client/wallet"
	"github.com/dmitrijs2005/prestigeforum/internal/common"
	"github.com/dmitrijs2005/prestigeforum/internal/models"
	"github.com/dmitrijs2005/prestigeforum/internal/reputation"
)

// signedInUser returns the current identity or prints why there is none.
func (a *App) signedInUser(ctx context.Context) (*models.Identity, error) {
	u, err := a.session.CurrentUser()
	if err != nil {
		a.printError(ctx, err)
		return nil, err
	}
	if u == nil {
		a.printError(ctx, common.ErrNotSignedIn)
		return nil, common.ErrNotSignedIn
	}
	return u, nil
}

// Whoami prints the profile card of the signed-in user.
func (a *App) Whoami(ctx context.Context) error {
	u, err := a.signedInUser(ctx)
	if err != nil {
		return err
	}
	a.printIdentity(u)
	return nil
}

func (a *App) printIdentity(u *models.Identity) {
	rank := reputation.RankFor(u.PrestigeScore, u.IsAdmin)

	fmt.Fprintf(a.out, "%s <%s>\n", u.Username, u.Email)
	fmt.Fprintf(a.out, "  Rank:     %s [%s]\n", rank.Title, rank.ShortTitle)
	fmt.Fprintf(a.out, "  Prestige: %s %s\n", reputation.FormatScore(u.PrestigeScore), reputation.ReputationBar(u.PrestigeScore))
	if u.IsAdmin {
		fmt.Fprintln(a.out, "  Admin:    yes")
	}
	if u.AvatarURL != "" {
		fmt.Fprintf(a.out, "  Avatar:   %s\n", u.AvatarURL)
	}
	if link := a.wallet.Link(); link.Connected {
		fmt.Fprintf(a.out, "  Wallet:   %s\n", wallet.ShortAddress(link.Address))
	}
}

// Ranks prints the ladder and marks the rank of the signed-in user.
func (a *App) Ranks(ctx context.Context) error {
	current := ""
	if u, err := a.session.CurrentUser(); err == nil && u != nil {
		current = reputation.RankFor(u.PrestigeScore, u.IsAdmin).Title
	}

	for i, r := range reputation.Ranks() {
		marker := "  "
		if r.Title == current {
			marker = "* "
		}
		switch {
		case r.AdminOnly:
			fmt.Fprintf(a.out, "%s%-16s %s  (administrators)\n", marker, r.Title, r.ShortTitle)
		case i == 0:
			fmt.Fprintf(a.out, "%s%-16s %s  (below 0)\n", marker, r.Title, r.ShortTitle)
		default:
			fmt.Fprintf(a.out, "%s%-16s %s  from %s\n", marker, r.Title, r.ShortTitle, reputation.FormatScore(r.MinimumScore))
		}
	}
	return nil
}

// Actions prints the action catalog, rewards first.
func (a *App) Actions(ctx context.Context) error {
	fmt.Fprintln(a.out, "Rewards:")
	for _, act := range reputation.PositiveActions() {
		fmt.Fprintf(a.out, "  %-22s %6s  %s\n", act.Key, reputation.FormatScore(act.Value), act.Description)
	}
	fmt.Fprintln(a.out, "Penalties:")
	for _, act := range reputation.NegativeActions() {
		fmt.Fprintf(a.out, "  %-22s %6s  %s\n", act.Key, reputation.FormatScore(act.Value), act.Description)
	}
	return nil
}

// Act records a prestige action for the signed-in user.
func (a *App) Act(ctx context.Context, key string) error {
	u, err := a.session.RecordAction(ctx, key)
	if err != nil {
		a.printError(ctx, err)
		return err
	}

	act, _ := reputation.Lookup(key)
	rank := reputation.RankFor(u.PrestigeScore, u.IsAdmin)
	fmt.Fprintf(a.out, "%s: %s (now %s, %s)\n", act.Description, reputation.FormatScore(act.Value),
		reputation.FormatScore(u.PrestigeScore), rank.Title)
	return nil
}

// Avatar uploads the image at path as the signed-in user's avatar.
func (a *App) Avatar(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(a.out, "Cannot open %s: %v\n", path, err)
		return err
	}
	defer f.Close()

	u, err := a.session.SetAvatar(ctx, filepath.Base(path), f)
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			fmt.Fprintln(a.out, "The image is too large")
			return err
		}
		a.printError(ctx, err)
		return err
	}
	fmt.Fprintf(a.out, "Avatar updated: %s\n", u.AvatarURL)
	return nil
}
