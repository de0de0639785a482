package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/prestigeforum/internal/client/wallet"
)

// Wallet prints the wallet link state.
func (a *App) Wallet(ctx context.Context) error {
	a.printLink(a.wallet.Probe(ctx))
	return nil
}

// Connect asks the wallet extension to grant an account.
func (a *App) Connect(ctx context.Context) error {
	fmt.Fprintln(a.out, "Waiting for the wallet to approve...")
	link, err := a.wallet.Connect(ctx)
	if err != nil {
		a.printError(ctx, err)
		return err
	}
	a.printLink(link)
	return nil
}

// Disconnect forgets the granted wallet account.
func (a *App) Disconnect(ctx context.Context) error {
	a.printLink(a.wallet.Disconnect())
	return nil
}

func (a *App) printLink(link wallet.Link) {
	switch link.State {
	case wallet.StateNotInstalled:
		fmt.Fprintln(a.out, "Wallet: no TRON wallet found. Install TronLink and start its bridge.")
	case wallet.StateConnected:
		fmt.Fprintf(a.out, "Wallet: connected %s (%s)\n", wallet.ShortAddress(link.Address), link.Address)
	default:
		fmt.Fprintf(a.out, "Wallet: %s\n", link.State)
	}
}
