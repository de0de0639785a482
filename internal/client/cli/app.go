package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/prestigeforum/internal/client/accounts"
	"github.com/dmitrijs2005/prestigeforum/internal/client/accounts/local"
	"github.com/dmitrijs2005/prestigeforum/internal/client/accounts/remote"
	"github.com/dmitrijs2005/prestigeforum/internal/client/blob"
	"github.com/dmitrijs2005/prestigeforum/internal/client/config"
	"github.com/dmitrijs2005/prestigeforum/internal/client/localdb"
	"github.com/dmitrijs2005/prestigeforum/internal/client/mailer"
	"github.com/dmitrijs2005/prestigeforum/internal/client/session"
	"github.com/dmitrijs2005/prestigeforum/internal/client/wallet"
	"github.com/dmitrijs2005/prestigeforum/internal/client/wallet/bridge"
	"github.com/dmitrijs2005/prestigeforum/internal/dataservice"
	"github.com/dmitrijs2005/prestigeforum/internal/logging"
)

// Connectivity of the remote data service as shown in the prompt.
type Connectivity string

const (
	ConnectivityOnline  Connectivity = "online"
	ConnectivityOffline Connectivity = "offline"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	session *session.Controller
	wallet  *wallet.Controller
	pinger  pinger
	closers []func() error

	reader *bufio.Reader
	out    io.Writer

	mu           sync.Mutex
	connectivity Connectivity
}

// NewApp builds the account store selected by c.Mode and the controllers
// that use it. The store variant cannot change for the lifetime of the App.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	mode, ok := accounts.ParseMode(c.Mode)
	if !ok {
		return nil, fmt.Errorf("unknown mode %q (want local or remote)", c.Mode)
	}

	db, err := localdb.Open(ctx, c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	a := &App{
		config: c,
		logger: logger.With("module", "cli"),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	var store accounts.Store
	switch mode {
	case accounts.ModeRemote:
		dc, err := dataservice.NewGRPCClient(c.ServerEndpointAddr, c.ServiceKey, c.CallTimeout)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		store = remote.New(dc, db, c.SessionTTL)
		a.pinger = dc
		a.connectivity = ConnectivityOnline
	default:
		store = local.New(db, c.AdminEmails)
	}
	a.closers = append(a.closers, store.Close)

	opts := []session.Option{session.WithLogger(logger)}
	if sender := mailer.NewSender(c.SMTP); sender.IsConfigured() {
		opts = append(opts, session.WithMailer(sender))
	}
	if c.Blob.IsConfigured() {
		bs, err := blob.New(ctx, c.Blob)
		if err != nil {
			a.logger.Warn(ctx, "avatar storage disabled", "error", err)
		} else {
			opts = append(opts, session.WithUploader(bs))
		}
	}
	a.session = session.New(store, mode, opts...)

	br := bridge.New(c.WalletBridgeURL, logger)
	a.wallet = wallet.New(ctx, br,
		wallet.WithLogger(logger),
		wallet.WithConnectTimeout(c.WalletConnectTimeout),
	)
	// Closed in reverse order: wallet, bridge, store.
	a.closers = append(a.closers, br.Close, func() error { a.wallet.Close(); return nil })

	return a, nil
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// Run restores the session and runs the REPL until the user exits or input
// ends.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	fmt.Fprintf(a.out, "Welcome to Prestige Forum (%s mode, type 'help' for commands)\n", a.session.Mode())

	if err := a.session.Restore(ctx); err != nil {
		a.printError(ctx, err)
	}
	if u, _ := a.session.CurrentUser(); u != nil {
		fmt.Fprintf(a.out, "Signed in as %s\n", u.Username)
	}

	if a.pinger != nil {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go a.StartOnlineStatusWatcher(watchCtx, a.config.OnlineCheckInterval)
	}

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}

func (a *App) isLoggedIn() bool {
	return a.session.State() == session.StateAuthenticated
}

func (a *App) setConnectivity(c Connectivity) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.connectivity != c {
		a.connectivity = c
		a.logger.Info(context.Background(), "data service connectivity changed", "state", string(c))
	}
}

// StartOnlineStatusWatcher pings the data service every interval and keeps
// the connectivity shown in the prompt current.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := a.pinger.Ping(pctx)
			cancel()

			if err != nil {
				a.setConnectivity(ConnectivityOffline)
			} else {
				a.setConnectivity(ConnectivityOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}
