// Package wallet tracks the link between the forum client and a Tron wallet
// extension: whether the extension is present, whether it has granted an
// account, and which address is active.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/prestigeforum/internal/common"
	"github.com/dmitrijs2005/prestigeforum/internal/logging"
)

const (
	// ActionAccountsChanged is pushed by the extension when the user switches
	// or locks accounts.
	ActionAccountsChanged = "accountsChanged"
	// MethodRequestAccounts asks the extension to grant an account.
	MethodRequestAccounts = "tron_requestAccounts"

	DefaultConnectTimeout = 30 * time.Second
)

// Notification is an out-of-band message from the extension.
type Notification struct {
	Action string `json:"action"`
}

// Extension is the browser wallet as seen by the controller.
type Extension interface {
	Installed(ctx context.Context) bool
	// DefaultAddress returns the granted base58 address, or "" when the
	// extension has not granted one.
	DefaultAddress(ctx context.Context) (string, error)
	Request(ctx context.Context, method string) error
	Subscribe(fn func(Notification)) (unsubscribe func())
}

// State is the link between the client and the wallet extension.
type State int

const (
	// StateNotInstalled means no extension answered the last probe.
	StateNotInstalled State = iota
	// StateInstalledDisconnected means the extension is present but has not
	// granted an account.
	StateInstalledDisconnected
	// StateConnecting means a Connect is waiting for the user to approve.
	StateConnecting
	// StateConnected means the extension granted a valid Tron address.
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateNotInstalled:
		return "not installed"
	case StateInstalledDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Link is a snapshot of the controller.
type Link struct {
	State     State
	Installed bool
	Connected bool
	Address   string
}

// Controller tracks one wallet extension. It holds a single notification
// subscription for its lifetime and re-probes the extension when the
// extension reports an account change.
//
// Connect and Disconnect may race. Each takes a generation number and only
// the newest one is allowed to change the state; an older Connect returns
// common.ErrSessionSuperseded.
type Controller struct {
	ext     Extension
	logger  logging.Logger
	timeout time.Duration
	observe func(Link)

	mu      sync.Mutex
	state   State
	address string
	gen     uint64
	closed  bool

	unsubscribe func()
	closeOnce   sync.Once
	wg          sync.WaitGroup
}

// Option configures a Controller in New.
type Option func(*Controller)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logging.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithConnectTimeout bounds how long Connect waits for the user. Values
// that are not positive keep DefaultConnectTimeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithObserver registers fn to receive every state change. fn runs with no
// controller lock held.
func WithObserver(fn func(Link)) Option {
	return func(c *Controller) { c.observe = fn }
}

// New probes the extension and subscribes to its notifications. The
// subscription lives until Close.
func New(ctx context.Context, ext Extension, opts ...Option) *Controller {
	c := &Controller{
		ext:     ext,
		logger:  logging.NewNopLogger(),
		timeout: DefaultConnectTimeout,
		state:   StateNotInstalled,
	}
	for _, o := range opts {
		o(c)
	}
	c.logger = c.logger.With("module", "wallet")

	c.unsubscribe = ext.Subscribe(c.notify)
	c.Probe(ctx)
	return c
}

// Link returns the current state without asking the extension.
func (c *Controller) Link() Link {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// snapshot requires c.mu.
func (c *Controller) snapshot() Link {
	return Link{
		State:     c.state,
		Installed: c.state != StateNotInstalled,
		Connected: c.state == StateConnected,
		Address:   c.address,
	}
}

// set moves to state if gen is still current. It reports whether it did.
func (c *Controller) set(gen uint64, state State, address string) bool {
	c.mu.Lock()
	if c.gen != gen || c.closed {
		c.mu.Unlock()
		return false
	}
	changed := c.state != state || c.address != address
	c.state, c.address = state, address
	link := c.snapshot()
	c.mu.Unlock()

	if changed && c.observe != nil {
		c.observe(link)
	}
	return true
}

func (c *Controller) next() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	return c.gen
}

// Probe re-reads presence and the granted address from the extension.
func (c *Controller) Probe(ctx context.Context) Link {
	return c.probe(ctx, c.next())
}

func (c *Controller) probe(ctx context.Context, gen uint64) Link {
	if !c.ext.Installed(ctx) {
		c.set(gen, StateNotInstalled, "")
		return c.Link()
	}

	addr, err := c.ext.DefaultAddress(ctx)
	if err == nil && addr != "" {
		err = ValidateAddress(addr)
	}
	switch {
	case err != nil:
		c.logger.Warn(ctx, "wallet probe failed", "error", err)
		c.set(gen, StateInstalledDisconnected, "")
	case addr == "":
		c.set(gen, StateInstalledDisconnected, "")
	default:
		c.set(gen, StateConnected, addr)
	}
	return c.Link()
}

// Connect asks the extension for an account. Without an extension it fails
// with common.ErrWalletNotInstalled and never sends a request.
func (c *Controller) Connect(ctx context.Context) (Link, error) {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return Link{}, errors.New("wallet controller closed")
	case c.state == StateNotInstalled:
		c.mu.Unlock()
		return c.Link(), common.ErrWalletNotInstalled
	case c.state == StateConnected:
		link := c.snapshot()
		c.mu.Unlock()
		return link, nil
	}
	c.gen++
	gen := c.gen
	c.mu.Unlock()
	c.set(gen, StateConnecting, "")

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	addr, err := c.connect(ctx)
	if err != nil {
		c.set(gen, StateInstalledDisconnected, "")
		c.logger.Info(ctx, "wallet connect failed", "error", err)
		return c.Link(), err
	}

	if !c.set(gen, StateConnected, addr) {
		return c.Link(), common.ErrSessionSuperseded
	}
	c.logger.Info(ctx, "wallet connected", "address", addr)
	return c.Link(), nil
}

func (c *Controller) connect(ctx context.Context) (string, error) {
	if err := c.ext.Request(ctx, MethodRequestAccounts); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", common.ErrWalletTimeout
		}
		return "", fmt.Errorf("%w: %v", common.ErrWalletRejected, err)
	}

	addr, err := c.ext.DefaultAddress(ctx)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", common.ErrWalletTimeout
		}
		return "", fmt.Errorf("%w: %v", common.ErrWalletRejected, err)
	}
	if addr == "" {
		return "", common.ErrWalletRejected
	}
	if err := ValidateAddress(addr); err != nil {
		return "", err
	}
	return addr, nil
}

// Disconnect forgets the granted address. It is idempotent and cancels the
// effect of an in-flight Connect. An absent extension stays NotInstalled.
func (c *Controller) Disconnect() Link {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	target := StateInstalledDisconnected
	if c.state == StateNotInstalled {
		target = StateNotInstalled
	}
	c.mu.Unlock()

	c.set(gen, target, "")
	return c.Link()
}

func (c *Controller) notify(n Notification) {
	if n.Action != ActionAccountsChanged {
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	// The extension may deliver notifications on the goroutine that also
	// reads its replies, so the re-probe must not block the callback.
	go func() {
		defer c.wg.Done()
		gen, ok := c.nextUnlessConnecting()
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		c.probe(ctx, gen)
	}()
}

// nextUnlessConnecting starts a re-probe generation unless a Connect is in
// flight. Extensions announce the account they grant while the connect
// request resolves; Connect reads that address itself.
func (c *Controller) nextUnlessConnecting() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateConnecting {
		return 0, false
	}
	c.gen++
	return c.gen, true
}

// Close removes the extension subscription and waits for pending
// re-probes.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		if c.unsubscribe != nil {
			c.unsubscribe()
		}
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		c.wg.Wait()
	})
}
