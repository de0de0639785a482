// Package session owns the signed-in state of the forum client. It resolves
// the persisted session at startup, runs sign-up, sign-in and sign-out
// against one accounts.Store, and records prestige actions for the current
// user.
//
// Every sign-in, sign-up and sign-out bumps a generation counter. A request
// only applies its result if the generation is unchanged, so the results of
// a superseded request are dropped and a sign-out always wins.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dmitrijs2005/prestigeforum/internal/client/accounts"
	"github.com/dmitrijs2005/prestigeforum/internal/client/blob"
	"github.com/dmitrijs2005/prestigeforum/internal/client/mailer"
	"github.com/dmitrijs2005/prestigeforum/internal/common"
	"github.com/dmitrijs2005/prestigeforum/internal/logging"
	"github.com/dmitrijs2005/prestigeforum/internal/models"
	"github.com/dmitrijs2005/prestigeforum/internal/reputation"
)

// State is the lifecycle of the signed-in user as seen by the client.
//
// A controller starts in StateLoading until Restore has asked the store for
// a persisted session. It then settles in StateAuthenticated or
// StateAnonymous and moves between those two on sign-in and sign-out.
type State int

const (
	// StateLoading means the persisted session has not been read yet.
	StateLoading State = iota
	// StateAuthenticated means a user is signed in and CurrentUser is set.
	StateAuthenticated
	// StateAnonymous means no one is signed in.
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

const avatarFolder = "avatars"

// Mailer sends the welcome email after sign-up.
type Mailer interface {
	Send(ctx context.Context, m mailer.Message) error
}

// Uploader stores avatar images.
type Uploader interface {
	Upload(ctx context.Context, folder, name string, body io.Reader) (blob.Object, error)
	Delete(ctx context.Context, key string) error
}

// Controller owns the current session. It signs users up and in through one
// accounts.Store, records prestige actions against the signed-in identity and
// keeps the avatar in the blob store.
//
// Every method is safe for concurrent use. SignUp and SignIn take a
// generation number and SignOut advances it; a sign-in that finishes after a
// newer request started gives up with common.ErrSessionSuperseded instead of
// overwriting the newer result.
type Controller struct {
	store    accounts.Store
	mode     accounts.Mode
	logger   logging.Logger
	mailer   Mailer
	uploader Uploader

	mu    sync.Mutex
	state State
	user  *models.Identity
	gen   uint64

	// sessionMu serializes StartSession/EndSession on the store.
	sessionMu sync.Mutex
	// actionMu serializes read-modify-write of the prestige score.
	actionMu sync.Mutex
}

// Option configures a Controller in New.
type Option func(*Controller)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logging.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithMailer enables the welcome email after sign-up.
func WithMailer(m Mailer) Option {
	return func(c *Controller) { c.mailer = m }
}

// WithUploader enables SetAvatar. Without it SetAvatar fails.
func WithUploader(u Uploader) Option {
	return func(c *Controller) { c.uploader = u }
}

// New returns a controller in StateLoading. The store variant is fixed for
// the controller's lifetime; mode only labels it.
func New(store accounts.Store, mode accounts.Mode, opts ...Option) *Controller {
	c := &Controller{
		store:  store,
		mode:   mode,
		logger: logging.NewNopLogger(),
		state:  StateLoading,
	}
	for _, o := range opts {
		o(c)
	}
	c.logger = c.logger.With("module", "session", "mode", string(mode))
	return c
}

// Mode reports which store variant backs the controller.
func (c *Controller) Mode() accounts.Mode { return c.mode }

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentUser returns a copy of the signed-in identity, or nil when
// anonymous. While loading it fails with common.ErrSessionLoading.
func (c *Controller) CurrentUser() (*models.Identity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateLoading:
		return nil, common.ErrSessionLoading
	case StateAuthenticated:
		u := *c.user
		return &u, nil
	default:
		return nil, nil
	}
}

// IsAdmin reports whether the signed-in identity is an admin. While loading
// it fails with common.ErrSessionLoading rather than answering false.
func (c *Controller) IsAdmin() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateLoading {
		return false, common.ErrSessionLoading
	}
	return c.user != nil && c.user.IsAdmin, nil
}

// Restore resolves StateLoading from the store's persisted session. An
// unreachable store leaves the user anonymous and returns
// common.ErrStoreUnavailable.
func (c *Controller) Restore(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateLoading {
		c.mu.Unlock()
		return nil
	}
	gen := c.gen
	c.mu.Unlock()

	identity, err := c.store.CurrentSession(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.state != StateLoading {
		return nil
	}

	switch {
	case err == nil:
		c.apply(identity)
		c.logger.Info(ctx, "session restored", "user_id", identity.ID)
		return nil
	case errors.Is(err, common.ErrorNotFound):
		c.apply(nil)
		return nil
	default:
		c.apply(nil)
		c.logger.Warn(ctx, "session restore failed", "error", err)
		return c.translate(err)
	}
}

// apply sets the resolved state. c.mu must be held.
func (c *Controller) apply(identity *models.Identity) {
	if identity == nil {
		c.state = StateAnonymous
		c.user = nil
		return
	}
	u := *identity
	c.state = StateAuthenticated
	c.user = &u
}

// begin starts a sign-in or sign-up and returns its generation.
func (c *Controller) begin() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateLoading {
		return 0, common.ErrSessionLoading
	}
	c.gen++
	return c.gen, nil
}

func (c *Controller) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == gen
}

// establish persists the session for identity and makes it current, unless
// a newer request has started since gen.
func (c *Controller) establish(ctx context.Context, gen uint64, identity *models.Identity) error {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	if !c.current(gen) {
		return common.ErrSessionSuperseded
	}
	if err := c.store.StartSession(ctx, identity); err != nil {
		return c.translate(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		// A sign-out is waiting on sessionMu and will end this session.
		return common.ErrSessionSuperseded
	}
	c.apply(identity)
	return nil
}

func validateSignUp(f models.NewIdentity) error {
	email := strings.TrimSpace(f.Email)
	switch {
	case email == "":
		return fmt.Errorf("%w: email is required", common.ErrorValidation)
	case !strings.Contains(email, "@"):
		return fmt.Errorf("%w: email is not an address", common.ErrorValidation)
	case strings.TrimSpace(f.Username) == "":
		return fmt.Errorf("%w: username is required", common.ErrorValidation)
	case f.Password == "":
		return fmt.Errorf("%w: password is required", common.ErrorValidation)
	}
	return nil
}

func (c *Controller) SignUp(ctx context.Context, fields models.NewIdentity) (*models.Identity, error) {
	if err := validateSignUp(fields); err != nil {
		return nil, err
	}
	fields.Username = strings.TrimSpace(fields.Username)

	gen, err := c.begin()
	if err != nil {
		return nil, err
	}

	identity, err := c.store.Create(ctx, fields)
	if err != nil {
		return nil, c.translate(err)
	}
	c.logger.Info(ctx, "account created", "user_id", identity.ID)

	if err := c.establish(ctx, gen, identity); err != nil {
		return nil, err
	}

	c.welcome(ctx, identity)

	u := *identity
	return &u, nil
}

// welcome sends the sign-up email. Failures are logged only.
func (c *Controller) welcome(ctx context.Context, identity *models.Identity) {
	if c.mailer == nil {
		return
	}
	msg, err := mailer.Welcome(*identity)
	if err == nil {
		err = c.mailer.Send(ctx, msg)
	}
	if err != nil {
		c.logger.Warn(ctx, "welcome email not sent", "user_id", identity.ID, "error", err)
	}
}

func (c *Controller) SignIn(ctx context.Context, email, password string) (*models.Identity, error) {
	gen, err := c.begin()
	if err != nil {
		return nil, err
	}

	identity, err := c.store.VerifyCredentials(ctx, email, password)
	if err != nil {
		return nil, c.translate(err)
	}

	if err := c.establish(ctx, gen, identity); err != nil {
		return nil, err
	}
	c.logger.Info(ctx, "signed in", "user_id", identity.ID)

	u := *identity
	return &u, nil
}

// SignOut moves to StateAnonymous unconditionally, then ends the persisted
// session. A store error is returned but does not undo the sign-out.
func (c *Controller) SignOut(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	c.apply(nil)
	c.mu.Unlock()

	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	if err := c.store.EndSession(ctx); err != nil {
		c.logger.Warn(ctx, "end session failed", "error", err)
		return c.translate(err)
	}
	c.logger.Info(ctx, "signed out")
	return nil
}

// signedIn returns a copy of the current identity and the generation it
// belongs to.
func (c *Controller) signedIn() (models.Identity, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateLoading:
		return models.Identity{}, 0, common.ErrSessionLoading
	case StateAnonymous:
		return models.Identity{}, 0, common.ErrNotSignedIn
	}
	return *c.user, c.gen, nil
}

// patch updates the cached identity if it still belongs to gen.
func (c *Controller) patch(gen uint64, id string, fn func(*models.Identity)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen == gen && c.user != nil && c.user.ID == id {
		fn(c.user)
	}
}

// RecordAction applies a prestige action to the signed-in user and persists
// the new score. Unknown action keys are a programming error: they are
// logged and returned as common.ErrUnknownAction without touching the store.
func (c *Controller) RecordAction(ctx context.Context, key string) (*models.Identity, error) {
	c.actionMu.Lock()
	defer c.actionMu.Unlock()

	user, gen, err := c.signedIn()
	if err != nil {
		return nil, err
	}

	updated, err := reputation.ApplyAction(user, key)
	if err != nil {
		c.logger.Error(ctx, "prestige action rejected", "action", key, "error", err)
		return nil, err
	}

	if err := c.store.UpdatePrestige(ctx, user.ID, updated.PrestigeScore); err != nil {
		return nil, c.translate(err)
	}
	c.patch(gen, user.ID, func(i *models.Identity) { i.PrestigeScore = updated.PrestigeScore })

	c.logger.Info(ctx, "prestige action recorded", "user_id", user.ID, "action", key,
		"score", updated.PrestigeScore)
	return &updated, nil
}

// SetAvatar uploads an image and stores its URL on the signed-in identity.
func (c *Controller) SetAvatar(ctx context.Context, name string, body io.Reader) (*models.Identity, error) {
	user, gen, err := c.signedIn()
	if err != nil {
		return nil, err
	}
	if c.uploader == nil {
		return nil, fmt.Errorf("%w: avatar storage not configured", common.ErrStoreUnavailable)
	}

	obj, err := c.uploader.Upload(ctx, avatarFolder, name, body)
	if errors.Is(err, blob.ErrTooLarge) {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	if err != nil {
		return nil, c.translate(err)
	}

	if err := c.store.UpdateAvatar(ctx, user.ID, obj.URL); err != nil {
		if delErr := c.uploader.Delete(ctx, obj.Path); delErr != nil {
			c.logger.Warn(ctx, "orphaned avatar upload", "path", obj.Path, "error", delErr)
		}
		return nil, c.translate(err)
	}
	c.patch(gen, user.ID, func(i *models.Identity) { i.AvatarURL = obj.URL })

	user.AvatarURL = obj.URL
	return &user, nil
}

// translate keeps the errors the controller documents and folds every other
// store failure into common.ErrStoreUnavailable.
func (c *Controller) translate(err error) error {
	for _, known := range []error{
		common.ErrorValidation,
		common.ErrDuplicateEmail,
		common.ErrorUnauthorized,
		common.ErrUnknownAction,
		common.ErrStoreUnavailable,
		common.ErrSessionLoading,
		common.ErrSessionSuperseded,
		common.ErrNotSignedIn,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
}
