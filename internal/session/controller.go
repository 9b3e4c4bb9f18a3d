// Package session owns the authentication lifecycle: restoring a persisted
// token, logging in and out, and tearing the session down when the server
// rejects the token.
//
// After every settled operation exactly one of these holds: there is no user,
// or there is a user and a token.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/spendline/spendline/internal/apierr"
	"github.com/spendline/spendline/internal/lifetime"
	"github.com/spendline/spendline/internal/model"
	"github.com/spendline/spendline/internal/token"
)

// Gateway is the subset of the backend API the controller needs.
type Gateway interface {
	Login(ctx context.Context, username, password string) (string, error)
	Me(ctx context.Context) (model.User, error)
	Register(ctx context.Context, r model.Registration) (model.User, error)
	UpdateMe(ctx context.Context, p model.ProfileUpdate) (model.User, error)
	ChangePassword(ctx context.Context, current, next string) error
	NotificationSettings(ctx context.Context) (bool, error)
	SetNotificationSettings(ctx context.Context, enabled bool) (bool, error)
}

// Change describes a settled change of identity.
type Change struct {
	User       model.User
	SignedIn   bool
	Generation uint64
}

// Controller is the session state machine. Operations that mutate the session
// must not be issued concurrently by the same caller; reads are always safe.
type Controller struct {
	tokens *token.Store
	gw     Gateway
	rules  model.ProfileRules

	initOnce sync.Once
	initErr  error

	mu         sync.RWMutex
	user       *model.User
	ready      bool
	generation uint64
	nextSubID  int
	listeners  map[int]func(Change)
}

// New returns a controller over tokens and gw using rules for client-side checks.
func New(tokens *token.Store, gw Gateway, rules model.ProfileRules) *Controller {
	return &Controller{
		tokens:    tokens,
		gw:        gw,
		rules:     rules,
		listeners: make(map[int]func(Change)),
	}
}

// Initialize restores a persisted token and resolves its identity. It runs
// once per controller; later calls return the first result. The returned
// error is informational: the session is settled either way.
func (c *Controller) Initialize(ctx context.Context) error {
	c.initOnce.Do(func() {
		c.initErr = c.initialize(ctx)
	})
	return c.initErr
}

func (c *Controller) initialize(ctx context.Context) error {
	defer c.markReady()

	tok, err := c.tokens.Restore()
	if err != nil {
		c.tokens.Clear()
		return err
	}
	if tok == "" {
		return nil
	}

	u, err := c.gw.Me(ctx)
	if err != nil {
		log.Debug().Err(err).Str("component", "session").Msg("restored token rejected")
		c.revoke(tok)
		return err
	}
	return c.settle(tok, u)
}

func (c *Controller) markReady() {
	c.mu.Lock()
	c.ready = true
	c.mu.Unlock()
}

// Login authenticates with username and password and resolves the identity.
func (c *Controller) Login(ctx context.Context, username, password string) (model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return model.User{}, apierr.Validation("username", "username is required")
	}
	if password == "" {
		return model.User{}, apierr.Validation("password", "password is required")
	}

	tok, err := c.gw.Login(ctx, username, password)
	if err != nil {
		return model.User{}, err
	}
	return c.establish(ctx, tok)
}

// CompleteExternalLogin accepts a token issued out of band, e.g. by an OAuth redirect.
func (c *Controller) CompleteExternalLogin(ctx context.Context, tok string) (model.User, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return model.User{}, apierr.Auth("no token received")
	}
	return c.establish(ctx, tok)
}

// establish stores tok and resolves who it belongs to. On failure the token
// is dropped again so no token is left without a user.
func (c *Controller) establish(ctx context.Context, tok string) (model.User, error) {
	c.tokens.Set(tok)

	u, err := c.gw.Me(ctx)
	if err != nil {
		c.revoke(tok)
		return model.User{}, err
	}
	if err := c.settle(tok, u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// settle installs u as the current user if tok is still the live token.
func (c *Controller) settle(tok string, u model.User) error {
	c.mu.Lock()
	if c.tokens.Token() != tok {
		c.mu.Unlock()
		return lifetime.ErrStale
	}
	c.user = &u
	c.ready = true
	change := c.advanceLocked()
	c.mu.Unlock()

	log.Debug().Str("component", "session").Str("user", u.Username).Msg("signed in")
	c.notify(change)
	return nil
}

// Register creates an account. It never changes the session.
func (c *Controller) Register(ctx context.Context, r model.Registration) (model.User, error) {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	if err := c.rules.ValidateRegistration(r); err != nil {
		return model.User{}, err
	}
	return c.gw.Register(ctx, r)
}

// Logout clears the token and the user. It never fails.
func (c *Controller) Logout() {
	c.tokens.Clear()
	c.clearUser()
}

// HandleUnauthorized tears the session down after the server rejected tok.
// Only the first report for the live token has any effect.
func (c *Controller) HandleUnauthorized(tok string) {
	if c.tokens.ClearIf(tok) {
		log.Info().Str("component", "session").Msg("session expired, signed out")
		c.clearUser()
	}
}

// revoke drops tok if it is still live, along with the user it stood for.
func (c *Controller) revoke(tok string) {
	if c.tokens.ClearIf(tok) {
		c.clearUser()
	}
}

func (c *Controller) clearUser() {
	c.mu.Lock()
	c.user = nil
	c.ready = true
	change := c.advanceLocked()
	c.mu.Unlock()
	c.notify(change)
}

func (c *Controller) advanceLocked() Change {
	c.generation++
	ch := Change{Generation: c.generation}
	if c.user != nil {
		ch.User = *c.user
		ch.SignedIn = true
	}
	return ch
}

// User returns the signed-in user.
func (c *Controller) User() (model.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return model.User{}, false
	}
	return *c.user, true
}

// Ready reports whether initialization has settled.
func (c *Controller) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Generation counts identity changes.
func (c *Controller) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Rules returns the client-side validation policy.
func (c *Controller) Rules() model.ProfileRules { return c.rules }

// Subscribe registers fn for identity changes and returns a function that
// removes it. fn runs synchronously after the change is settled.
func (c *Controller) Subscribe(fn func(Change)) func() {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Controller) notify(ch Change) {
	c.mu.RLock()
	fns := make([]func(Change), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.RUnlock()

	for _, fn := range fns {
		fn(ch)
	}
}
