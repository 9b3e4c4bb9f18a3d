// Package workspace wires the session, gateway and caches into one owned
// context object shared by the CLI and the TUI.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/spendline/spendline/internal/config"
	"github.com/spendline/spendline/internal/expenses"
	"github.com/spendline/spendline/internal/gateway"
	"github.com/spendline/spendline/internal/notify"
	"github.com/spendline/spendline/internal/query"
	"github.com/spendline/spendline/internal/report"
	"github.com/spendline/spendline/internal/session"
	"github.com/spendline/spendline/internal/store"
	"github.com/spendline/spendline/internal/token"
)

// TokenSlot is the durable slot name holding the bearer token.
const TokenSlot = "token"

// Options adjusts how a workspace is opened.
type Options struct {
	// Ephemeral keeps the token in memory only.
	Ephemeral  bool
	StatePath  string
	HTTPClient *http.Client
}

// Workspace owns every component of a running client.
type Workspace struct {
	Config   config.Config
	Tokens   *token.Store
	Gateway  *gateway.Client
	Session  *session.Controller
	Expenses *expenses.Service
	Reports  *report.Loader
	Feed     *notify.Feed

	db          *store.DB
	unsubscribe func()
}

// Open builds a workspace from cfg. Nothing touches the network until Start.
func Open(cfg config.Config, opts Options) (*Workspace, error) {
	w := &Workspace{Config: cfg}

	var slot token.Slot
	if !opts.Ephemeral {
		path := opts.StatePath
		if path == "" {
			path = cfg.Session.StatePath
		}
		if path == "" {
			path = store.DefaultPath()
		}
		db, err := store.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening session state: %w", err)
		}
		w.db = db
		slot = db.Slot(TokenSlot)
	}
	w.Tokens = token.NewStore(slot)

	gwOpts := []gateway.Option{
		gateway.WithTimeout(cfg.Timeout()),
		gateway.WithExportPath(cfg.API.ExportPath),
	}
	if opts.HTTPClient != nil {
		gwOpts = append(gwOpts, gateway.WithHTTPClient(opts.HTTPClient))
	}
	w.Gateway = gateway.New(cfg.API.BaseURL, w.Tokens, gwOpts...)

	w.Session = session.New(w.Tokens, w.Gateway, cfg.ProfileRules())
	w.Gateway.OnUnauthorized(w.Session.HandleUnauthorized)

	w.Expenses = expenses.NewService(w.Gateway, expenses.NewCache(), gateway.DefaultPageSize)
	w.Reports = report.NewLoader(w.Gateway)
	w.Feed = notify.NewFeed(w.Gateway, gateway.DefaultPageSize)

	w.unsubscribe = w.Session.Subscribe(func(ch session.Change) {
		w.Expenses.Cache().Reset()
		w.Feed.Reset()
		w.Reports.Reset()
		log.Debug().Str("component", "workspace").Bool("signed_in", ch.SignedIn).
			Uint64("generation", ch.Generation).Msg("identity changed, caches reset")
	})

	return w, nil
}

// Start restores the persisted session. Failing to restore it is not an
// error: the workspace simply starts signed out.
func (w *Workspace) Start(ctx context.Context) {
	if err := w.Session.Initialize(ctx); err != nil {
		log.Debug().Err(err).Str("component", "workspace").Msg("no session restored")
	}
}

// Reload refreshes expenses and notifications concurrently, each into its own cache.
func (w *Workspace) Reload(ctx context.Context) error {
	if _, ok := w.Session.User(); !ok {
		return ErrSignedOut
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := w.Expenses.Refresh(gctx)
		return err
	})
	g.Go(func() error {
		_, err := w.Feed.Refresh(gctx)
		return err
	})
	return g.Wait()
}

// DefaultQuery returns the configured default list query.
func (w *Workspace) DefaultQuery() query.Query {
	q := query.Default()
	if f, err := query.ParseField(w.Config.List.SortBy); err == nil {
		q.Sort.Field = f
	}
	if o, err := query.ParseOrder(w.Config.List.SortOrder); err == nil {
		q.Sort.Order = o
	}
	return q
}

// Close releases the state database.
func (w *Workspace) Close() error {
	if w.unsubscribe != nil {
		w.unsubscribe()
	}
	if w.db != nil {
		return w.db.Close()
	}
	return nil
}

// ErrSignedOut is returned by operations that need a session when there is none.
var ErrSignedOut = errors.New("not signed in (run `spendline login`)")
