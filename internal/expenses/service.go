package expenses

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/spendline/spendline/internal/apierr"
	"github.com/spendline/spendline/internal/lifetime"
	"github.com/spendline/spendline/internal/model"
	"github.com/spendline/spendline/internal/query"
)

// Gateway is the subset of the backend API the service needs.
type Gateway interface {
	ListExpenses(ctx context.Context, skip, limit int) ([]model.Expense, error)
	CreateExpense(ctx context.Context, d model.Draft) (model.Expense, error)
	UpdateExpense(ctx context.Context, id int64, d model.Draft) (model.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
}

// Service performs confirmed mutations against the server and patches the
// cache afterwards. Callers must not issue two edits of the same expense
// concurrently.
type Service struct {
	gw       Gateway
	cache    *Cache
	pageSize int
}

// NewService returns a service that fetches pageSize records per request.
func NewService(gw Gateway, cache *Cache, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Service{gw: gw, cache: cache, pageSize: pageSize}
}

// Cache returns the backing cache.
func (s *Service) Cache() *Cache { return s.cache }

// Refresh fetches every expense and replaces the cache contents.
func (s *Service) Refresh(ctx context.Context) ([]model.Expense, error) {
	tk := s.cache.Begin()

	var all []model.Expense
	for skip := 0; ; skip += s.pageSize {
		page, err := s.gw.ListExpenses(ctx, skip, s.pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < s.pageSize {
			break
		}
	}

	err := s.cache.apply(tk, func() {
		s.cache.items.ReplaceAll(all)
		s.cache.loaded = true
	})
	if err != nil {
		return nil, err
	}

	log.Debug().Str("component", "expenses").Int("count", len(all)).Msg("refreshed")
	return all, nil
}

// Create validates d, submits it and adds the confirmed record.
func (s *Service) Create(ctx context.Context, d model.Draft) (model.Expense, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return model.Expense{}, err
	}

	tk := s.cache.Begin()
	e, err := s.gw.CreateExpense(ctx, d)
	if err != nil {
		return model.Expense{}, err
	}
	if err := s.cache.apply(tk, func() { s.cache.items.Upsert(e) }); err != nil {
		return model.Expense{}, err
	}
	return e, nil
}

// Update validates d, submits it for expense id and replaces the cached record.
// A not-found answer drops the stale cached entry.
func (s *Service) Update(ctx context.Context, id int64, d model.Draft) (model.Expense, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return model.Expense{}, err
	}

	tk := s.cache.Begin()
	e, err := s.gw.UpdateExpense(ctx, id, d)
	if err != nil {
		return model.Expense{}, s.dropIfGone(tk, id, err)
	}
	if err := s.cache.apply(tk, func() { s.cache.items.Upsert(e) }); err != nil {
		return model.Expense{}, err
	}
	return e, nil
}

// Delete removes expense id on the server, then from the cache.
// A not-found answer drops the stale cached entry.
func (s *Service) Delete(ctx context.Context, id int64) error {
	tk := s.cache.Begin()
	if err := s.gw.DeleteExpense(ctx, id); err != nil {
		return s.dropIfGone(tk, id, err)
	}
	return s.cache.apply(tk, func() { s.cache.items.Remove(id) })
}

func (s *Service) dropIfGone(tk lifetime.Ticket, id int64, err error) error {
	if errors.Is(err, apierr.ErrNotFound) {
		_ = s.cache.apply(tk, func() { s.cache.items.Remove(id) })
	}
	return err
}

// Query applies q to the current snapshot.
func (s *Service) Query(q query.Query) []model.Expense {
	return query.Apply(s.cache.Snapshot(), q)
}
