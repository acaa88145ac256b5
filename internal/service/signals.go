package service

import (
	"context"
	"math"

	"github.com/newthinker/signalhub/internal/core"
	"github.com/newthinker/signalhub/internal/store"
)

const (
	// DefaultPageSize is used when a non-positive limit is requested.
	DefaultPageSize = 10
	// MaxPageSize caps the limit of a single page.
	MaxPageSize = 100
)

// Signals returns one page of signals, newest first.
func (s *Service) Signals(ctx context.Context, page, limit int) (Result[core.Page[core.Signal]], error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	// page*limit must fit in an int.
	if page > math.MaxInt/limit {
		page = math.MaxInt / limit
	}
	offset := (page - 1) * limit

	list := func(ctx context.Context, b store.Backend) (core.Page[core.Signal], error) {
		data, err := b.ListSignals(ctx, store.SignalFilter{Limit: limit, Offset: offset})
		if err != nil {
			return core.Page[core.Signal]{}, err
		}
		total, err := b.CountSignals(ctx)
		if err != nil {
			return core.Page[core.Signal]{}, err
		}
		return core.Page[core.Signal]{
			Data:    data,
			Total:   total,
			Page:    page,
			Limit:   limit,
			HasMore: offset < total && total-offset > limit,
		}, nil
	}
	return attempt(ctx, s, "signals", s.opts.Delay, list, list)
}

// Providers returns every signal provider.
func (s *Service) Providers(ctx context.Context) (Result[[]core.SignalProvider], error) {
	list := func(ctx context.Context, b store.Backend) ([]core.SignalProvider, error) {
		return b.ListProviders(ctx)
	}
	return attempt(ctx, s, "providers", s.opts.Delay, list, list)
}

// ToggleFollow flips whether userID follows providerID and returns the new state.
func (s *Service) ToggleFollow(ctx context.Context, userID, providerID string) (Result[bool], error) {
	toggle := func(ctx context.Context, b store.Backend) (bool, error) {
		return b.ToggleFollow(ctx, userID, providerID)
	}
	return attempt(ctx, s, "toggle_follow", s.opts.Delay/2, toggle, toggle)
}
