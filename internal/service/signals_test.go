package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/newthinker/signalhub/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_SignalsPagination(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int
		wantLen     int
		wantPage    int
		wantLimit   int
		wantHasMore bool
	}{
		{"first page", 1, 5, 5, 1, 5, true},
		{"middle page", 2, 5, 5, 2, 5, true},
		{"last partial page", 3, 5, 2, 3, 5, false},
		{"exact fit", 2, 6, 6, 2, 6, false},
		{"past the end", 9, 5, 0, 9, 5, false},
		{"page below one", 0, 5, 5, 1, 5, true},
		{"default limit", 1, 0, 10, 1, 10, true},
		{"everything", 1, 100, 12, 1, 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newMockService(t)

			res, err := svc.Signals(context.Background(), tt.page, tt.limit)
			require.NoError(t, err)

			p := res.Value
			assert.Len(t, p.Data, tt.wantLen)
			assert.LessOrEqual(t, len(p.Data), p.Limit)
			assert.Equal(t, 12, p.Total)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.Equal(t, tt.wantHasMore, p.HasMore)
			assert.Equal(t, p.Page*p.Limit < p.Total, p.HasMore)
			assert.NotNil(t, p.Data)
		})
	}
}

func TestService_SignalsHostileBounds(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int
		wantLen     int
		wantLimit   int
		wantHasMore bool
	}{
		{"huge page and limit", math.MaxInt - 1, math.MaxInt, 0, MaxPageSize, false},
		{"huge limit second page", 2, 1 << 62, 0, MaxPageSize, false},
		{"huge limit first page", 1, math.MaxInt, 12, MaxPageSize, false},
		{"huge page", math.MaxInt, 5, 0, 5, false},
		{"limit above total", 1, 50, 12, 50, false},
		{"negative everything", math.MinInt, math.MinInt, 10, DefaultPageSize, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newMockService(t)

			var res Result[core.Page[core.Signal]]
			var err error
			require.NotPanics(t, func() {
				res, err = svc.Signals(context.Background(), tt.page, tt.limit)
			})
			require.NoError(t, err)

			p := res.Value
			assert.Len(t, p.Data, tt.wantLen)
			assert.LessOrEqual(t, len(p.Data), p.Limit)
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.GreaterOrEqual(t, p.Page, 1)
			assert.Equal(t, tt.wantHasMore, p.HasMore)
			assert.Equal(t, p.Page*p.Limit < p.Total, p.HasMore)
		})
	}
}

func TestService_SignalsWindowsDoNotOverlap(t *testing.T) {
	svc, _ := newMockService(t)
	ctx := context.Background()

	first, err := svc.Signals(ctx, 1, 4)
	require.NoError(t, err)
	second, err := svc.Signals(ctx, 2, 4)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, s := range first.Value.Data {
		seen[s.ID] = true
	}
	for _, s := range second.Value.Data {
		assert.False(t, seen[s.ID], "signal %s appears on two pages", s.ID)
	}
}

func TestService_Providers(t *testing.T) {
	svc, _ := newMockService(t)

	res, err := svc.Providers(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Value, 4)
	assert.Equal(t, SourceMock, res.Source)
}

func TestService_ToggleFollow(t *testing.T) {
	svc, _ := newMockService(t)
	ctx := context.Background()

	res, err := svc.ToggleFollow(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.True(t, res.Value)

	res, err = svc.ToggleFollow(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.False(t, res.Value)

	_, err = svc.ToggleFollow(ctx, "u1", "p404")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}
