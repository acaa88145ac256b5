package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/newthinker/signalhub/internal/core"
	"github.com/newthinker/signalhub/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeededStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	s, err := Open(ctx, filepath.Join(t.TempDir(), "data", "signalhub.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Seed(ctx, store.DefaultDataset()))
	return s
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}

func TestStore_MigrateAndSeedIdempotent(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Seed(ctx, store.DefaultDataset()))

	n, err := s.CountSignals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	users, err := s.ListAdminUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 5)
	assert.Equal(t, "sqlite", s.Name())
}

func TestStore_Authenticate(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	u, err := s.Authenticate(ctx, "bruno@sinais.app", store.DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, "u2", u.ID)
	assert.Equal(t, core.RolePremium, u.Role)

	u, err = s.Authenticate(ctx, "ANA@sinais.app", store.DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID, "email match ignores case")

	_, err = s.Authenticate(ctx, "bruno@sinais.app", "wrong-password")
	assert.True(t, errors.Is(err, core.ErrInvalidCredentials))

	_, err = s.Authenticate(ctx, "diego@sinais.app", store.DemoPassword)
	assert.True(t, errors.Is(err, core.ErrInvalidCredentials), "admin-only rows have no identity")
}

func TestStore_CreateUser(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, store.NewUser{Name: "Fábio", Email: "fabio@sinais.app", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, core.RoleFree, u.Role)
	assert.Equal(t, core.PlanFree, u.Plan)

	found, err := s.Authenticate(ctx, "fabio@sinais.app", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	users, err := s.ListAdminUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, u.ID, users[0].ID, "newest account is listed first")
	assert.Equal(t, core.StatusActive, users[0].Status)
	require.NotNil(t, users[0].JoinedAt)

	_, err = s.CreateUser(ctx, store.NewUser{Name: "Outro", Email: "FABIO@sinais.app", Password: "secret1"})
	assert.True(t, errors.Is(err, core.ErrEmailTaken))

	_, err = s.CreateUser(ctx, store.NewUser{Name: "Curto", Email: "curto@sinais.app", Password: "123"})
	assert.True(t, errors.Is(err, core.ErrInvalidInput))
}

func TestStore_UpgradeUser(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	u, err := s.UpgradeUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, core.RolePremium, u.Role)
	assert.Equal(t, core.PlanPremium, u.Plan)

	_, err = s.UpgradeUser(ctx, "missing")
	assert.True(t, errors.Is(err, core.ErrUserNotFound))
}

func TestStore_PasswordResets(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	require.NoError(t, s.RequestPasswordReset(ctx, "ana@sinais.app"))
	require.NoError(t, s.RequestPasswordReset(ctx, "nobody@sinais.app"))

	n, err := s.PurgeExpiredResets(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "fresh tokens survive")

	s.now = func() time.Time { return time.Now().Add(2 * resetTTL) }
	n, err = s.PurgeExpiredResets(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStore_ListAdminUsers(t *testing.T) {
	s := newSeededStore(t)

	users, err := s.ListAdminUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 5)

	assert.Equal(t, "u4", users[0].ID)
	assert.Equal(t, core.StatusSuspended, users[0].Status)
	assert.Equal(t, "u5", users[4].ID, "rows without a join date sort last")
	assert.Nil(t, users[4].JoinedAt)
}

func TestStore_UpdateUserStatus(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpdateUserStatus(ctx, "u1", core.StatusSuspended))
	require.NoError(t, s.UpdateUserStatus(ctx, "missing", core.StatusSuspended))

	users, err := s.ListAdminUsers(ctx)
	require.NoError(t, err)
	for _, u := range users {
		if u.ID == "u1" {
			assert.Equal(t, core.StatusSuspended, u.Status)
		}
	}
}

func TestStore_DeleteUser(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	require.NoError(t, s.DeleteUser(ctx, "u1", false))
	users, err := s.ListAdminUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 4)

	_, err = s.Authenticate(ctx, "ana@sinais.app", store.DemoPassword)
	assert.True(t, errors.Is(err, core.ErrUserNotFound), "identity survives without its profile")

	require.NoError(t, s.DeleteUser(ctx, "u2", true))
	_, err = s.Authenticate(ctx, "bruno@sinais.app", store.DemoPassword)
	assert.True(t, errors.Is(err, core.ErrInvalidCredentials))

	require.NoError(t, s.DeleteUser(ctx, "missing", true))
}

func TestStore_ListSignals(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	all, err := s.ListSignals(ctx, store.SignalFilter{})
	require.NoError(t, err)
	require.Len(t, all, 12)
	assert.Equal(t, "s1", all[0].ID)
	assert.Equal(t, "CryptoMestre", all[0].Provider.Name)
	assert.Equal(t, "25/05/2024", all[0].Timestamp)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt), "newest first")
	}

	page, err := s.ListSignals(ctx, store.SignalFilter{Limit: 5, Offset: 10})
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.Equal(t, all[10].ID, page[0].ID)

	empty, err := s.ListSignals(ctx, store.SignalFilter{Limit: 5, Offset: 50})
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NotNil(t, empty)
}

func TestStore_ListSignals_SameTimestampPagesAreStable(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "signalhub.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ds := store.DefaultDataset()
	at := time.Date(2024, 5, 25, 12, 0, 0, 0, time.UTC)
	for i := range ds.Signals {
		ds.Signals[i].CreatedAt = at
	}
	require.NoError(t, s.Seed(ctx, ds))

	seen := map[string]bool{}
	var ids []string
	for offset := 0; offset < len(ds.Signals); offset++ {
		page, err := s.ListSignals(ctx, store.SignalFilter{Limit: 1, Offset: offset})
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.False(t, seen[page[0].ID], "signal %s listed twice", page[0].ID)
		seen[page[0].ID] = true
		ids = append(ids, page[0].ID)
	}
	assert.Len(t, seen, len(ds.Signals))
	assert.IsNonIncreasing(t, ids)
}

func TestStore_ToggleFollow(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	followers := func() int {
		providers, err := s.ListProviders(ctx)
		require.NoError(t, err)
		for _, p := range providers {
			if p.ID == "p1" {
				return p.Followers
			}
		}
		t.Fatal("provider p1 missing")
		return 0
	}
	before := followers()

	following, err := s.ToggleFollow(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.True(t, following)
	assert.Equal(t, before+1, followers())

	following, err = s.ToggleFollow(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.False(t, following)
	assert.Equal(t, before, followers())

	_, err = s.ToggleFollow(ctx, "u1", "p99")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}
