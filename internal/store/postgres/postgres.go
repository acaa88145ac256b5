// Package postgres implements the hosted PostgreSQL backend over pgxpool.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/newthinker/signalhub/internal/auth"
	"github.com/newthinker/signalhub/internal/core"
	"github.com/newthinker/signalhub/internal/store"
)

//go:embed schema.sql
var schemaSQL string

const resetTTL = time.Hour

// Store is a store.Backend over a PostgreSQL pool.
type Store struct {
	db  *pgxpool.Pool
	now func() time.Time
}

var (
	_ store.Backend  = (*Store)(nil)
	_ store.Migrator = (*Store)(nil)
	_ store.Purger   = (*Store)(nil)
)

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("database url is required")
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: pool, now: time.Now}, nil
}

// Name returns the backend name.
func (s *Store) Name() string {
	return "postgres"
}

// Close closes the pool.
func (s *Store) Close() error {
	if s != nil && s.db != nil {
		s.db.Close()
	}
	return nil
}

// Migrate applies the embedded schema.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Seed loads ds in one batch. Existing rows are left alone.
func (s *Store) Seed(ctx context.Context, ds *store.Dataset) error {
	hash, err := auth.HashPassword(store.DemoPassword)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, p := range ds.SeedProfiles() {
		batch.Queue(`
			INSERT INTO profiles (id, name, email, role, plan, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO NOTHING`,
			p.ID, p.Name, p.Email, string(p.Role), p.Plan, string(p.Status), p.JoinedAt)
		if p.Login {
			batch.Queue(`
				INSERT INTO auth_identities (id, email, password_hash)
				VALUES ($1, $2, $3)
				ON CONFLICT DO NOTHING`,
				p.ID, p.Email, hash)
		}
	}
	for _, p := range ds.Providers {
		batch.Queue(`
			INSERT INTO providers (id, name, avatar_url, win_rate, followers, total_signals)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO NOTHING`,
			p.ID, p.Name, p.AvatarURL, p.WinRate, p.Followers, p.TotalSignals)
	}
	for _, sig := range ds.Signals {
		batch.Queue(`
			INSERT INTO signals (id, provider_id, pair, type, timeframe, entry, target, stop,
			                     justification, image_url, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO NOTHING`,
			sig.ID, sig.ProviderID, sig.Pair, sig.Type, sig.Timeframe, sig.Entry, sig.Target, sig.Stop,
			sig.Justification, sig.ImageURL, sig.CreatedAt)
	}

	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to seed database: %w", err)
		}
		return nil
	})
}

// Authenticate verifies the password against the identity and loads the profile.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*core.User, error) {
	var id, hash string
	err := s.db.QueryRow(ctx,
		`SELECT id, password_hash FROM auth_identities WHERE LOWER(email) = LOWER($1)`, email,
	).Scan(&id, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	if err := auth.CheckPassword(hash, password); err != nil {
		return nil, err
	}
	return s.GetUser(ctx, id)
}

// CreateUser inserts the identity and a free profile in one transaction.
func (s *Store) CreateUser(ctx context.Context, nu store.NewUser) (*core.User, error) {
	hash, err := auth.HashPassword(nu.Password)
	if err != nil {
		return nil, err
	}

	u := core.User{
		ID:    uuid.NewString(),
		Name:  nu.Name,
		Email: nu.Email,
		Role:  core.RoleFree,
		Plan:  core.PlanFree,
	}
	now := s.now()

	err = pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		var taken bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM auth_identities WHERE LOWER(email) = LOWER($1))`, nu.Email,
		).Scan(&taken); err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if taken {
			return core.ErrEmailTaken
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO auth_identities (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
			u.ID, u.Email, hash, now,
		); err != nil {
			return fmt.Errorf("failed to create identity: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO profiles (id, name, email, role, plan, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			u.ID, u.Name, u.Email, string(u.Role), u.Plan, string(core.StatusActive), now,
		); err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUser retrieves a profile by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*core.User, error) {
	u := &core.User{}
	var role string
	err := s.db.QueryRow(ctx,
		`SELECT id, name, email, role, plan FROM profiles WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &role, &u.Plan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	u.Role = core.Role(role)
	return u, nil
}

// UpgradeUser sets the premium role and plan.
func (s *Store) UpgradeUser(ctx context.Context, id string) (*core.User, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE profiles SET role = $1, plan = $2 WHERE id = $3`,
		string(core.RolePremium), core.PlanPremium, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, core.ErrUserNotFound
	}
	return s.GetUser(ctx, id)
}

// RequestPasswordReset stores a reset token. Unknown emails succeed silently.
func (s *Store) RequestPasswordReset(ctx context.Context, email string) error {
	if _, err := s.db.Exec(ctx, `
		INSERT INTO password_resets (token, identity_id, expires_at)
		SELECT $1, id, $2 FROM auth_identities WHERE LOWER(email) = LOWER($3)`,
		uuid.NewString(), s.now().Add(resetTTL), email,
	); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	return nil
}

// PurgeExpiredResets deletes reset tokens past their expiry.
func (s *Store) PurgeExpiredResets(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM password_resets WHERE expires_at < $1`, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to purge reset tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListAdminUsers returns every profile, newest first.
func (s *Store) ListAdminUsers(ctx context.Context) ([]core.AdminUser, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, email, plan, status, created_at
		FROM profiles
		ORDER BY created_at DESC NULLS LAST`)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	users := []core.AdminUser{}
	for rows.Next() {
		var (
			a      core.AdminUser
			status string
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Plan, &status, &a.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		a.Status = core.UserStatus(status)
		users = append(users, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}
	return users, nil
}

// UpdateUserStatus sets the profile status.
func (s *Store) UpdateUserStatus(ctx context.Context, id string, status core.UserStatus) error {
	if _, err := s.db.Exec(ctx,
		`UPDATE profiles SET status = $1 WHERE id = $2`, string(status), id,
	); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	return nil
}

// DeleteUser removes the profile, and the identity with its follows and
// reset tokens when withIdentity is set.
func (s *Store) DeleteUser(ctx context.Context, id string, withIdentity bool) error {
	stmts := []string{`DELETE FROM profiles WHERE id = $1`}
	if withIdentity {
		stmts = append(stmts,
			`DELETE FROM follows WHERE user_id = $1`,
			`DELETE FROM password_resets WHERE identity_id = $1`,
			`DELETE FROM auth_identities WHERE id = $1`,
		)
	}

	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		for _, q := range stmts {
			if _, err := tx.Exec(ctx, q, id); err != nil {
				return fmt.Errorf("failed to delete user: %w", err)
			}
		}
		return nil
	})
}

// ListSignals returns signals joined with their provider, newest first.
func (s *Store) ListSignals(ctx context.Context, filter store.SignalFilter) ([]core.Signal, error) {
	var limit *int
	if filter.Limit > 0 {
		limit = &filter.Limit
	}
	offset := max(filter.Offset, 0)

	rows, err := s.db.Query(ctx, `
		SELECT s.id, s.pair, s.type, s.timeframe, s.entry, s.target, s.stop,
		       s.justification, s.image_url, s.created_at,
		       p.id, p.name, p.avatar_url, p.win_rate, p.followers, p.total_signals
		FROM signals s
		JOIN providers p ON p.id = s.provider_id
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	signals := []core.Signal{}
	for rows.Next() {
		var sig core.Signal
		if err := rows.Scan(
			&sig.ID, &sig.Pair, &sig.Type, &sig.Timeframe, &sig.Entry, &sig.Target, &sig.Stop,
			&sig.Justification, &sig.ImageURL, &sig.CreatedAt,
			&sig.Provider.ID, &sig.Provider.Name, &sig.Provider.AvatarURL,
			&sig.Provider.WinRate, &sig.Provider.Followers, &sig.Provider.TotalSignals,
		); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		sig.CreatedAt = sig.CreatedAt.UTC()
		sig.Timestamp = store.DisplayTimestamp(sig.CreatedAt)
		signals = append(signals, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signals: %w", err)
	}
	return signals, nil
}

// CountSignals returns the number of signals.
func (s *Store) CountSignals(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM signals`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count signals: %w", err)
	}
	return n, nil
}

// ListProviders returns every provider.
func (s *Store) ListProviders(ctx context.Context) ([]core.SignalProvider, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, avatar_url, win_rate, followers, total_signals
		FROM providers
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query providers: %w", err)
	}
	defer rows.Close()

	providers := []core.SignalProvider{}
	for rows.Next() {
		var p core.SignalProvider
		if err := rows.Scan(&p.ID, &p.Name, &p.AvatarURL, &p.WinRate, &p.Followers, &p.TotalSignals); err != nil {
			return nil, fmt.Errorf("failed to scan provider: %w", err)
		}
		providers = append(providers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating providers: %w", err)
	}
	return providers, nil
}

// ToggleFollow flips the follow row and keeps the follower count in step.
func (s *Store) ToggleFollow(ctx context.Context, userID, providerID string) (bool, error) {
	var following bool
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM providers WHERE id = $1)`, providerID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check provider: %w", err)
		}
		if !exists {
			return core.WrapError(core.ErrNotFound, fmt.Errorf("provider %s", providerID))
		}

		tag, err := tx.Exec(ctx,
			`DELETE FROM follows WHERE user_id = $1 AND provider_id = $2`, userID, providerID)
		if err != nil {
			return fmt.Errorf("failed to unfollow: %w", err)
		}

		delta := -1
		if tag.RowsAffected() == 0 {
			if _, err := tx.Exec(ctx,
				`INSERT INTO follows (user_id, provider_id, created_at) VALUES ($1, $2, $3)`,
				userID, providerID, s.now(),
			); err != nil {
				return fmt.Errorf("failed to follow: %w", err)
			}
			following = true
			delta = 1
		}

		if _, err := tx.Exec(ctx,
			`UPDATE providers SET followers = GREATEST(followers + $1, 0) WHERE id = $2`, delta, providerID,
		); err != nil {
			return fmt.Errorf("failed to update followers: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return following, nil
}
