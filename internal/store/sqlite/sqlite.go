// Package sqlite implements the embedded SQLite backend.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/signalhub/internal/auth"
	"github.com/newthinker/signalhub/internal/core"
	"github.com/newthinker/signalhub/internal/store"

	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed schema.sql
var schemaSQL string

// resetTTL is how long a password reset token stays valid.
const resetTTL = time.Hour

// Store is a store.Backend over a SQLite file.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ store.Backend  = (*Store)(nil)
	_ store.Migrator = (*Store)(nil)
	_ store.Purger   = (*Store)(nil)
)

// Open opens (and creates if needed) the SQLite database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite prefers single writer.
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Name returns the backend name.
func (s *Store) Name() string {
	return "sqlite"
}

// Close releases the underlying DB handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Migrate applies the embedded schema. Statements are idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Seed loads ds, skipping rows that already exist.
func (s *Store) Seed(ctx context.Context, ds *store.Dataset) error {
	hash, err := auth.HashPassword(store.DemoPassword)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	now := millis(s.now())
	for _, p := range ds.SeedProfiles() {
		var joined sql.NullInt64
		if p.JoinedAt != nil {
			joined = sql.NullInt64{Int64: millis(*p.JoinedAt), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO profiles (id, name, email, role, plan, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Email, string(p.Role), p.Plan, string(p.Status), joined,
		); err != nil {
			return fmt.Errorf("seed profile %s: %w", p.ID, err)
		}
		if !p.Login {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO auth_identities (id, email, password_hash, created_at)
			VALUES (?, ?, ?, ?)`,
			p.ID, p.Email, hash, now,
		); err != nil {
			return fmt.Errorf("seed identity %s: %w", p.ID, err)
		}
	}

	for _, p := range ds.Providers {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO providers (id, name, avatar_url, win_rate, followers, total_signals)
			VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.AvatarURL, p.WinRate, p.Followers, p.TotalSignals,
		); err != nil {
			return fmt.Errorf("seed provider %s: %w", p.ID, err)
		}
	}

	for _, sig := range ds.Signals {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO signals (id, provider_id, pair, type, timeframe, entry, target, stop,
			                               justification, image_url, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sig.ID, sig.ProviderID, sig.Pair, sig.Type, sig.Timeframe, sig.Entry, sig.Target, sig.Stop,
			sig.Justification, sig.ImageURL, millis(sig.CreatedAt),
		); err != nil {
			return fmt.Errorf("seed signal %s: %w", sig.ID, err)
		}
	}

	return tx.Commit()
}

// Authenticate verifies the password against the identity and loads the profile.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*core.User, error) {
	var id, hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, password_hash FROM auth_identities WHERE email = ?`, email,
	).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query identity: %w", err)
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create user: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM auth_identities WHERE email = ?`, nu.Email,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists > 0 {
		return nil, core.ErrEmailTaken
	}

	u := core.User{
		ID:    uuid.NewString(),
		Name:  nu.Name,
		Email: nu.Email,
		Role:  core.RoleFree,
		Plan:  core.PlanFree,
	}
	now := millis(s.now())

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO auth_identities (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, hash, now,
	); err != nil {
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO profiles (id, name, email, role, plan, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, string(u.Role), u.Plan, string(core.StatusActive), now,
	); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create user: %w", err)
	}
	return &u, nil
}

// GetUser loads a profile by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*core.User, error) {
	u := &core.User{}
	var role string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, role, plan FROM profiles WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &role, &u.Plan)
	if errors.Is(err, sql.ErrNoRows) {
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
	res, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET role = ?, plan = ? WHERE id = ?`,
		string(core.RolePremium), core.PlanPremium, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, core.ErrUserNotFound
	}
	return s.GetUser(ctx, id)
}

// RequestPasswordReset stores a reset token for the identity. Unknown emails
// succeed silently so callers cannot probe for accounts.
func (s *Store) RequestPasswordReset(ctx context.Context, email string) error {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM auth_identities WHERE email = ?`, email,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to query identity: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO password_resets (token, identity_id, expires_at) VALUES (?, ?, ?)`,
		uuid.NewString(), id, millis(s.now().Add(resetTTL)),
	); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	return nil
}

// PurgeExpiredResets deletes reset tokens past their expiry.
func (s *Store) PurgeExpiredResets(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM password_resets WHERE expires_at < ?`, millis(s.now()),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge reset tokens: %w", err)
	}
	return res.RowsAffected()
}

// ListAdminUsers returns every profile, newest first.
func (s *Store) ListAdminUsers(ctx context.Context) ([]core.AdminUser, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, plan, status, created_at
		FROM profiles
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	users := []core.AdminUser{}
	for rows.Next() {
		var (
			a      core.AdminUser
			status string
			joined sql.NullInt64
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Plan, &status, &joined); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		a.Status = core.UserStatus(status)
		if joined.Valid {
			t := fromMillis(joined.Int64)
			a.JoinedAt = &t
		}
		users = append(users, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}
	return users, nil
}

// UpdateUserStatus sets the profile status. Zero affected rows is fine.
func (s *Store) UpdateUserStatus(ctx context.Context, id string, status core.UserStatus) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET status = ? WHERE id = ?`, string(status), id,
	); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	return nil
}

// DeleteUser removes the profile, and the identity with its follows and
// reset tokens when withIdentity is set.
func (s *Store) DeleteUser(ctx context.Context, id string, withIdentity bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete user: %w", err)
	}
	defer tx.Rollback()

	stmts := []string{`DELETE FROM profiles WHERE id = ?`}
	if withIdentity {
		stmts = append(stmts,
			`DELETE FROM follows WHERE user_id = ?`,
			`DELETE FROM password_resets WHERE identity_id = ?`,
			`DELETE FROM auth_identities WHERE id = ?`,
		)
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
	}
	return tx.Commit()
}

// ListSignals returns signals joined with their provider, newest first.
func (s *Store) ListSignals(ctx context.Context, filter store.SignalFilter) ([]core.Signal, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = -1 // no limit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.pair, s.type, s.timeframe, s.entry, s.target, s.stop,
		       s.justification, s.image_url, s.created_at,
		       p.id, p.name, p.avatar_url, p.win_rate, p.followers, p.total_signals
		FROM signals s
		JOIN providers p ON p.id = s.provider_id
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	signals := []core.Signal{}
	for rows.Next() {
		var (
			sig     core.Signal
			created int64
		)
		if err := rows.Scan(
			&sig.ID, &sig.Pair, &sig.Type, &sig.Timeframe, &sig.Entry, &sig.Target, &sig.Stop,
			&sig.Justification, &sig.ImageURL, &created,
			&sig.Provider.ID, &sig.Provider.Name, &sig.Provider.AvatarURL,
			&sig.Provider.WinRate, &sig.Provider.Followers, &sig.Provider.TotalSignals,
		); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		sig.CreatedAt = fromMillis(created)
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
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM signals`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count signals: %w", err)
	}
	return n, nil
}

// ListProviders returns every provider.
func (s *Store) ListProviders(ctx context.Context) ([]core.SignalProvider, error) {
	rows, err := s.db.QueryContext(ctx, `
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
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin toggle follow: %w", err)
	}
	defer tx.Rollback()

	var providers int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM providers WHERE id = ?`, providerID,
	).Scan(&providers); err != nil {
		return false, fmt.Errorf("failed to check provider: %w", err)
	}
	if providers == 0 {
		return false, core.WrapError(core.ErrNotFound, fmt.Errorf("provider %s", providerID))
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM follows WHERE user_id = ? AND provider_id = ?`, userID, providerID)
	if err != nil {
		return false, fmt.Errorf("failed to unfollow: %w", err)
	}

	following := false
	delta := -1
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO follows (user_id, provider_id, created_at) VALUES (?, ?, ?)`,
			userID, providerID, millis(s.now()),
		); err != nil {
			return false, fmt.Errorf("failed to follow: %w", err)
		}
		following = true
		delta = 1
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE providers SET followers = MAX(followers + ?, 0) WHERE id = ?`, delta, providerID,
	); err != nil {
		return false, fmt.Errorf("failed to update followers: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit toggle follow: %w", err)
	}
	return following, nil
}

func millis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
