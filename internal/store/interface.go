// internal/store/interface.go
package store

import (
	"context"

	"github.com/newthinker/signalhub/internal/core"
)

// Backend is a complete data source for the application. The hosted
// backends and the in-memory fallback implement it alike.
type Backend interface {
	Users
	Signals

	// Name identifies the backend in logs and metrics.
	Name() string

	// Close releases connections held by the backend.
	Close() error
}

// Users covers accounts, credentials and the admin projection.
type Users interface {
	// Authenticate resolves the account for an email/password pair.
	Authenticate(ctx context.Context, email, password string) (*core.User, error)

	// CreateUser registers a free account and its admin projection.
	CreateUser(ctx context.Context, u NewUser) (*core.User, error)

	// GetUser retrieves an account by ID.
	GetUser(ctx context.Context, id string) (*core.User, error)

	// UpgradeUser moves an account to the premium plan.
	UpgradeUser(ctx context.Context, id string) (*core.User, error)

	// RequestPasswordReset starts the password recovery flow for email.
	RequestPasswordReset(ctx context.Context, email string) error

	// ListAdminUsers returns the admin-visible projection of every account.
	ListAdminUsers(ctx context.Context) ([]core.AdminUser, error)

	// UpdateUserStatus sets the admin status. Unknown IDs are ignored.
	UpdateUserStatus(ctx context.Context, id string, status core.UserStatus) error

	// DeleteUser removes the admin projection, and the login identity too
	// when withIdentity is set. Unknown IDs are ignored.
	DeleteUser(ctx context.Context, id string, withIdentity bool) error
}

// Signals covers signals, providers and follows.
type Signals interface {
	// ListSignals returns signals newest-first within the filter window.
	ListSignals(ctx context.Context, filter SignalFilter) ([]core.Signal, error)

	// CountSignals returns the total number of signals.
	CountSignals(ctx context.Context) (int, error)

	// ListProviders returns every signal provider.
	ListProviders(ctx context.Context) ([]core.SignalProvider, error)

	// ToggleFollow flips whether userID follows providerID and reports the new state.
	ToggleFollow(ctx context.Context, userID, providerID string) (bool, error)
}

// SignalFilter defines the page window for listing signals.
type SignalFilter struct {
	Limit  int
	Offset int
}

// NewUser holds registration input.
type NewUser struct {
	Name     string
	Email    string
	Password string
}

// Migrator is implemented by backends that own a schema.
type Migrator interface {
	Migrate(ctx context.Context) error
	Seed(ctx context.Context, ds *Dataset) error
}

// Purger is implemented by backends that keep expiring reset tokens.
type Purger interface {
	PurgeExpiredResets(ctx context.Context) (int64, error)
}
