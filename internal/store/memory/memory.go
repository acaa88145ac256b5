// internal/store/memory/memory.go
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/signalhub/internal/core"
	"github.com/newthinker/signalhub/internal/store"
)

// Store is the in-memory backend used in mock mode. Accounts live in two
// parallel collections: the login list and the admin-visible projection.
type Store struct {
	mu        sync.RWMutex
	users     []core.User
	admins    []core.AdminUser
	providers []core.SignalProvider
	signals   []core.Signal
	follows   map[string]map[string]struct{} // user -> providers
	now       func() time.Time
}

var _ store.Backend = (*Store)(nil)

// New creates a store holding a copy of ds. A nil dataset starts empty.
func New(ds *store.Dataset) *Store {
	s := &Store{
		follows: make(map[string]map[string]struct{}),
		now:     time.Now,
	}
	if ds != nil {
		s.users = ds.CoreUsers()
		s.admins = ds.CoreAdminUsers()
		s.providers = ds.CoreProviders()
		s.signals = ds.CoreSignals()
	}
	return s
}

// NewDefault creates a store seeded with the embedded demo dataset.
func NewDefault() *Store {
	return New(store.DefaultDataset())
}

// Name returns the backend name.
func (s *Store) Name() string {
	return "memory"
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// Authenticate finds the account by email. Mock accounts have no passwords.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.users {
		if s.users[i].Email == email {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, core.ErrUserNotFound
}

// CreateUser appends to the login list and prepends to the admin projection.
func (s *Store) CreateUser(ctx context.Context, nu store.NewUser) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := core.User{
		ID:    fmt.Sprintf("new_%s", uuid.NewString()),
		Name:  nu.Name,
		Email: nu.Email,
		Role:  core.RoleFree,
		Plan:  core.PlanFree,
	}
	s.users = append(s.users, u)

	joined := s.now()
	admin := core.AdminUser{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Plan:     core.PlanFree,
		Status:   core.StatusActive,
		JoinedAt: &joined,
	}
	s.admins = append([]core.AdminUser{admin}, s.admins...)

	return &u, nil
}

// GetUser retrieves an account by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.userIndex(id); i >= 0 {
		u := s.users[i]
		return &u, nil
	}
	return nil, core.ErrUserNotFound
}

// UpgradeUser moves the account to premium in both collections.
func (s *Store) UpgradeUser(ctx context.Context, id string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.userIndex(id)
	if i < 0 {
		return nil, core.ErrUserNotFound
	}
	s.users[i].Role = core.RolePremium
	s.users[i].Plan = core.PlanPremium

	if j := s.adminIndex(id); j >= 0 {
		s.admins[j].Plan = core.PlanPremium
	}

	u := s.users[i]
	return &u, nil
}

// RequestPasswordReset accepts any email; there is no mailbox in mock mode.
func (s *Store) RequestPasswordReset(ctx context.Context, email string) error {
	return nil
}

// ListAdminUsers returns a copy of the admin projection.
func (s *Store) ListAdminUsers(ctx context.Context) ([]core.AdminUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.AdminUser, len(s.admins))
	copy(out, s.admins)
	return out, nil
}

// UpdateUserStatus sets the admin status of id if present.
func (s *Store) UpdateUserStatus(ctx context.Context, id string, status core.UserStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.adminIndex(id); i >= 0 {
		s.admins[i].Status = status
	}
	return nil
}

// DeleteUser removes the admin projection of id, and the login record when
// withIdentity is set.
func (s *Store) DeleteUser(ctx context.Context, id string, withIdentity bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.adminIndex(id); i >= 0 {
		s.admins = append(s.admins[:i], s.admins[i+1:]...)
	}
	if withIdentity {
		if i := s.userIndex(id); i >= 0 {
			s.users = append(s.users[:i], s.users[i+1:]...)
		}
		delete(s.follows, id)
	}
	return nil
}

// ListSignals returns a copy of the requested window.
func (s *Store) ListSignals(ctx context.Context, filter store.SignalFilter) ([]core.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := filter.Offset
	if start < 0 {
		start = 0
	}
	if start >= len(s.signals) {
		return []core.Signal{}, nil
	}

	end := len(s.signals)
	if filter.Limit > 0 && filter.Limit < end-start {
		end = start + filter.Limit
	}

	out := make([]core.Signal, end-start)
	copy(out, s.signals[start:end])
	return out, nil
}

// CountSignals returns the number of signals.
func (s *Store) CountSignals(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.signals), nil
}

// ListProviders returns a copy of the providers.
func (s *Store) ListProviders(ctx context.Context) ([]core.SignalProvider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.SignalProvider, len(s.providers))
	copy(out, s.providers)
	return out, nil
}

// ToggleFollow flips the follow and adjusts the provider's follower count.
func (s *Store) ToggleFollow(ctx context.Context, userID, providerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := -1
	for i := range s.providers {
		if s.providers[i].ID == providerID {
			p = i
			break
		}
	}
	if p < 0 {
		return false, core.WrapError(core.ErrNotFound, fmt.Errorf("provider %s", providerID))
	}

	set, ok := s.follows[userID]
	if !ok {
		set = make(map[string]struct{})
		s.follows[userID] = set
	}

	if _, following := set[providerID]; following {
		delete(set, providerID)
		if s.providers[p].Followers > 0 {
			s.providers[p].Followers--
		}
		return false, nil
	}
	set[providerID] = struct{}{}
	s.providers[p].Followers++
	return true, nil
}

// AdminCount returns the size of the admin projection.
func (s *Store) AdminCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.admins)
}

// UserCount returns the size of the login list.
func (s *Store) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func (s *Store) userIndex(id string) int {
	for i := range s.users {
		if s.users[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) adminIndex(id string) int {
	for i := range s.admins {
		if s.admins[i].ID == id {
			return i
		}
	}
	return -1
}
