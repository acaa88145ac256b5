package service

import (
	"context"
	"fmt"

	"github.com/newthinker/signalhub/internal/core"
	"github.com/newthinker/signalhub/internal/store"
)

// AdminUsers lists every account as seen in the admin panel.
func (s *Service) AdminUsers(ctx context.Context) (Result[[]core.AdminUser], error) {
	list := func(ctx context.Context, b store.Backend) ([]core.AdminUser, error) {
		return b.ListAdminUsers(ctx)
	}
	return attempt(ctx, s, "admin_users", s.opts.Delay, list, list)
}

// UpdateUserStatus sets the admin status of an account. Unknown ids succeed.
func (s *Service) UpdateUserStatus(ctx context.Context, userID string, status core.UserStatus) (Result[struct{}], error) {
	if !status.IsValid() {
		return Result[struct{}]{}, core.WrapError(core.ErrInvalidInput,
			fmt.Errorf("status must be %q or %q, got %q", core.StatusActive, core.StatusSuspended, status))
	}

	update := func(ctx context.Context, b store.Backend) (struct{}, error) {
		return struct{}{}, b.UpdateUserStatus(ctx, userID, status)
	}
	return attempt(ctx, s, "update_user_status", s.opts.Delay/2, update, update)
}

// DeleteUser removes an account from the admin panel, and its login
// identity when Options.DeleteIdentity is set. Unknown ids succeed.
func (s *Service) DeleteUser(ctx context.Context, userID string) (Result[struct{}], error) {
	del := func(ctx context.Context, b store.Backend) (struct{}, error) {
		return struct{}{}, b.DeleteUser(ctx, userID, s.opts.DeleteIdentity)
	}
	return attempt(ctx, s, "delete_user", s.opts.Delay/2, del, del)
}
