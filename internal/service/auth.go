package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/newthinker/signalhub/internal/core"
	"github.com/newthinker/signalhub/internal/store"
)

// guestEmail is the address of the premium guest returned by UpgradePlan.
const guestEmail = "guest@test.com"

// Login authenticates against the backend when a password is given. In the
// fallback the mock account with that email is returned, or a guest.
func (s *Service) Login(ctx context.Context, email, password string) (Result[core.User], error) {
	var remote call[core.User]
	if password != "" {
		remote = func(ctx context.Context, b store.Backend) (core.User, error) {
			u, err := b.Authenticate(ctx, email, password)
			if err != nil {
				return core.User{}, err
			}
			return *u, nil
		}
	}

	return attempt(ctx, s, "login", s.opts.Delay, remote,
		func(ctx context.Context, b store.Backend) (core.User, error) {
			u, err := b.Authenticate(ctx, email, password)
			if errors.Is(err, core.ErrUserNotFound) {
				return core.Guest(email), nil
			}
			if err != nil {
				return core.User{}, err
			}
			return *u, nil
		})
}

// Register creates a free account.
func (s *Service) Register(ctx context.Context, email, password, name string) (Result[core.User], error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Result[core.User]{}, core.WrapError(core.ErrInvalidInput, fmt.Errorf("email is required"))
	}
	nu := store.NewUser{Name: strings.TrimSpace(name), Email: email, Password: password}

	create := func(ctx context.Context, b store.Backend) (core.User, error) {
		u, err := b.CreateUser(ctx, nu)
		if err != nil {
			return core.User{}, err
		}
		return *u, nil
	}
	return attempt(ctx, s, "register", s.opts.Delay, create, create)
}

// RecoverPassword starts the password reset flow for email.
func (s *Service) RecoverPassword(ctx context.Context, email string) (Result[struct{}], error) {
	s.logger.Info("password recovery requested")

	reset := func(ctx context.Context, b store.Backend) (struct{}, error) {
		return struct{}{}, b.RequestPasswordReset(ctx, email)
	}
	return attempt(ctx, s, "recover_password", s.opts.Delay, reset, reset)
}

// UpgradePlan moves an account to the premium plan. The guest account
// upgrades to a premium guest; other unknown ids fail with ErrUserNotFound.
func (s *Service) UpgradePlan(ctx context.Context, userID string) (Result[core.User], error) {
	return attempt(ctx, s, "upgrade_plan", s.opts.Delay,
		func(ctx context.Context, b store.Backend) (core.User, error) {
			u, err := b.UpgradeUser(ctx, userID)
			if err != nil {
				return core.User{}, err
			}
			return *u, nil
		},
		func(ctx context.Context, b store.Backend) (core.User, error) {
			u, err := b.UpgradeUser(ctx, userID)
			if errors.Is(err, core.ErrUserNotFound) && userID == core.GuestID {
				g := core.Guest(guestEmail)
				g.Role = core.RolePremium
				g.Plan = core.PlanPremium
				return g, nil
			}
			if err != nil {
				return core.User{}, err
			}
			return *u, nil
		})
}
