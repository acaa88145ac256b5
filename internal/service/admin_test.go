package service

import (
	"context"
	"errors"
	"testing"

	"github.com/newthinker/signalhub/internal/core"
	"github.com/newthinker/signalhub/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findAdmin(users []core.AdminUser, id string) *core.AdminUser {
	for i := range users {
		if users[i].ID == id {
			return &users[i]
		}
	}
	return nil
}

func TestService_AdminUsers(t *testing.T) {
	svc, _ := newMockService(t)

	res, err := svc.AdminUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Value, 5)
}

func TestService_UpdateUserStatus(t *testing.T) {
	svc, _ := newMockService(t)
	ctx := context.Background()

	_, err := svc.UpdateUserStatus(ctx, "u1", core.StatusSuspended)
	require.NoError(t, err)

	res, err := svc.AdminUsers(ctx)
	require.NoError(t, err)
	require.NotNil(t, findAdmin(res.Value, "u1"))
	assert.Equal(t, core.StatusSuspended, findAdmin(res.Value, "u1").Status)
}

func TestService_UpdateUserStatusAbsentID(t *testing.T) {
	svc, _ := newMockService(t)

	res, err := svc.UpdateUserStatus(context.Background(), "ghost", core.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, SourceMock, res.Source)
}

func TestService_UpdateUserStatusInvalid(t *testing.T) {
	primary := &failingBackend{}
	svc := New(primary, nil, Options{}, nil)

	_, err := svc.UpdateUserStatus(context.Background(), "u1", "Banido")
	assert.True(t, errors.Is(err, core.ErrInvalidInput))
	assert.Equal(t, 0, primary.Calls(), "validation happens before any backend call")
}

func TestService_DeleteUser(t *testing.T) {
	t.Run("keeps identity by default", func(t *testing.T) {
		svc, mem := newMockService(t)
		users, admins := mem.UserCount(), mem.AdminCount()

		_, err := svc.DeleteUser(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, admins-1, mem.AdminCount())
		assert.Equal(t, users, mem.UserCount())

		login, err := svc.Login(context.Background(), "ana@sinais.app", "")
		require.NoError(t, err)
		assert.Equal(t, "u1", login.Value.ID, "deleted admin row can still log in")
	})

	t.Run("removes identity when configured", func(t *testing.T) {
		mem := memory.NewDefault()
		svc := New(nil, mem, Options{DeleteIdentity: true}, nil)
		users, admins := mem.UserCount(), mem.AdminCount()

		_, err := svc.DeleteUser(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, admins-1, mem.AdminCount())
		assert.Equal(t, users-1, mem.UserCount())

		login, err := svc.Login(context.Background(), "ana@sinais.app", "")
		require.NoError(t, err)
		assert.Equal(t, core.GuestID, login.Value.ID)
	})

	t.Run("absent id", func(t *testing.T) {
		svc, mem := newMockService(t)
		admins := mem.AdminCount()

		_, err := svc.DeleteUser(context.Background(), "ghost")
		require.NoError(t, err)
		assert.Equal(t, admins, mem.AdminCount())
	})
}
