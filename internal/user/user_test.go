package user_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/membergate/membergate/internal/user"
)

func TestNewUser(t *testing.T) {
	t.Parallel()

	u, err := user.New("alice@example.com", "s3cret-password")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEqual(t, "s3cret-password", u.PasswordHash)

	assert.True(t, u.CheckPassword("s3cret-password"))
	assert.False(t, u.CheckPassword("wrong-password"))
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := user.NewMemoryStore()

	u, err := user.New("bob@example.com", "password")
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, u))

	t.Run("get by id", func(t *testing.T) {
		got, err := store.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.Email, got.Email)
	})

	t.Run("get by email is case-insensitive", func(t *testing.T) {
		got, err := store.GetByEmail(ctx, "BOB@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := store.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})

	t.Run("duplicate email", func(t *testing.T) {
		dup, err := user.New("bob@example.com", "other")
		require.NoError(t, err)
		assert.ErrorIs(t, store.Create(ctx, dup), user.ErrEmailTaken)
	})
}
