package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserIDContext(t *testing.T) {
	t.Run("set and get user id", func(t *testing.T) {
		ctx := SetUserID(context.Background(), "user_123")

		id, err := UserIDFrom(ctx)
		require.NoError(t, err)
		assert.Equal(t, UserID("user_123"), id)
		assert.Equal(t, "user_123", id.String())
		assert.True(t, HasUserID(ctx))
		assert.Equal(t, UserID("user_123"), MustUserID(ctx))
	})

	t.Run("empty context has no user", func(t *testing.T) {
		ctx := context.Background()

		_, err := UserIDFrom(ctx)
		assert.ErrorIs(t, err, ErrUserIDNotFound)
		assert.False(t, HasUserID(ctx))
		assert.Panics(t, func() { MustUserID(ctx) })
	})

	t.Run("an empty user id is treated as absent", func(t *testing.T) {
		ctx := SetUserID(context.Background(), "")
		assert.False(t, HasUserID(ctx))
	})

	t.Run("a plain string under another key is ignored", func(t *testing.T) {
		type otherKey int
		ctx := context.WithValue(context.Background(), otherKey(userIDKey), "user_123")
		assert.False(t, HasUserID(ctx))
	})

	t.Run("requests do not share users", func(t *testing.T) {
		base := context.Background()
		first := SetUserID(base, "alice")
		second := SetUserID(base, "bob")

		assert.Equal(t, UserID("alice"), MustUserID(first))
		assert.Equal(t, UserID("bob"), MustUserID(second))
		assert.False(t, HasUserID(base))
	})
}

func TestSetAndGetClaims(t *testing.T) {
	t.Run("set and get claims successfully", func(t *testing.T) {
		expectedClaims := map[string]any{"sub": "user123", "email": "user@example.com"}
		ctx := SetClaims(context.Background(), expectedClaims)

		claims, err := GetClaims[map[string]any](ctx)
		assert.NoError(t, err)
		assert.Equal(t, expectedClaims, claims)
		assert.True(t, HasClaims(ctx))
	})

	t.Run("get claims with wrong type returns error", func(t *testing.T) {
		ctx := SetClaims(context.Background(), map[string]any{"sub": "user123"})

		_, err := GetClaims[string](ctx)
		assert.ErrorIs(t, err, ErrClaimsNotFound)
	})

	t.Run("get claims from empty context returns error", func(t *testing.T) {
		_, err := GetClaims[map[string]any](context.Background())
		assert.ErrorIs(t, err, ErrClaimsNotFound)
		assert.False(t, HasClaims(context.Background()))
	})
}
