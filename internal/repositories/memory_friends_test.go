package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamenight/backend/internal/models"
)

func TestMemoryFriendDirectory(t *testing.T) {
	ctx := context.Background()
	dir := NewMemoryFriendDirectory(DemoFriends...)

	alice, err := dir.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Alice", alice.Name)

	_, err = dir.Get(ctx, 42)
	require.ErrorIs(t, err, ErrNotFound)

	dave, err := dir.Add(ctx, models.Friend{Name: "Dave"})
	require.NoError(t, err)
	assert.Equal(t, 4, dave.ID)

	_, err = dir.Add(ctx, models.Friend{ID: 1, Name: "Duplicate"})
	require.ErrorIs(t, err, ErrConflict)
	_, err = dir.Add(ctx, models.Friend{Name: "  "})
	require.ErrorIs(t, err, ErrInvalidArgument)

	matches, err := dir.Search(ctx, "EXAMPLE.com")
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	dave.Email = "dave@example.com"
	_, err = dir.Update(ctx, dave)
	require.NoError(t, err)
	matches, err = dir.Search(ctx, "example")
	require.NoError(t, err)
	assert.Len(t, matches, 3)

	_, err = dir.Update(ctx, models.Friend{ID: 99, Name: "Ghost"})
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, dir.Delete(ctx, 2))
	require.ErrorIs(t, dir.Delete(ctx, 2), ErrNotFound)

	all, err := dir.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
