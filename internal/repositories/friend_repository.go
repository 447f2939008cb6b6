package repositories

import (
	"context"

	"github.com/gamenight/backend/internal/models"
)

// FriendDirectory is the keyed store of friends that sessions and invitations
// reference by id.
type FriendDirectory interface {
	Get(ctx context.Context, id int) (models.Friend, error)
	List(ctx context.Context) ([]models.Friend, error)
	Search(ctx context.Context, query string) ([]models.Friend, error)
	Add(ctx context.Context, friend models.Friend) (models.Friend, error)
	Update(ctx context.Context, friend models.Friend) (models.Friend, error)
	Delete(ctx context.Context, id int) error
}
