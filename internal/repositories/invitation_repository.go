package repositories

import (
	"context"

	"github.com/gamenight/backend/internal/models"
)

// InvitationRepository owns FriendInvitation records and their expiry.
type InvitationRepository interface {
	GetAll(ctx context.Context) ([]models.FriendInvitation, error)
	GetByID(ctx context.Context, id int) (models.FriendInvitation, error)
	GetBySession(ctx context.Context, sessionID int) ([]models.FriendInvitation, error)
	GetByInvitedFriend(ctx context.Context, friendID int) ([]models.FriendInvitation, error)
	GetByInviter(ctx context.Context, inviterID int) ([]models.FriendInvitation, error)
	GetPending(ctx context.Context, friendID int) ([]models.FriendInvitation, error)
	Create(ctx context.Context, invitation models.FriendInvitation) (models.FriendInvitation, error)
	Update(ctx context.Context, invitation models.FriendInvitation) (models.FriendInvitation, error)
	Respond(ctx context.Context, id int, status models.InvitationStatus) (models.FriendInvitation, error)
	Cancel(ctx context.Context, id int) (models.FriendInvitation, error)
	Delete(ctx context.Context, id int) error
	SweepExpired(ctx context.Context) (int, error)
	HasPending(ctx context.Context, sessionID, friendID int) (bool, error)
}
