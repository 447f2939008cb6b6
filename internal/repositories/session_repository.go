package repositories

import (
	"context"

	"github.com/gamenight/backend/internal/models"
)

// SessionRepository owns GameSession records.
type SessionRepository interface {
	GetAll(ctx context.Context) ([]models.GameSession, error)
	GetByID(ctx context.Context, id int) (models.GameSession, error)
	GetActive(ctx context.Context) ([]models.GameSession, error)
	GetByCreator(ctx context.Context, creatorID int) ([]models.GameSession, error)
	GetByParticipant(ctx context.Context, friendID int) ([]models.GameSession, error)
	Create(ctx context.Context, session models.GameSession) (models.GameSession, error)
	End(ctx context.Context, id int) (models.GameSession, error)
	Delete(ctx context.Context, id int) error
}

// ParticipantLookup resolves the participation records of a friend.
type ParticipantLookup interface {
	GetByFriend(ctx context.Context, friendID int) ([]models.SessionFriend, error)
}
