package repositories

import (
	"context"

	"github.com/gamenight/backend/internal/models"
)

// ParticipationRepository is the ledger of friends joining and leaving sessions.
type ParticipationRepository interface {
	GetBySession(ctx context.Context, sessionID int) ([]models.SessionFriend, error)
	GetByFriend(ctx context.Context, friendID int) ([]models.SessionFriend, error)
	GetBySessionAndFriend(ctx context.Context, sessionID, friendID int) (models.SessionFriend, error)
	GetBySessionAndStatus(ctx context.Context, sessionID int, status models.ParticipantStatus) ([]models.SessionFriend, error)
	Add(ctx context.Context, participation models.SessionFriend) (models.SessionFriend, error)
	UpdateStatus(ctx context.Context, sessionID, friendID int, status models.ParticipantStatus) (models.SessionFriend, error)
	Remove(ctx context.Context, sessionID, friendID int) error
	IsParticipating(ctx context.Context, sessionID, friendID int) (bool, error)
	CountActive(ctx context.Context, sessionID int) (int, error)
}
