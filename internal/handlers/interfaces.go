package handlers

import (
	"context"

	"github.com/gamenight/backend/internal/models"
	"github.com/gamenight/backend/internal/sessions"
)

// SessionCoordinator applies the session, participation and invitation rules.
type SessionCoordinator interface {
	CreateSession(ctx context.Context, in sessions.CreateSessionInput) (sessions.SessionDetails, error)
	GetSession(ctx context.Context, id int) (models.GameSession, error)
	EndSession(ctx context.Context, id int) (models.GameSession, error)
	DeleteSession(ctx context.Context, id int) error

	AddFriend(ctx context.Context, sessionID int, in sessions.AddFriendInput) (sessions.Participant, error)
	UpdateFriendStatus(ctx context.Context, sessionID, friendID int, status models.ParticipantStatus) (models.SessionFriend, error)
	RemoveFriend(ctx context.Context, sessionID, friendID int) error
	CountActive(ctx context.Context, sessionID int) (int, error)
	ListParticipants(ctx context.Context, sessionID int) ([]sessions.Participant, error)

	InviteFriend(ctx context.Context, sessionID int, in sessions.InviteInput) (models.FriendInvitation, error)
	RespondToInvitation(ctx context.Context, id int, status models.InvitationStatus) (models.FriendInvitation, error)
	CancelInvitation(ctx context.Context, id int) (models.FriendInvitation, error)
	SweepExpired(ctx context.Context) (int, error)
}

// SessionQueries lists sessions without applying coordinator rules.
type SessionQueries interface {
	GetAll(ctx context.Context) ([]models.GameSession, error)
	GetActive(ctx context.Context) ([]models.GameSession, error)
	GetByCreator(ctx context.Context, creatorID int) ([]models.GameSession, error)
	GetByParticipant(ctx context.Context, friendID int) ([]models.GameSession, error)
}

// InvitationQueries reads and deletes invitation records.
type InvitationQueries interface {
	GetAll(ctx context.Context) ([]models.FriendInvitation, error)
	GetByID(ctx context.Context, id int) (models.FriendInvitation, error)
	GetBySession(ctx context.Context, sessionID int) ([]models.FriendInvitation, error)
	GetByInvitedFriend(ctx context.Context, friendID int) ([]models.FriendInvitation, error)
	GetByInviter(ctx context.Context, inviterID int) ([]models.FriendInvitation, error)
	GetPending(ctx context.Context, friendID int) ([]models.FriendInvitation, error)
	Delete(ctx context.Context, id int) error
}

// FriendDirectory is the friend store exposed over HTTP.
type FriendDirectory interface {
	Get(ctx context.Context, id int) (models.Friend, error)
	List(ctx context.Context) ([]models.Friend, error)
	Search(ctx context.Context, query string) ([]models.Friend, error)
	Add(ctx context.Context, friend models.Friend) (models.Friend, error)
	Update(ctx context.Context, friend models.Friend) (models.Friend, error)
	Delete(ctx context.Context, id int) error
}
