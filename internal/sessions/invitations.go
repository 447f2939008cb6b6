package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gamenight/backend/internal/logging"
	"github.com/gamenight/backend/internal/models"
	"github.com/gamenight/backend/internal/repositories"
)

// InviteInput describes an invitation sent by a participant.
type InviteInput struct {
	FriendID    int
	InvitedByID int
	Message     string
	ExpiresAt   time.Time
}

// InviteFriend creates a pending invitation for a friend to join an active
// session. The inviter must currently participate in the session and an
// explicit expiry must lie in the future.
func (c *Coordinator) InviteFriend(ctx context.Context, sessionID int, in InviteInput) (models.FriendInvitation, error) {
	ctx, span := logging.StartSpan(ctx, "sessions.InviteFriend")
	defer span.End()

	if in.FriendID == in.InvitedByID {
		return models.FriendInvitation{}, ErrSelfInvitation
	}
	if !in.ExpiresAt.IsZero() && !in.ExpiresAt.After(c.now()) {
		return models.FriendInvitation{}, ErrExpiryInPast
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.activeSessionLocked(ctx, sessionID); err != nil {
		return models.FriendInvitation{}, err
	}
	if _, err := c.friendLocked(ctx, in.FriendID); err != nil {
		return models.FriendInvitation{}, err
	}
	if _, err := c.friendLocked(ctx, in.InvitedByID); err != nil {
		return models.FriendInvitation{}, err
	}

	inviterJoined, err := c.participants.IsParticipating(ctx, sessionID, in.InvitedByID)
	if err != nil {
		return models.FriendInvitation{}, fmt.Errorf("check inviter participation: %w", err)
	}
	if !inviterJoined {
		return models.FriendInvitation{}, ErrInviterNotParticipant
	}

	if err := c.ensureJoinableLocked(ctx, sessionID, in.FriendID); err != nil {
		return models.FriendInvitation{}, err
	}

	inv, err := c.invitations.Create(ctx, models.FriendInvitation{
		SessionID:   sessionID,
		FriendID:    in.FriendID,
		InvitedByID: in.InvitedByID,
		ExpiresAt:   in.ExpiresAt,
		Status:      models.InvitationPending,
		Message:     in.Message,
	})
	if err != nil {
		return models.FriendInvitation{}, fmt.Errorf("create invitation: %w", err)
	}

	logging.FromContext(ctx).Info("invitation created",
		slog.Int("invitationId", inv.ID),
		slog.Int("sessionId", sessionID),
		slog.Int("friendId", in.FriendID),
		slog.Time("expiresAt", inv.ExpiresAt),
	)
	return inv, nil
}

// RespondToInvitation records the invitee's answer. Accepting joins the invitee
// as a secondary participant while the session is still active.
func (c *Coordinator) RespondToInvitation(ctx context.Context, id int, status models.InvitationStatus) (models.FriendInvitation, error) {
	ctx, span := logging.StartSpan(ctx, "sessions.RespondToInvitation")
	defer span.End()

	if status != models.InvitationAccepted && status != models.InvitationDeclined {
		return models.FriendInvitation{}, ErrInvalidResponse
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.invitations.SweepExpired(ctx); err != nil {
		return models.FriendInvitation{}, fmt.Errorf("sweep invitations: %w", err)
	}

	inv, err := c.invitations.Respond(ctx, id, status)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return models.FriendInvitation{}, ErrInvitationNotFound
	case errors.Is(err, repositories.ErrInvalidTransition):
		return models.FriendInvitation{}, ErrInvitationClosed
	case err != nil:
		return models.FriendInvitation{}, fmt.Errorf("respond to invitation: %w", err)
	}

	logger := logging.FromContext(ctx)
	logger.Info("invitation answered", slog.Int("invitationId", id), slog.String("status", string(status)))

	if status != models.InvitationAccepted {
		return inv, nil
	}

	session, err := c.sessionLocked(ctx, inv.SessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			logger.Warn("accepted invitation for missing session", slog.Int("sessionId", inv.SessionID))
			return inv, nil
		}
		return inv, err
	}
	if !session.IsActive {
		return inv, nil
	}

	participating, err := c.participants.IsParticipating(ctx, inv.SessionID, inv.FriendID)
	if err != nil {
		return inv, fmt.Errorf("check participation: %w", err)
	}
	if participating {
		return inv, nil
	}

	if _, err := c.participants.Add(ctx, models.SessionFriend{
		SessionID: inv.SessionID,
		FriendID:  inv.FriendID,
		Status:    models.ParticipantSecondary,
	}); err != nil {
		return inv, fmt.Errorf("add participant: %w", err)
	}
	return inv, nil
}

// CancelInvitation withdraws a pending invitation.
func (c *Coordinator) CancelInvitation(ctx context.Context, id int) (models.FriendInvitation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	inv, err := c.invitations.Cancel(ctx, id)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return models.FriendInvitation{}, ErrInvitationNotFound
	case errors.Is(err, repositories.ErrInvalidTransition):
		return models.FriendInvitation{}, ErrInvitationClosed
	case err != nil:
		return models.FriendInvitation{}, fmt.Errorf("cancel invitation: %w", err)
	}
	return inv, nil
}

// SweepExpired expires every pending invitation past its expiry.
func (c *Coordinator) SweepExpired(ctx context.Context) (int, error) {
	swept, err := c.invitations.SweepExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("sweep invitations: %w", err)
	}
	if swept > 0 {
		logging.FromContext(ctx).Info("expired invitations", slog.Int("count", swept))
	}
	return swept, nil
}
