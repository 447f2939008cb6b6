package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gamenight/backend/internal/logging"
	"github.com/gamenight/backend/internal/models"
	"github.com/gamenight/backend/internal/repositories"
)

// Archiver receives sessions that have ended so their state can be persisted.
type Archiver interface {
	Enqueue(ctx context.Context, sessionID int) error
}

// Stores groups the repositories the coordinator operates on.
type Stores struct {
	Friends      repositories.FriendDirectory
	Sessions     repositories.SessionRepository
	Participants repositories.ParticipationRepository
	Invitations  repositories.InvitationRepository
}

// Coordinator enforces the rules spanning sessions, participations and
// invitations. Each check-then-act sequence runs under a single mutex so two
// concurrent requests cannot both pass a uniqueness check.
type Coordinator struct {
	mu           sync.Mutex
	friends      repositories.FriendDirectory
	sessions     repositories.SessionRepository
	participants repositories.ParticipationRepository
	invitations  repositories.InvitationRepository
	archiver     Archiver
	now          func() time.Time
}

// NewCoordinator constructs a coordinator. archiver may be nil.
func NewCoordinator(stores Stores, archiver Archiver) *Coordinator {
	return &Coordinator{
		friends:      stores.Friends,
		sessions:     stores.Sessions,
		participants: stores.Participants,
		invitations:  stores.Invitations,
		archiver:     archiver,
		now:          time.Now,
	}
}

// CreateSessionInput describes a new session.
type CreateSessionInput struct {
	Name             string
	CreatorID        int
	InitialFriendIDs []int
}

// SessionDetails is a session together with its participation records.
type SessionDetails struct {
	Session      models.GameSession
	Participants []models.SessionFriend
}

// Participant is a participation record joined with the friend it refers to.
type Participant struct {
	Friend   models.Friend
	Status   models.ParticipantStatus
	JoinedAt time.Time
	IsActive bool
}

// CreateSession creates an active session with the creator as its first primary
// participant. Initial friend ids that are invalid, unknown or listed twice are
// skipped.
// The steps are not transactional: a failure after the session is stored leaves
// it with the participants added so far.
func (c *Coordinator) CreateSession(ctx context.Context, in CreateSessionInput) (SessionDetails, error) {
	ctx, span := logging.StartSpan(ctx, "sessions.CreateSession")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.friends.Get(ctx, in.CreatorID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return SessionDetails{}, ErrCreatorNotFound
		}
		return SessionDetails{}, fmt.Errorf("lookup creator: %w", err)
	}

	session, err := c.sessions.Create(ctx, models.GameSession{Name: in.Name, CreatorID: in.CreatorID})
	if err != nil {
		return SessionDetails{}, fmt.Errorf("create session: %w", err)
	}

	details := SessionDetails{Session: session}
	joined := make(map[int]struct{}, len(in.InitialFriendIDs)+1)

	add := func(friendID int) error {
		p, err := c.participants.Add(ctx, models.SessionFriend{
			SessionID: session.ID,
			FriendID:  friendID,
			Status:    models.ParticipantPrimary,
		})
		if err != nil {
			return fmt.Errorf("add participant %d: %w", friendID, err)
		}
		joined[friendID] = struct{}{}
		details.Participants = append(details.Participants, p)
		return nil
	}

	if err := add(in.CreatorID); err != nil {
		return details, err
	}

	logger := logging.FromContext(ctx)
	for _, friendID := range in.InitialFriendIDs {
		if _, ok := joined[friendID]; ok {
			continue
		}
		if friendID <= 0 {
			logger.Debug("skipping invalid initial friend id", slog.Int("friendId", friendID))
			continue
		}
		if _, err := c.friends.Get(ctx, friendID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				logger.Debug("skipping unknown initial friend", slog.Int("friendId", friendID))
				continue
			}
			return details, fmt.Errorf("lookup friend %d: %w", friendID, err)
		}
		if err := add(friendID); err != nil {
			return details, err
		}
	}

	logger.Info("session created",
		slog.Int("sessionId", session.ID),
		slog.Int("creatorId", session.CreatorID),
		slog.Int("participants", len(details.Participants)),
	)
	return details, nil
}

// GetSession returns a session by id.
func (c *Coordinator) GetSession(ctx context.Context, id int) (models.GameSession, error) {
	session, err := c.sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.GameSession{}, ErrSessionNotFound
		}
		return models.GameSession{}, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// EndSession ends an active session and cancels the invitations still pending
// for it. The session is handed to the archiver, when one is configured, after
// the coordinator lock is released.
func (c *Coordinator) EndSession(ctx context.Context, id int) (models.GameSession, error) {
	ctx, span := logging.StartSpan(ctx, "sessions.EndSession")
	defer span.End()

	session, cancelled, err := c.endSession(ctx, id)
	if err != nil {
		return session, err
	}

	logger := logging.FromContext(ctx)
	if c.archiver != nil {
		if err := c.archiver.Enqueue(ctx, id); err != nil {
			logger.Error("schedule session archive", slog.Int("sessionId", id), slog.Any("error", err))
		}
	}

	logger.Info("session ended", slog.Int("sessionId", id), slog.Int("cancelledInvitations", cancelled))
	return session, nil
}

func (c *Coordinator) endSession(ctx context.Context, id int) (models.GameSession, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, err := c.sessions.End(ctx, id)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return models.GameSession{}, 0, ErrSessionNotFound
	case errors.Is(err, repositories.ErrInvalidTransition):
		return models.GameSession{}, 0, ErrSessionAlreadyEnded
	case err != nil:
		return models.GameSession{}, 0, fmt.Errorf("end session: %w", err)
	}

	cancelled, err := c.cancelPendingLocked(ctx, id)
	if err != nil {
		return session, cancelled, err
	}
	return session, cancelled, nil
}

// DeleteSession removes a session. Participation and invitation records that
// reference it are kept.
func (c *Coordinator) DeleteSession(ctx context.Context, id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.sessions.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// AddFriendInput describes a friend joining a session directly.
type AddFriendInput struct {
	FriendID int
	Status   models.ParticipantStatus
	Message  string
}

// AddFriend adds a friend to an active session. A friend added as secondary
// also gets an accepted invitation from the creator recording the message.
func (c *Coordinator) AddFriend(ctx context.Context, sessionID int, in AddFriendInput) (Participant, error) {
	ctx, span := logging.StartSpan(ctx, "sessions.AddFriend")
	defer span.End()

	status := in.Status
	if status == "" {
		status = models.ParticipantSecondary
	}
	if !status.Valid() {
		return Participant{}, ErrInvalidStatus
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	session, err := c.activeSessionLocked(ctx, sessionID)
	if err != nil {
		return Participant{}, err
	}

	friend, err := c.friendLocked(ctx, in.FriendID)
	if err != nil {
		return Participant{}, err
	}

	if err := c.ensureJoinableLocked(ctx, sessionID, in.FriendID); err != nil {
		return Participant{}, err
	}

	p, err := c.participants.Add(ctx, models.SessionFriend{
		SessionID: sessionID,
		FriendID:  in.FriendID,
		Status:    status,
	})
	if err != nil {
		return Participant{}, fmt.Errorf("add participant: %w", err)
	}

	if status == models.ParticipantSecondary {
		if _, err := c.invitations.Create(ctx, models.FriendInvitation{
			SessionID:   sessionID,
			FriendID:    in.FriendID,
			InvitedByID: session.CreatorID,
			Status:      models.InvitationAccepted,
			Message:     in.Message,
		}); err != nil {
			return Participant{}, fmt.Errorf("record invitation: %w", err)
		}
	}

	logging.FromContext(ctx).Info("friend joined session",
		slog.Int("sessionId", sessionID),
		slog.Int("friendId", in.FriendID),
		slog.String("status", string(status)),
	)
	return participantView(friend, p), nil
}

// UpdateFriendStatus changes the status of a participant.
func (c *Coordinator) UpdateFriendStatus(ctx context.Context, sessionID, friendID int, status models.ParticipantStatus) (models.SessionFriend, error) {
	if !status.Valid() {
		return models.SessionFriend{}, ErrInvalidStatus
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	session, err := c.sessionLocked(ctx, sessionID)
	if err != nil {
		return models.SessionFriend{}, err
	}
	if friendID == session.CreatorID && status != models.ParticipantPrimary {
		return models.SessionFriend{}, ErrCreatorDemotion
	}

	p, err := c.participants.UpdateStatus(ctx, sessionID, friendID, status)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionFriend{}, ErrParticipantNotFound
		}
		return models.SessionFriend{}, fmt.Errorf("update participant status: %w", err)
	}
	return p, nil
}

// RemoveFriend marks a participant as having left the session. The creator
// cannot be removed.
func (c *Coordinator) RemoveFriend(ctx context.Context, sessionID, friendID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, err := c.sessionLocked(ctx, sessionID)
	if err != nil {
		return err
	}
	if friendID == session.CreatorID {
		return ErrCreatorRemoval
	}

	if err := c.participants.Remove(ctx, sessionID, friendID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrParticipantNotFound
		}
		return fmt.Errorf("remove participant: %w", err)
	}

	logging.FromContext(ctx).Info("friend left session", slog.Int("sessionId", sessionID), slog.Int("friendId", friendID))
	return nil
}

// CountActive returns the number of active participants of a session.
func (c *Coordinator) CountActive(ctx context.Context, sessionID int) (int, error) {
	if _, err := c.GetSession(ctx, sessionID); err != nil {
		return 0, err
	}
	count, err := c.participants.CountActive(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return count, nil
}

// ListParticipants returns the participation history of a session joined with
// friend records. Records whose friend no longer exists are omitted.
func (c *Coordinator) ListParticipants(ctx context.Context, sessionID int) ([]Participant, error) {
	if _, err := c.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	records, err := c.participants.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	out := make([]Participant, 0, len(records))
	for _, p := range records {
		friend, err := c.friends.Get(ctx, p.FriendID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("lookup friend %d: %w", p.FriendID, err)
		}
		out = append(out, participantView(friend, p))
	}
	return out, nil
}

// Snapshot collects the full state of a session.
func (c *Coordinator) Snapshot(ctx context.Context, sessionID int) (models.SessionSnapshot, error) {
	session, err := c.GetSession(ctx, sessionID)
	if err != nil {
		return models.SessionSnapshot{}, err
	}
	participants, err := c.participants.GetBySession(ctx, sessionID)
	if err != nil {
		return models.SessionSnapshot{}, fmt.Errorf("list participants: %w", err)
	}
	invitations, err := c.invitations.GetBySession(ctx, sessionID)
	if err != nil {
		return models.SessionSnapshot{}, fmt.Errorf("list invitations: %w", err)
	}
	return models.SessionSnapshot{
		Session:      session,
		Participants: participants,
		Invitations:  invitations,
		ArchivedAt:   c.now(),
	}, nil
}

func (c *Coordinator) sessionLocked(ctx context.Context, sessionID int) (models.GameSession, error) {
	session, err := c.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.GameSession{}, ErrSessionNotFound
		}
		return models.GameSession{}, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

func (c *Coordinator) activeSessionLocked(ctx context.Context, sessionID int) (models.GameSession, error) {
	session, err := c.sessionLocked(ctx, sessionID)
	if err != nil {
		return models.GameSession{}, err
	}
	if !session.IsActive {
		return models.GameSession{}, ErrSessionEnded
	}
	return session, nil
}

func (c *Coordinator) friendLocked(ctx context.Context, friendID int) (models.Friend, error) {
	friend, err := c.friends.Get(ctx, friendID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Friend{}, ErrFriendNotFound
		}
		return models.Friend{}, fmt.Errorf("lookup friend: %w", err)
	}
	return friend, nil
}

// ensureJoinableLocked rejects friends already in the session or holding a
// pending invitation to it. Expired invitations are swept first.
func (c *Coordinator) ensureJoinableLocked(ctx context.Context, sessionID, friendID int) error {
	participating, err := c.participants.IsParticipating(ctx, sessionID, friendID)
	if err != nil {
		return fmt.Errorf("check participation: %w", err)
	}
	if participating {
		return ErrAlreadyParticipating
	}

	if _, err := c.invitations.SweepExpired(ctx); err != nil {
		return fmt.Errorf("sweep invitations: %w", err)
	}
	pending, err := c.invitations.HasPending(ctx, sessionID, friendID)
	if err != nil {
		return fmt.Errorf("check pending invitations: %w", err)
	}
	if pending {
		return ErrPendingInvitation
	}
	return nil
}

func (c *Coordinator) cancelPendingLocked(ctx context.Context, sessionID int) (int, error) {
	if _, err := c.invitations.SweepExpired(ctx); err != nil {
		return 0, fmt.Errorf("sweep invitations: %w", err)
	}

	invitations, err := c.invitations.GetBySession(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("list invitations: %w", err)
	}

	cancelled := 0
	for _, inv := range invitations {
		if inv.Status != models.InvitationPending {
			continue
		}
		if _, err := c.invitations.Cancel(ctx, inv.ID); err != nil {
			if errors.Is(err, repositories.ErrInvalidTransition) || errors.Is(err, repositories.ErrNotFound) {
				continue
			}
			return cancelled, fmt.Errorf("cancel invitation %d: %w", inv.ID, err)
		}
		cancelled++
	}
	return cancelled, nil
}

func participantView(friend models.Friend, p models.SessionFriend) Participant {
	return Participant{
		Friend:   friend,
		Status:   p.Status,
		JoinedAt: p.JoinedAt,
		IsActive: p.IsActive,
	}
}
