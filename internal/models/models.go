package models

import (
	"fmt"
	"strings"
	"time"
)

// DefaultInvitationTTL is how long a pending invitation stays valid when no
// explicit expiry is supplied.
const DefaultInvitationTTL = 24 * time.Hour

// Friend is an entry of the friend directory.
type Friend struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// GameSession is a gathering of friends created by one of them.
type GameSession struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	CreatorID int        `json:"creatorId"`
	CreatedAt time.Time  `json:"createdAt"`
	IsActive  bool       `json:"isActive"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
}

// ParticipantStatus is the role a friend holds within a session.
type ParticipantStatus string

const (
	ParticipantPrimary   ParticipantStatus = "primary"
	ParticipantSecondary ParticipantStatus = "secondary"
	ParticipantObserver  ParticipantStatus = "observer"
	ParticipantPending   ParticipantStatus = "pending"
)

// Valid reports whether s is one of the known participant statuses.
func (s ParticipantStatus) Valid() bool {
	switch s {
	case ParticipantPrimary, ParticipantSecondary, ParticipantObserver, ParticipantPending:
		return true
	}
	return false
}

// ParseParticipantStatus converts a case-insensitive name into a ParticipantStatus.
func ParseParticipantStatus(raw string) (ParticipantStatus, error) {
	status := ParticipantStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown participant status %q", raw)
	}
	return status, nil
}

// SessionFriend records a friend's participation in a session. Removal is soft:
// the record stays with IsActive false.
type SessionFriend struct {
	ID        int               `json:"id"`
	SessionID int               `json:"sessionId"`
	FriendID  int               `json:"friendId"`
	Status    ParticipantStatus `json:"status"`
	JoinedAt  time.Time         `json:"joinedAt"`
	IsActive  bool              `json:"isActive"`
}

// InvitationStatus tracks the lifecycle of a FriendInvitation.
type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationAccepted  InvitationStatus = "accepted"
	InvitationDeclined  InvitationStatus = "declined"
	InvitationExpired   InvitationStatus = "expired"
	InvitationCancelled InvitationStatus = "cancelled"
)

// Valid reports whether s is one of the known invitation statuses.
func (s InvitationStatus) Valid() bool {
	switch s {
	case InvitationPending, InvitationAccepted, InvitationDeclined, InvitationExpired, InvitationCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s InvitationStatus) Terminal() bool {
	return s != InvitationPending
}

// ParseInvitationStatus converts a case-insensitive name into an InvitationStatus.
func ParseInvitationStatus(raw string) (InvitationStatus, error) {
	status := InvitationStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown invitation status %q", raw)
	}
	return status, nil
}

// FriendInvitation is an offer for a friend to join a session.
type FriendInvitation struct {
	ID          int              `json:"id"`
	SessionID   int              `json:"sessionId"`
	FriendID    int              `json:"friendId"`
	InvitedByID int              `json:"invitedById"`
	CreatedAt   time.Time        `json:"createdAt"`
	ExpiresAt   time.Time        `json:"expiresAt"`
	Status      InvitationStatus `json:"status"`
	RespondedAt *time.Time       `json:"respondedAt,omitempty"`
	Message     string           `json:"message,omitempty"`
}

// PendingAt reports whether the invitation is still pending and unexpired at now.
func (i FriendInvitation) PendingAt(now time.Time) bool {
	return i.Status == InvitationPending && i.ExpiresAt.After(now)
}

// ExpiredAt reports whether a pending invitation has passed its expiry at now.
func (i FriendInvitation) ExpiredAt(now time.Time) bool {
	return i.Status == InvitationPending && !i.ExpiresAt.After(now)
}

// SessionSnapshot is the archived state of a session once it has ended.
type SessionSnapshot struct {
	Session      GameSession        `json:"session"`
	Participants []SessionFriend    `json:"participants"`
	Invitations  []FriendInvitation `json:"invitations"`
	ArchivedAt   time.Time          `json:"archivedAt"`
}
