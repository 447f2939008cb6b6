package sessions

import "github.com/gamenight/backend/internal/repositories"

// Error is a coordinator failure carrying a client-facing message. Kind is one
// of the repositories sentinels and classifies the failure.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	ErrSessionNotFound     = newError(repositories.ErrNotFound, "session not found")
	ErrFriendNotFound      = newError(repositories.ErrNotFound, "friend not found")
	ErrParticipantNotFound = newError(repositories.ErrNotFound, "friend does not participate in the session")
	ErrInvitationNotFound  = newError(repositories.ErrNotFound, "invitation not found")

	ErrCreatorNotFound       = newError(repositories.ErrInvalidArgument, "creator not found")
	ErrInvalidStatus         = newError(repositories.ErrInvalidArgument, "unknown participant status")
	ErrCreatorRemoval        = newError(repositories.ErrInvalidArgument, "the session creator cannot be removed from the session")
	ErrCreatorDemotion       = newError(repositories.ErrInvalidArgument, "the session creator must remain a primary participant")
	ErrInviterNotParticipant = newError(repositories.ErrInvalidArgument, "inviter does not participate in the session")
	ErrSelfInvitation        = newError(repositories.ErrInvalidArgument, "a friend cannot invite themselves")
	ErrExpiryInPast          = newError(repositories.ErrInvalidArgument, "invitation expiry must be in the future")

	ErrSessionEnded        = newError(repositories.ErrInvalidTransition, "cannot add friends to an ended session")
	ErrSessionAlreadyEnded = newError(repositories.ErrInvalidTransition, "session already ended")
	ErrInvitationClosed    = newError(repositories.ErrInvalidTransition, "invitation is no longer pending")
	ErrInvalidResponse     = newError(repositories.ErrInvalidTransition, "an invitation can only be accepted or declined")

	ErrAlreadyParticipating = newError(repositories.ErrConflict, "friend already participates in the session")
	ErrPendingInvitation    = newError(repositories.ErrConflict, "friend already has a pending invitation to the session")
)
