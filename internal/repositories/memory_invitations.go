package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/gamenight/backend/internal/models"
)

// MemoryInvitationStore implements InvitationRepository. Every transition is
// checked against the current status while holding the store lock, so a sweep
// racing a response or cancellation resolves to exactly one terminal state.
type MemoryInvitationStore struct {
	mu          sync.RWMutex
	invitations []models.FriendInvitation
	nextID      int
	ttl         time.Duration
	now         func() time.Time
}

var _ InvitationRepository = (*MemoryInvitationStore)(nil)

// NewMemoryInvitationStore returns an empty store whose invitations expire ttl
// after creation unless an explicit expiry is supplied.
func NewMemoryInvitationStore(ttl time.Duration) *MemoryInvitationStore {
	if ttl <= 0 {
		ttl = models.DefaultInvitationTTL
	}
	return &MemoryInvitationStore{nextID: 1, ttl: ttl, now: time.Now}
}

// WithNowFunc allows tests to override the time source.
func (s *MemoryInvitationStore) WithNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// GetAll returns every invitation in creation order.
func (s *MemoryInvitationStore) GetAll(_ context.Context) ([]models.FriendInvitation, error) {
	return s.filter(func(models.FriendInvitation) bool { return true }), nil
}

// GetByID returns the invitation with the given id.
func (s *MemoryInvitationStore) GetByID(_ context.Context, id int) (models.FriendInvitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexLocked(id); idx >= 0 {
		return s.invitations[idx], nil
	}
	return models.FriendInvitation{}, ErrNotFound
}

// GetBySession returns every invitation to the session, whatever its status.
func (s *MemoryInvitationStore) GetBySession(_ context.Context, sessionID int) ([]models.FriendInvitation, error) {
	return s.filter(func(inv models.FriendInvitation) bool { return inv.SessionID == sessionID }), nil
}

// GetByInvitedFriend returns the invitations received by the friend.
func (s *MemoryInvitationStore) GetByInvitedFriend(_ context.Context, friendID int) ([]models.FriendInvitation, error) {
	return s.filter(func(inv models.FriendInvitation) bool { return inv.FriendID == friendID }), nil
}

// GetByInviter returns the invitations sent by the friend.
func (s *MemoryInvitationStore) GetByInviter(_ context.Context, inviterID int) ([]models.FriendInvitation, error) {
	return s.filter(func(inv models.FriendInvitation) bool { return inv.InvitedByID == inviterID }), nil
}

// GetPending returns the friend's pending invitations that have not expired yet.
func (s *MemoryInvitationStore) GetPending(_ context.Context, friendID int) ([]models.FriendInvitation, error) {
	now := s.clock()
	return s.filter(func(inv models.FriendInvitation) bool {
		return inv.FriendID == friendID && inv.PendingAt(now)
	}), nil
}

// Create stores a new invitation. CreatedAt is always the current time and
// ExpiresAt defaults to CreatedAt plus the store TTL. An invitation recorded
// directly in a terminal status is stamped as responded at creation.
func (s *MemoryInvitationStore) Create(_ context.Context, invitation models.FriendInvitation) (models.FriendInvitation, error) {
	if invitation.SessionID <= 0 || invitation.FriendID <= 0 {
		return models.FriendInvitation{}, ErrInvalidArgument
	}
	if invitation.Status == "" {
		invitation.Status = models.InvitationPending
	}
	if !invitation.Status.Valid() {
		return models.FriendInvitation{}, ErrInvalidArgument
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	invitation.ID = s.nextID
	s.nextID++
	invitation.CreatedAt = s.now()
	if invitation.ExpiresAt.IsZero() {
		invitation.ExpiresAt = invitation.CreatedAt.Add(s.ttl)
	}
	invitation.RespondedAt = nil
	if invitation.Status.Terminal() {
		respondedAt := invitation.CreatedAt
		invitation.RespondedAt = &respondedAt
	}

	s.invitations = append(s.invitations, invitation)
	return invitation, nil
}

// Update replaces the stored invitation with the same id. Terminal invitations
// are frozen. CreatedAt and RespondedAt are owned by the store: the stored
// values are kept and RespondedAt is stamped when the update closes the
// invitation. A pending invitation cannot be moved onto a pair that already
// has another pending invitation.
func (s *MemoryInvitationStore) Update(_ context.Context, invitation models.FriendInvitation) (models.FriendInvitation, error) {
	if !invitation.Status.Valid() || invitation.SessionID <= 0 || invitation.FriendID <= 0 {
		return models.FriendInvitation{}, ErrInvalidArgument
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(invitation.ID)
	if idx < 0 {
		return models.FriendInvitation{}, ErrNotFound
	}

	current := s.invitations[idx]
	if current.Status.Terminal() {
		return current, ErrInvalidTransition
	}

	now := s.now()
	if invitation.Status == models.InvitationPending {
		for _, other := range s.invitations {
			if other.ID != invitation.ID && other.SessionID == invitation.SessionID &&
				other.FriendID == invitation.FriendID && other.PendingAt(now) {
				return current, ErrConflict
			}
		}
	}

	invitation.CreatedAt = current.CreatedAt
	invitation.RespondedAt = nil
	if invitation.Status.Terminal() {
		respondedAt := now
		invitation.RespondedAt = &respondedAt
	}

	s.invitations[idx] = invitation
	return invitation, nil
}

// Respond records the invitee's answer. Only pending invitations accept an
// answer and only accepted or declined are valid answers.
func (s *MemoryInvitationStore) Respond(_ context.Context, id int, status models.InvitationStatus) (models.FriendInvitation, error) {
	if status != models.InvitationAccepted && status != models.InvitationDeclined {
		return models.FriendInvitation{}, ErrInvalidTransition
	}
	return s.transition(id, status)
}

// Cancel withdraws a pending invitation.
func (s *MemoryInvitationStore) Cancel(_ context.Context, id int) (models.FriendInvitation, error) {
	return s.transition(id, models.InvitationCancelled)
}

// Delete removes the invitation record.
func (s *MemoryInvitationStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return ErrNotFound
	}
	s.invitations = append(s.invitations[:idx], s.invitations[idx+1:]...)
	return nil
}

// SweepExpired moves every pending invitation past its expiry to expired and
// returns how many were changed.
func (s *MemoryInvitationStore) SweepExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	swept := 0
	for i := range s.invitations {
		if !s.invitations[i].ExpiredAt(now) {
			continue
		}
		respondedAt := now
		s.invitations[i].Status = models.InvitationExpired
		s.invitations[i].RespondedAt = &respondedAt
		swept++
	}
	return swept, nil
}

// HasPending reports whether the pair has a pending invitation that has not expired.
func (s *MemoryInvitationStore) HasPending(_ context.Context, sessionID, friendID int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	for _, inv := range s.invitations {
		if inv.SessionID == sessionID && inv.FriendID == friendID && inv.PendingAt(now) {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryInvitationStore) transition(id int, status models.InvitationStatus) (models.FriendInvitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return models.FriendInvitation{}, ErrNotFound
	}

	inv := s.invitations[idx]
	if inv.Status != models.InvitationPending {
		return inv, ErrInvalidTransition
	}

	respondedAt := s.now()
	inv.Status = status
	inv.RespondedAt = &respondedAt
	s.invitations[idx] = inv
	return inv, nil
}

func (s *MemoryInvitationStore) clock() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now()
}

func (s *MemoryInvitationStore) filter(keep func(models.FriendInvitation) bool) []models.FriendInvitation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.FriendInvitation, 0)
	for _, inv := range s.invitations {
		if keep(inv) {
			out = append(out, inv)
		}
	}
	return out
}

func (s *MemoryInvitationStore) indexLocked(id int) int {
	for i, inv := range s.invitations {
		if inv.ID == id {
			return i
		}
	}
	return -1
}
