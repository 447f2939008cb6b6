package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/gamenight/backend/internal/models"
)

// MemoryParticipationStore implements ParticipationRepository. It is a ledger:
// records are never hard-deleted and Add performs no duplicate check.
type MemoryParticipationStore struct {
	mu      sync.RWMutex
	records []models.SessionFriend
	nextID  int
	now     func() time.Time
}

var _ ParticipationRepository = (*MemoryParticipationStore)(nil)

// NewMemoryParticipationStore returns an empty ledger.
func NewMemoryParticipationStore() *MemoryParticipationStore {
	return &MemoryParticipationStore{nextID: 1, now: time.Now}
}

// WithNowFunc allows tests to override the time source.
func (s *MemoryParticipationStore) WithNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// GetBySession returns every record of the session, including inactive ones.
func (s *MemoryParticipationStore) GetBySession(_ context.Context, sessionID int) ([]models.SessionFriend, error) {
	return s.filter(func(p models.SessionFriend) bool { return p.SessionID == sessionID }), nil
}

// GetByFriend returns every record of the friend across sessions.
func (s *MemoryParticipationStore) GetByFriend(_ context.Context, friendID int) ([]models.SessionFriend, error) {
	return s.filter(func(p models.SessionFriend) bool { return p.FriendID == friendID }), nil
}

// GetBySessionAndFriend returns the active record for the pair, or the most
// recent one when the friend has left.
func (s *MemoryParticipationStore) GetBySessionAndFriend(_ context.Context, sessionID, friendID int) (models.SessionFriend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.matchLocked(sessionID, friendID)
	if idx < 0 {
		return models.SessionFriend{}, ErrNotFound
	}
	return s.records[idx], nil
}

// GetBySessionAndStatus returns active records of the session holding status.
func (s *MemoryParticipationStore) GetBySessionAndStatus(_ context.Context, sessionID int, status models.ParticipantStatus) ([]models.SessionFriend, error) {
	return s.filter(func(p models.SessionFriend) bool {
		return p.SessionID == sessionID && p.Status == status && p.IsActive
	}), nil
}

// Add appends an active participation record.
func (s *MemoryParticipationStore) Add(_ context.Context, participation models.SessionFriend) (models.SessionFriend, error) {
	if participation.SessionID <= 0 || participation.FriendID <= 0 || !participation.Status.Valid() {
		return models.SessionFriend{}, ErrInvalidArgument
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	participation.ID = s.nextID
	s.nextID++
	participation.JoinedAt = s.now()
	participation.IsActive = true

	s.records = append(s.records, participation)
	return participation, nil
}

// UpdateStatus changes the status of the pair's active record, falling back to
// the most recent inactive one.
func (s *MemoryParticipationStore) UpdateStatus(_ context.Context, sessionID, friendID int, status models.ParticipantStatus) (models.SessionFriend, error) {
	if !status.Valid() {
		return models.SessionFriend{}, ErrInvalidArgument
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.matchLocked(sessionID, friendID)
	if idx < 0 {
		return models.SessionFriend{}, ErrNotFound
	}
	s.records[idx].Status = status
	return s.records[idx], nil
}

// Remove soft-deletes the pair's active record. Removing a friend who already
// left succeeds without changes.
func (s *MemoryParticipationStore) Remove(_ context.Context, sessionID, friendID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.matchLocked(sessionID, friendID)
	if idx < 0 {
		return ErrNotFound
	}
	s.records[idx].IsActive = false
	return nil
}

// IsParticipating reports whether the pair has an active record.
func (s *MemoryParticipationStore) IsParticipating(_ context.Context, sessionID, friendID int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.matchLocked(sessionID, friendID)
	return idx >= 0 && s.records[idx].IsActive, nil
}

// CountActive returns the number of active records in the session.
func (s *MemoryParticipationStore) CountActive(_ context.Context, sessionID int) (int, error) {
	active := s.filter(func(p models.SessionFriend) bool { return p.SessionID == sessionID && p.IsActive })
	return len(active), nil
}

func (s *MemoryParticipationStore) filter(keep func(models.SessionFriend) bool) []models.SessionFriend {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.SessionFriend, 0)
	for _, p := range s.records {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// matchLocked prefers the active record of the pair, then the latest one.
func (s *MemoryParticipationStore) matchLocked(sessionID, friendID int) int {
	latest := -1
	for i := len(s.records) - 1; i >= 0; i-- {
		p := s.records[i]
		if p.SessionID != sessionID || p.FriendID != friendID {
			continue
		}
		if p.IsActive {
			return i
		}
		if latest < 0 {
			latest = i
		}
	}
	return latest
}
