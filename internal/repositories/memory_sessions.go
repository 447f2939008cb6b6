package repositories

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gamenight/backend/internal/models"
)

// MemorySessionStore implements SessionRepository with an in-process slice.
type MemorySessionStore struct {
	mu           sync.RWMutex
	sessions     []models.GameSession
	nextID       int
	participants ParticipantLookup
	now          func() time.Time
}

var _ SessionRepository = (*MemorySessionStore)(nil)

// NewMemorySessionStore returns an empty store. participants backs
// GetByParticipant and may be nil, in which case that query returns nothing.
func NewMemorySessionStore(participants ParticipantLookup) *MemorySessionStore {
	return &MemorySessionStore{
		nextID:       1,
		participants: participants,
		now:          time.Now,
	}
}

// WithNowFunc allows tests to override the time source.
func (s *MemorySessionStore) WithNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// GetAll returns every session in creation order.
func (s *MemorySessionStore) GetAll(_ context.Context) ([]models.GameSession, error) {
	return s.filter(func(models.GameSession) bool { return true }), nil
}

// GetByID returns the session with the given id.
func (s *MemorySessionStore) GetByID(_ context.Context, id int) (models.GameSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexLocked(id); idx >= 0 {
		return s.sessions[idx], nil
	}
	return models.GameSession{}, ErrNotFound
}

// GetActive returns sessions that have not been ended.
func (s *MemorySessionStore) GetActive(_ context.Context) ([]models.GameSession, error) {
	return s.filter(func(session models.GameSession) bool { return session.IsActive }), nil
}

// GetByCreator returns sessions created by the given friend.
func (s *MemorySessionStore) GetByCreator(_ context.Context, creatorID int) ([]models.GameSession, error) {
	return s.filter(func(session models.GameSession) bool { return session.CreatorID == creatorID }), nil
}

// GetByParticipant returns sessions in which the friend currently participates.
func (s *MemorySessionStore) GetByParticipant(ctx context.Context, friendID int) ([]models.GameSession, error) {
	if s.participants == nil {
		return nil, nil
	}

	participations, err := s.participants.GetByFriend(ctx, friendID)
	if err != nil {
		return nil, fmt.Errorf("lookup participations: %w", err)
	}

	active := make(map[int]struct{}, len(participations))
	for _, p := range participations {
		if p.IsActive {
			active[p.SessionID] = struct{}{}
		}
	}

	return s.filter(func(session models.GameSession) bool {
		_, ok := active[session.ID]
		return ok
	}), nil
}

// Create stores a new active session, assigning its id and creation time.
func (s *MemorySessionStore) Create(_ context.Context, session models.GameSession) (models.GameSession, error) {
	if strings.TrimSpace(session.Name) == "" || session.CreatorID <= 0 {
		return models.GameSession{}, ErrInvalidArgument
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session.ID = s.nextID
	s.nextID++
	session.CreatedAt = s.now()
	session.IsActive = true
	session.EndedAt = nil

	s.sessions = append(s.sessions, session)
	return session, nil
}

// End marks an active session as ended. Ending is terminal.
func (s *MemorySessionStore) End(_ context.Context, id int) (models.GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return models.GameSession{}, ErrNotFound
	}

	session := s.sessions[idx]
	if !session.IsActive {
		return session, ErrInvalidTransition
	}

	endedAt := s.now()
	session.IsActive = false
	session.EndedAt = &endedAt
	s.sessions[idx] = session
	return session, nil
}

// Delete removes the session record.
func (s *MemorySessionStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return ErrNotFound
	}
	s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)
	return nil
}

func (s *MemorySessionStore) filter(keep func(models.GameSession) bool) []models.GameSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.GameSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		if keep(session) {
			out = append(out, session)
		}
	}
	return out
}

func (s *MemorySessionStore) indexLocked(id int) int {
	for i, session := range s.sessions {
		if session.ID == id {
			return i
		}
	}
	return -1
}
