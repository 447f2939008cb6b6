package friends

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gamenight/backend/internal/models"
	"github.com/gamenight/backend/internal/repositories"
)

type stubDirectory struct {
	repositories.FriendDirectory
	friend models.Friend
	err    error
	calls  int
}

func (s *stubDirectory) Get(context.Context, int) (models.Friend, error) {
	s.calls++
	if s.err != nil {
		return models.Friend{}, s.err
	}
	return s.friend, nil
}

func (s *stubDirectory) Update(_ context.Context, friend models.Friend) (models.Friend, error) {
	s.friend = friend
	return friend, nil
}

func TestCachingDirectoryGet(t *testing.T) {
	base := &stubDirectory{friend: models.Friend{ID: 1, Name: "Alice"}}
	cache := NewCachingDirectory(base, time.Minute)

	ctx := context.Background()

	friend, err := cache.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if friend.Name != "Alice" {
		t.Fatalf("unexpected friend: %+v", friend)
	}
	if base.calls != 1 {
		t.Fatalf("expected base called once got %d", base.calls)
	}

	if _, err := cache.Get(ctx, 1); err != nil {
		t.Fatalf("get: %v", err)
	}
	if base.calls != 1 {
		t.Fatalf("expected cached result got %d calls", base.calls)
	}
}

func TestCachingDirectoryGetErrors(t *testing.T) {
	cache := NewCachingDirectory(nil, time.Minute)
	if _, err := cache.Get(context.Background(), 1); !errors.Is(err, ErrDirectoryUnavailable) {
		t.Fatalf("expected directory unavailable got %v", err)
	}

	base := &stubDirectory{err: repositories.ErrNotFound}
	cache = NewCachingDirectory(base, time.Minute)
	for i := 0; i < 2; i++ {
		if _, err := cache.Get(context.Background(), 7); !errors.Is(err, repositories.ErrNotFound) {
			t.Fatalf("expected not found got %v", err)
		}
	}
	if base.calls != 2 {
		t.Fatalf("expected misses to bypass the cache got %d calls", base.calls)
	}
}

func TestCachingDirectoryExpiry(t *testing.T) {
	base := &stubDirectory{friend: models.Friend{ID: 1, Name: "Alice"}}
	cache := NewCachingDirectory(base, time.Minute)

	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	if _, err := cache.Get(context.Background(), 1); err != nil {
		t.Fatalf("get: %v", err)
	}

	now = now.Add(2 * time.Minute)

	if _, err := cache.Get(context.Background(), 1); err != nil {
		t.Fatalf("get: %v", err)
	}
	if base.calls != 2 {
		t.Fatalf("expected cache miss after expiry got %d calls", base.calls)
	}
}

func TestCachingDirectoryUpdateEvicts(t *testing.T) {
	base := &stubDirectory{friend: models.Friend{ID: 1, Name: "Alice"}}
	cache := NewCachingDirectory(base, time.Minute)
	ctx := context.Background()

	if _, err := cache.Get(ctx, 1); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := cache.Update(ctx, models.Friend{ID: 1, Name: "Alicia"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	friend, err := cache.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if friend.Name != "Alicia" {
		t.Fatalf("expected refreshed friend got %+v", friend)
	}
	if base.calls != 2 {
		t.Fatalf("expected lookup after eviction got %d calls", base.calls)
	}
}

func TestCachingDirectoryDefaultTTL(t *testing.T) {
	cache := NewCachingDirectory(&stubDirectory{}, 0)

	if cache.ttl <= 0 {
		t.Fatalf("expected ttl to default positive got %v", cache.ttl)
	}
}
