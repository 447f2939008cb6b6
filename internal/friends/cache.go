package friends

import (
	"context"
	"sync"
	"time"

	"github.com/gamenight/backend/internal/models"
	"github.com/gamenight/backend/internal/repositories"
)

type cacheEntry struct {
	friend  models.Friend
	expires time.Time
}

// CachingDirectory wraps a FriendDirectory with a TTL-based cache of Get lookups.
// Writes go to the base directory and evict the affected entry.
type CachingDirectory struct {
	base repositories.FriendDirectory
	ttl  time.Duration
	now  func() time.Time

	mu    sync.RWMutex
	items map[int]cacheEntry
}

var _ repositories.FriendDirectory = (*CachingDirectory)(nil)

// NewCachingDirectory returns a directory that caches lookups for the provided TTL.
func NewCachingDirectory(base repositories.FriendDirectory, ttl time.Duration) *CachingDirectory {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachingDirectory{
		base:  base,
		ttl:   ttl,
		now:   time.Now,
		items: make(map[int]cacheEntry),
	}
}

// Get returns the cached friend when fresh, otherwise it delegates to the base
// directory and stores the result. Misses are not cached.
func (c *CachingDirectory) Get(ctx context.Context, id int) (models.Friend, error) {
	if c == nil || c.base == nil {
		return models.Friend{}, ErrDirectoryUnavailable
	}

	now := c.now()

	c.mu.RLock()
	entry, ok := c.items[id]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.friend, nil
	}

	friend, err := c.base.Get(ctx, id)
	if err != nil {
		return models.Friend{}, err
	}

	c.mu.Lock()
	c.items[id] = cacheEntry{friend: friend, expires: now.Add(c.ttl)}
	c.mu.Unlock()

	return friend, nil
}

// List passes through to the underlying directory; listings are not cached.
func (c *CachingDirectory) List(ctx context.Context) ([]models.Friend, error) {
	if c == nil || c.base == nil {
		return nil, ErrDirectoryUnavailable
	}
	return c.base.List(ctx)
}

// Search passes through to the underlying directory.
func (c *CachingDirectory) Search(ctx context.Context, query string) ([]models.Friend, error) {
	if c == nil || c.base == nil {
		return nil, ErrDirectoryUnavailable
	}
	return c.base.Search(ctx, query)
}

// Add stores the friend in the underlying directory.
func (c *CachingDirectory) Add(ctx context.Context, friend models.Friend) (models.Friend, error) {
	if c == nil || c.base == nil {
		return models.Friend{}, ErrDirectoryUnavailable
	}
	added, err := c.base.Add(ctx, friend)
	if err != nil {
		return models.Friend{}, err
	}
	c.evict(added.ID)
	return added, nil
}

// Update writes through and drops any cached copy of the friend.
func (c *CachingDirectory) Update(ctx context.Context, friend models.Friend) (models.Friend, error) {
	if c == nil || c.base == nil {
		return models.Friend{}, ErrDirectoryUnavailable
	}
	updated, err := c.base.Update(ctx, friend)
	c.evict(friend.ID)
	return updated, err
}

// Delete removes the friend and its cached copy.
func (c *CachingDirectory) Delete(ctx context.Context, id int) error {
	if c == nil || c.base == nil {
		return ErrDirectoryUnavailable
	}
	err := c.base.Delete(ctx, id)
	c.evict(id)
	return err
}

func (c *CachingDirectory) evict(id int) {
	c.mu.Lock()
	delete(c.items, id)
	c.mu.Unlock()
}
