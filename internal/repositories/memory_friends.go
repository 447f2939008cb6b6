package repositories

import (
	"context"
	"strings"
	"sync"

	"github.com/gamenight/backend/internal/models"
)

// DemoFriends is the directory content used when no database is configured.
var DemoFriends = []models.Friend{
	{ID: 1, Name: "Alice", Email: "alice@example.com"},
	{ID: 2, Name: "Bob", Email: "bob@example.com"},
	{ID: 3, Name: "Charlie"},
}

// MemoryFriendDirectory implements FriendDirectory for tests and local development.
type MemoryFriendDirectory struct {
	mu      sync.RWMutex
	friends []models.Friend
	nextID  int
}

var _ FriendDirectory = (*MemoryFriendDirectory)(nil)

// NewMemoryFriendDirectory returns a directory pre-populated with seed.
func NewMemoryFriendDirectory(seed ...models.Friend) *MemoryFriendDirectory {
	d := &MemoryFriendDirectory{nextID: 1}
	for _, friend := range seed {
		d.friends = append(d.friends, friend)
		if friend.ID >= d.nextID {
			d.nextID = friend.ID + 1
		}
	}
	return d
}

// Get returns the friend with the given id.
func (d *MemoryFriendDirectory) Get(_ context.Context, id int) (models.Friend, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if idx := d.indexLocked(id); idx >= 0 {
		return d.friends[idx], nil
	}
	return models.Friend{}, ErrNotFound
}

// List returns every friend in insertion order.
func (d *MemoryFriendDirectory) List(_ context.Context) ([]models.Friend, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]models.Friend, len(d.friends))
	copy(out, d.friends)
	return out, nil
}

// Search matches query case-insensitively against names and emails.
func (d *MemoryFriendDirectory) Search(ctx context.Context, query string) ([]models.Friend, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return d.List(ctx)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []models.Friend
	for _, friend := range d.friends {
		if strings.Contains(strings.ToLower(friend.Name), query) || strings.Contains(strings.ToLower(friend.Email), query) {
			out = append(out, friend)
		}
	}
	return out, nil
}

// Add stores a new friend, assigning an id when none is set.
func (d *MemoryFriendDirectory) Add(_ context.Context, friend models.Friend) (models.Friend, error) {
	if strings.TrimSpace(friend.Name) == "" {
		return models.Friend{}, ErrInvalidArgument
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if friend.ID == 0 {
		friend.ID = d.nextID
	} else if d.indexLocked(friend.ID) >= 0 {
		return models.Friend{}, ErrConflict
	}
	if friend.ID >= d.nextID {
		d.nextID = friend.ID + 1
	}

	d.friends = append(d.friends, friend)
	return friend, nil
}

// Update replaces the stored friend with the same id.
func (d *MemoryFriendDirectory) Update(_ context.Context, friend models.Friend) (models.Friend, error) {
	if strings.TrimSpace(friend.Name) == "" {
		return models.Friend{}, ErrInvalidArgument
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	idx := d.indexLocked(friend.ID)
	if idx < 0 {
		return models.Friend{}, ErrNotFound
	}
	d.friends[idx] = friend
	return friend, nil
}

// Delete removes the friend with the given id.
func (d *MemoryFriendDirectory) Delete(_ context.Context, id int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx := d.indexLocked(id)
	if idx < 0 {
		return ErrNotFound
	}
	d.friends = append(d.friends[:idx], d.friends[idx+1:]...)
	return nil
}

func (d *MemoryFriendDirectory) indexLocked(id int) int {
	for i, friend := range d.friends {
		if friend.ID == id {
			return i
		}
	}
	return -1
}
