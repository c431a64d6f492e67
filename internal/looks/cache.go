package looks

import (
	"sync"

	"nail-preview-backend/internal/models"
)

// Cache is the local-first list of saved looks. Every change is a
// whole-list read-modify-write under the lock, so there are no partial
// updates to race against. Subscribers receive a fresh snapshot after every
// change.
type Cache struct {
	mu          sync.RWMutex
	looks       []models.SavedLook
	subscribers map[chan []models.SavedLook]struct{}
}

func NewCache() *Cache {
	return &Cache{
		looks:       make([]models.SavedLook, 0),
		subscribers: make(map[chan []models.SavedLook]struct{}),
	}
}

// Snapshot returns a copy of the current list.
func (c *Cache) Snapshot() []models.SavedLook {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snapshot := make([]models.SavedLook, len(c.looks))
	copy(snapshot, c.looks)
	return snapshot
}

// Update atomically replaces the list with fn(current) and notifies
// subscribers. fn receives a copy and must return the full next list.
func (c *Cache) Update(fn func(current []models.SavedLook) []models.SavedLook) []models.SavedLook {
	c.mu.Lock()
	current := make([]models.SavedLook, len(c.looks))
	copy(current, c.looks)
	next := fn(current)
	c.looks = next

	snapshot := make([]models.SavedLook, len(next))
	copy(snapshot, next)
	c.mu.Unlock()

	c.notify(snapshot)
	return snapshot
}

// Subscribe returns a channel that receives a snapshot after every change.
func (c *Cache) Subscribe() chan []models.SavedLook {
	ch := make(chan []models.SavedLook, 8)
	c.mu.Lock()
	c.subscribers[ch] = struct{}{}
	c.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes the channel.
func (c *Cache) Unsubscribe(ch chan []models.SavedLook) {
	c.mu.Lock()
	delete(c.subscribers, ch)
	c.mu.Unlock()
	close(ch)
}

func (c *Cache) notify(snapshot []models.SavedLook) {
	c.mu.RLock()
	for ch := range c.subscribers {
		select {
		case ch <- snapshot:
		default:
			// drop if subscriber is slow
		}
	}
	c.mu.RUnlock()
}
