package wizard

import (
	"context"
	"time"

	"github.com/evidenceledger/proxybid/internal/cache"
)

// Store persists wizards between requests, keyed by user.
// Concurrent saves for the same key are last write wins.
type Store interface {
	// Load returns the saved wizard, or a new one if there is none
	Load(ctx context.Context, key string) (*Wizard, error)
	Save(ctx context.Context, key string, w *Wizard) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore keeps wizards in the in-process TTL cache
type MemoryStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewMemoryStore(c *cache.Cache, ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: c, ttl: ttl}
}

func (s *MemoryStore) Load(_ context.Context, key string) (*Wizard, error) {
	v, found := s.cache.Get(memoryKey(key))
	if !found {
		return New(), nil
	}
	w, ok := v.(*Wizard)
	if !ok {
		return New(), nil
	}
	return w.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, key string, w *Wizard) error {
	s.cache.Set(memoryKey(key), w.Clone(), s.ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.cache.Delete(memoryKey(key))
	return nil
}

func memoryKey(key string) string {
	return "wizard:" + key
}
