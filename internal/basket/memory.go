package basket

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	basket    Basket
	expiresAt time.Time
}

// MemoryStore keeps baskets in process. Expired entries are dropped lazily on read
// and by Run's periodic sweep.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{entries: make(map[string]memoryEntry), now: now}
}

func (s *MemoryStore) Put(_ context.Context, code string, b Basket, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[code] = memoryEntry{basket: clone(b), expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) PutIfAbsent(_ context.Context, code string, b Basket, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if e, ok := s.entries[code]; ok && now.Before(e.expiresAt) {
		return false, nil
	}
	s.entries[code] = memoryEntry{basket: clone(b), expiresAt: now.Add(ttl)}
	return true, nil
}

func (s *MemoryStore) Get(_ context.Context, code string) (Basket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[code]
	if !ok {
		return Basket{}, ErrNotFound
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, code)
		return Basket{}, ErrNotFound
	}
	return clone(e.basket), nil
}

func (s *MemoryStore) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, code)
	return nil
}

// Sweep removes expired entries and returns how many it dropped.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for code, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, code)
			n++
		}
	}
	return n
}

// Len counts held entries, expired ones not yet swept included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Run sweeps every interval until ctx is done.
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sweep(); n > 0 {
				basketsEvicted.Add(float64(n))
			}
			basketsHeld.Set(float64(s.Len()))
		}
	}
}

func clone(b Basket) Basket {
	b.Items = append([]Item(nil), b.Items...)
	return b
}
