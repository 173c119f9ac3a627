package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory.  It is used when Redis is
// unavailable and in tests; sessions do not survive a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Data
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Data)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Data, error) {
	s.mu.RLock()
	d, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	d.ID = id
	if d.Flash != nil {
		f := *d.Flash
		d.Flash = &f
	}
	return &d, nil
}

func (s *MemoryStore) Save(_ context.Context, d *Data) error {
	cp := *d
	if d.Flash != nil {
		f := *d.Flash
		cp.Flash = &f
	}
	s.mu.Lock()
	s.items[d.ID] = cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Sweep removes sessions idle for longer than maxIdle as of now and returns
// how many were removed.
func (s *MemoryStore) Sweep(now time.Time, maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, d := range s.items {
		if now.Sub(d.LastActivity) > maxIdle {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}
