package replayguard

import (
	"context"
	"sync"
)

// MemoryStore is a bounded set of hashes. Entries live in a ring buffer
// ordered by insertion; when full, the slot of the oldest entry is reused.
type MemoryStore struct {
	mtx   sync.Mutex
	ring  []string
	next  int
	size  int
	index map[string]struct{}
}

// NewMemoryStore returns an empty store holding at most capacity hashes.
func NewMemoryStore(capacity int) (*MemoryStore, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &MemoryStore{
		ring:  make([]string, capacity),
		index: make(map[string]struct{}, capacity),
	}, nil
}

func (s *MemoryStore) Add(_ context.Context, hash string) (bool, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.index[hash]; ok {
		return false, nil
	}

	if s.size == len(s.ring) {
		delete(s.index, s.ring[s.next])
	} else {
		s.size++
	}
	s.ring[s.next] = hash
	s.index[hash] = struct{}{}
	s.next = (s.next + 1) % len(s.ring)
	return true, nil
}

func (s *MemoryStore) Contains(_ context.Context, hash string) (bool, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	_, ok := s.index[hash]
	return ok, nil
}

func (s *MemoryStore) Len(_ context.Context) (int, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.size, nil
}
