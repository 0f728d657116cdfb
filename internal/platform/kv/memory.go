package kv

import (
	"context"
	"path"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	list      []string
	isList    bool
	expiresAt time.Time // zero means no expiry
}

// memoryStore is the in-process fallback backend. Expiry is lazy: every
// operation evicts the key first if its deadline has passed, so an expired
// key is indistinguishable from an absent one without a sweeper goroutine.
type memoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

func NewMemoryStore() Store {
	return &memoryStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

// live returns the entry for key after lazy eviction. Callers must hold mu.
func (s *memoryStore) live(key string) *memoryEntry {
	e, ok := s.entries[key]
	if !ok {
		return nil
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return nil
	}
	return e
}

func (s *memoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil {
		return "", ErrNotFound
	}
	if e.isList {
		return "", ErrWrongType
	}
	return e.value, nil
}

func (s *memoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}

func (s *memoryStore) Append(_ context.Context, key string, values ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil {
		e = &memoryEntry{isList: true}
		s.entries[key] = e
	}
	if !e.isList {
		return 0, ErrWrongType
	}
	e.list = append(e.list, values...)
	return int64(len(e.list)), nil
}

func (s *memoryStore) Range(_ context.Context, key string, start, stop int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil {
		return []string{}, nil
	}
	if !e.isList {
		return nil, ErrWrongType
	}

	n := int64(len(e.list))
	if start < 0 {
		start += n
		if start < 0 {
			start = 0
		}
	}
	if stop < 0 {
		stop += n
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n || stop < 0 {
		return []string{}, nil
	}

	out := make([]string, stop-start+1)
	copy(out, e.list[start:stop+1])
	return out, nil
}

func (s *memoryStore) RefreshTTL(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil {
		return false, nil
	}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	} else {
		e.expiresAt = time.Time{}
	}
	return true, nil
}

func (s *memoryStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live(key) != nil, nil
}

func (s *memoryStore) Delete(_ context.Context, keys ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for _, key := range keys {
		if s.live(key) != nil {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (s *memoryStore) Keys(_ context.Context, pattern string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []string{}
	for key := range s.entries {
		if s.live(key) == nil {
			continue
		}
		ok, err := path.Match(pattern, key)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, key)
		}
	}
	return out, nil
}

func (s *memoryStore) Backend() string { return "memory" }

func (s *memoryStore) Close() error { return nil }
