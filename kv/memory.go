package kv

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/tidwall/match"
)

const (
	defaultExpiration = 10 * time.Minute
	cleanupInterval   = time.Minute
)

// MemoryStore keeps entries in process memory. Contents are lost on restart.
type MemoryStore struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: cache.New(defaultExpiration, cleanupInterval),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	obj, found := s.cache.Get(key)
	if !found {
		return nil, ErrMiss
	}
	data := obj.([]byte)
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	data := make([]byte, len(value))
	copy(data, value)
	s.cache.Set(key, data, ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.cache.Get(key); !found {
		return false, nil
	}
	s.cache.Delete(key)
	return true, nil
}

// DeletePattern removes every key matching a Redis-style glob.
func (s *MemoryStore) DeletePattern(_ context.Context, pattern string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key := range s.cache.Items() {
		if match.Match(key, pattern) {
			s.cache.Delete(key)
			removed++
		}
	}
	return removed, nil
}

// Incr keeps the counter as decimal text so Get reads it the way Redis
// returns an INCR key.
func (s *MemoryStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	obj, expires, found := s.cache.GetWithExpiration(key)
	switch {
	case found:
		v, err := strconv.ParseInt(string(obj.([]byte)), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("kv: %q is not a counter", key)
		}
		n = v
		ttl = cache.NoExpiration
		if !expires.IsZero() {
			ttl = time.Until(expires)
		}
	case ttl <= 0:
		ttl = cache.NoExpiration
	}
	n++
	s.cache.Set(key, []byte(strconv.FormatInt(n, 10)), ttl)
	return n, nil
}

func (s *MemoryStore) Flush() {
	s.cache.Flush()
}
