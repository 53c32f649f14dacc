package crawl

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// IdentitySet tracks station identity keys seen during a crawl. Keys are
// hashed so only 8 bytes per station are held regardless of key length.
// It is safe for concurrent use.
type IdentitySet struct {
	mu   sync.Mutex
	keys map[uint64]struct{}
}

// NewIdentitySet creates an empty IdentitySet.
func NewIdentitySet() *IdentitySet {
	return &IdentitySet{keys: make(map[uint64]struct{})}
}

// Add records a key. Returns false if the key was already present.
func (s *IdentitySet) Add(key string) bool {
	h := xxhash.Sum64String(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[h]; ok {
		return false
	}
	s.keys[h] = struct{}{}
	return true
}

// Has reports whether a key has been recorded.
func (s *IdentitySet) Has(key string) bool {
	h := xxhash.Sum64String(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[h]
	return ok
}

// Len returns the number of recorded keys.
func (s *IdentitySet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}
