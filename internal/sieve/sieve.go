// Package sieve suppresses repeated audit events by fingerprint.
//
// It keeps the most recently seen digests in a bounded LRU. An event whose
// digest is still in the cache is a duplicate; otherwise its digest is
// recorded and the event passes. The cache is safe for concurrent use.
package sieve

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mrzor/auditdedup/internal/fingerprint"
)

// DefaultSize is the default number of remembered digests.
const DefaultSize = 4096

// Sieve remembers recent digests.
type Sieve struct {
	cache *lru.Cache[fingerprint.Digest, struct{}]
}

// New creates a sieve remembering up to size digests. A size of zero
// disables suppression: every event passes.
func New(size int) (*Sieve, error) {
	if size < 0 {
		return nil, fmt.Errorf("sieve size must not be negative, got %d", size)
	}
	if size == 0 {
		return &Sieve{}, nil
	}

	cache, err := lru.New[fingerprint.Digest, struct{}](size)
	if err != nil {
		return nil, fmt.Errorf("creating sieve cache: %w", err)
	}
	return &Sieve{cache: cache}, nil
}

// Seen records d and reports whether it was already present.
func (s *Sieve) Seen(d fingerprint.Digest) bool {
	if s.cache == nil {
		return false
	}
	found, _ := s.cache.ContainsOrAdd(d, struct{}{})
	return found
}

// Len returns the number of remembered digests.
func (s *Sieve) Len() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.Len()
}
