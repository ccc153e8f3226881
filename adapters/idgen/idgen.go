// Package idgen provides item identifier generators.
package idgen

import (
	"fmt"
	"sync/atomic"

	"github.com/artpar/contentcore/domain/ident"
	"github.com/artpar/contentcore/ports"
)

// UUID generates random version 4 identifiers.
type UUID struct{}

// New generates a new identifier.
func (UUID) New() string {
	return ident.Generate()
}

var _ ports.IDGenerator = UUID{}

// Sequential generates predictable identifiers for tests. Every id is a
// valid version 4 UUID whose last group carries the counter, so it passes
// identifier checks.
type Sequential struct {
	prefix  uint32
	counter uint64
}

// NewSequential creates a generator whose ids start with the 8-hex-digit
// prefix.
func NewSequential(prefix uint32) *Sequential {
	return &Sequential{prefix: prefix}
}

// New generates the next identifier.
func (s *Sequential) New() string {
	n := atomic.AddUint64(&s.counter, 1)
	return fmt.Sprintf("%08x-0000-4000-8000-%012x", s.prefix, n&0xffffffffffff)
}

// Reset restarts the counter.
func (s *Sequential) Reset() {
	atomic.StoreUint64(&s.counter, 0)
}

var _ ports.IDGenerator = (*Sequential)(nil)
