package lixi

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// UUIDGenerator produces "<prefix>_<uuid>" identifiers
type UUIDGenerator struct{}

// NewUUIDGenerator creates a new UUID based id generator
func NewUUIDGenerator() *UUIDGenerator { return &UUIDGenerator{} }

// NewID returns a new identifier with the given prefix
func (g *UUIDGenerator) NewID(prefix string) string {
	if prefix == "" {
		return uuid.NewString()
	}
	return prefix + "_" + uuid.NewString()
}

// SequenceGenerator produces "<prefix>_<n>" identifiers from a monotonically
// increasing counter. Useful when stable ids are needed in tests or demos.
type SequenceGenerator struct {
	next atomic.Int64
}

// NewSequenceGenerator creates a counter based id generator starting at 1
func NewSequenceGenerator() *SequenceGenerator { return &SequenceGenerator{} }

// NewID returns the next identifier with the given prefix
func (g *SequenceGenerator) NewID(prefix string) string {
	n := g.next.Add(1)
	if prefix == "" {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s_%d", prefix, n)
}
