package lixi

import "context"

// Store is the durable string-keyed record store the engine persists into.
// Load reports ok=false when the key does not exist.
type Store interface {
	Load(ctx context.Context, key string) (value string, ok bool, err error)
	Save(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// RandomGenerator is the source of randomness for shuffling and drawing
type RandomGenerator interface {
	// GenerateInRange returns a uniformly distributed integer in [min, max] (inclusive)
	GenerateInRange(min, max int) (int, error)

	// GenerateFloat returns a uniformly distributed float in [0, 1)
	GenerateFloat() (float64, error)
}

// IDGenerator produces identifiers for rooms and denominations
type IDGenerator interface {
	NewID(prefix string) string
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}
