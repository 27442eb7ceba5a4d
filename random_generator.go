package lixi

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand/v2"
)

// SecureRandomGenerator implements RandomGenerator using crypto/rand
type SecureRandomGenerator struct{}

// NewSecureRandomGenerator creates a new secure random generator
func NewSecureRandomGenerator() *SecureRandomGenerator {
	return &SecureRandomGenerator{}
}

// GenerateInRange generates a secure random number within the specified range [min, max] (inclusive)
func (g *SecureRandomGenerator) GenerateInRange(min, max int) (int, error) {
	if min > max {
		return 0, ErrInvalidRange
	}
	if min == max {
		return min, nil
	}

	rangeSize := int64(max) - int64(min) + 1
	randomBig, err := rand.Int(rand.Reader, big.NewInt(rangeSize))
	if err != nil {
		return 0, err
	}

	return int(randomBig.Int64()) + min, nil
}

// GenerateFloat generates a secure random float between 0 and 1 (exclusive of 1)
func (g *SecureRandomGenerator) GenerateFloat() (float64, error) {
	randomBig, err := rand.Int(rand.Reader, big.NewInt(1<<53)) // 53 bits of mantissa
	if err != nil {
		return 0, err
	}

	return float64(randomBig.Int64()) / float64(1<<53), nil
}

// SeededRandomGenerator is a reproducible RandomGenerator: the same seed
// always yields the same sequence of shuffles and draws.
type SeededRandomGenerator struct {
	r *mrand.Rand
}

// NewSeededRandomGenerator creates a deterministic generator from seed
func NewSeededRandomGenerator(seed uint64) *SeededRandomGenerator {
	return &SeededRandomGenerator{r: mrand.New(mrand.NewPCG(seed, 0))}
}

// GenerateInRange returns a number in [min, max] (inclusive)
func (g *SeededRandomGenerator) GenerateInRange(min, max int) (int, error) {
	if min > max {
		return 0, ErrInvalidRange
	}
	if min == max {
		return min, nil
	}
	return g.r.IntN(max-min+1) + min, nil
}

// GenerateFloat returns a float in [0, 1)
func (g *SeededRandomGenerator) GenerateFloat() (float64, error) {
	return g.r.Float64(), nil
}
