package lixi

import "slices"

// DrawResult is the outcome of a single draw from a pool
type DrawResult struct {
	Prize         int64   `json:"prize"`          // The drawn envelope value
	Index         int     `json:"index"`          // Position the prize was taken from
	RemainingPool []int64 `json:"remaining_pool"` // Pool without the drawn position
}

// BuildPool expands every denomination into Quantity copies of its Value and
// returns them in a uniformly random order. The input is not modified.
func BuildPool(denoms []Denomination, rng RandomGenerator) ([]int64, error) {
	pool := make([]int64, 0, max(TotalEnvelopes(denoms), 0))
	for _, d := range denoms {
		for range d.Quantity {
			pool = append(pool, d.Value)
		}
	}

	return Shuffle(pool, rng)
}

// Shuffle returns a Fisher-Yates permutation of values. The input is not modified.
func Shuffle(values []int64, rng RandomGenerator) ([]int64, error) {
	shuffled := slices.Clone(values)
	for i := len(shuffled) - 1; i > 0; i-- {
		j, err := rng.GenerateInRange(0, i)
		if err != nil {
			return nil, err
		}
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled, nil
}

// DrawFromPool removes one uniformly chosen position from pool. It returns
// ErrPoolExhausted when pool is empty. The input is not modified; removal is
// by position so duplicate values are preserved.
func DrawFromPool(pool []int64, rng RandomGenerator) (*DrawResult, error) {
	if len(pool) == 0 {
		return nil, ErrPoolExhausted
	}

	index, err := rng.GenerateInRange(0, len(pool)-1)
	if err != nil {
		return nil, err
	}

	remaining := make([]int64, 0, len(pool)-1)
	remaining = append(remaining, pool[:index]...)
	remaining = append(remaining, pool[index+1:]...)

	return &DrawResult{
		Prize:         pool[index],
		Index:         index,
		RemainingPool: remaining,
	}, nil
}

// SumPool returns the total value left in pool
func SumPool(pool []int64) int64 {
	var total int64
	for _, v := range pool {
		total += v
	}
	return total
}
