package lixi

import "slices"

// Denomination is one envelope face value and how many envelopes carry it
type Denomination struct {
	ID       string `json:"id"`       // Denomination ID
	Value    int64  `json:"value"`    // Face value in currency units
	Quantity int    `json:"quantity"` // Number of envelopes with this value
}

// Validate validates the denomination data
func (d *Denomination) Validate() error {
	if d.ID == "" {
		return ErrInvalidParameters.WithDetails("denomination id cannot be empty")
	}
	if d.Value <= 0 {
		return ErrInvalidDenominationValue
	}
	if d.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// ValidateDenominations validates every entry and the uniqueness of values
func ValidateDenominations(denoms []Denomination) error {
	seen := make(map[int64]struct{}, len(denoms))
	for i := range denoms {
		if err := denoms[i].Validate(); err != nil {
			return err
		}
		if _, ok := seen[denoms[i].Value]; ok {
			return ErrDuplicateDenomination
		}
		seen[denoms[i].Value] = struct{}{}
	}
	return nil
}

// AddDenomination adds quantity envelopes of value to the set. If an entry with
// the same value already exists its quantity grows instead. The input slice is
// never modified.
func AddDenomination(denoms []Denomination, value int64, quantity int, ids IDGenerator) ([]Denomination, error) {
	if value <= 0 {
		return nil, ErrInvalidDenominationValue
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	out := slices.Clone(denoms)
	for i := range out {
		if out[i].Value == value {
			out[i].Quantity += quantity
			return out, nil
		}
	}

	return append(out, Denomination{
		ID:       ids.NewID(DenominationIDPrefix),
		Value:    value,
		Quantity: quantity,
	}), nil
}

// RemoveDenomination drops the entry with the given id
func RemoveDenomination(denoms []Denomination, id string) ([]Denomination, error) {
	idx := slices.IndexFunc(denoms, func(d Denomination) bool { return d.ID == id })
	if idx < 0 {
		return nil, ErrDenominationNotFound
	}
	return slices.Delete(slices.Clone(denoms), idx, idx+1), nil
}

// UpdateQuantity sets the quantity of the entry with the given id; a quantity
// of zero or less removes the entry.
func UpdateQuantity(denoms []Denomination, id string, quantity int) ([]Denomination, error) {
	if quantity <= 0 {
		return RemoveDenomination(denoms, id)
	}

	idx := slices.IndexFunc(denoms, func(d Denomination) bool { return d.ID == id })
	if idx < 0 {
		return nil, ErrDenominationNotFound
	}

	out := slices.Clone(denoms)
	out[idx].Quantity = quantity
	return out, nil
}

// EditDenomination replaces value and quantity of the entry with the given id.
// A value already used by another entry is rejected.
func EditDenomination(denoms []Denomination, id string, value int64, quantity int) ([]Denomination, error) {
	if value <= 0 {
		return nil, ErrInvalidDenominationValue
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	idx := -1
	for i := range denoms {
		if denoms[i].ID == id {
			idx = i
			continue
		}
		if denoms[i].Value == value {
			return nil, ErrDuplicateDenomination
		}
	}
	if idx < 0 {
		return nil, ErrDenominationNotFound
	}

	out := slices.Clone(denoms)
	out[idx].Value = value
	out[idx].Quantity = quantity
	return out, nil
}

// TotalEnvelopes returns the sum of all quantities
func TotalEnvelopes(denoms []Denomination) int {
	total := 0
	for _, d := range denoms {
		total += d.Quantity
	}
	return total
}

// TotalValue returns the sum of value*quantity over the set
func TotalValue(denoms []Denomination) int64 {
	var total int64
	for _, d := range denoms {
		total += d.Value * int64(d.Quantity)
	}
	return total
}
