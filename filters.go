package canmux

import "fmt"

const (
	// MaxFilterBanks is the number of acceptance filter banks a controller
	// exposes.
	MaxFilterBanks = 14
	// bankSlots is the capacity of one bank in 16-bit list mode. A standard
	// identifier takes one slot, an extended identifier takes two.
	bankSlots = 4
)

// FilterID is one entry of an acceptance filter list.
type FilterID struct {
	ID       uint32
	Extended bool
}

func (f FilterID) String() string {
	if f.Extended {
		return fmt.Sprintf("0x%08X(x)", f.ID)
	}
	return fmt.Sprintf("0x%03X", f.ID)
}

// Matches reports whether the frame is accepted by this entry.
func (f FilterID) Matches(frame CANFrame) bool {
	return f.ID == frame.Identifier && f.Extended == frame.Extended
}

func (f FilterID) slots() int {
	if f.Extended {
		return 2
	}
	return 1
}

// ValidateBank checks a bank index and the identifiers assigned to it.
func ValidateBank(bank int, ids []FilterID) error {
	if bank < 0 || bank >= MaxFilterBanks {
		return fmt.Errorf("%w: filter bank %d out of range", ErrInvalidValue, bank)
	}
	used := 0
	for _, id := range ids {
		limit := uint32(MaxStandardID)
		if id.Extended {
			limit = MaxExtendedID
		}
		if id.ID > limit {
			return fmt.Errorf("%w: filter id %s out of range", ErrInvalidValue, id)
		}
		used += id.slots()
	}
	if used > bankSlots {
		return fmt.Errorf("%w: filter bank %d holds %d slots, max %d", ErrInvalidValue, bank, used, bankSlots)
	}
	return nil
}

// PackFilterBanks distributes ids over banks in order, filling each bank
// before moving to the next.
func PackFilterBanks(ids []FilterID) ([][]FilterID, error) {
	var banks [][]FilterID
	var cur []FilterID
	used := 0
	for _, id := range ids {
		if used+id.slots() > bankSlots {
			banks = append(banks, cur)
			cur, used = nil, 0
		}
		cur = append(cur, id)
		used += id.slots()
	}
	if len(cur) > 0 {
		banks = append(banks, cur)
	}
	if len(banks) > MaxFilterBanks {
		return nil, fmt.Errorf("%w: %d identifiers need %d filter banks, max %d", ErrInvalidValue, len(ids), len(banks), MaxFilterBanks)
	}
	return banks, nil
}

// filterSet is a lookup set built from the configured banks.
type filterSet map[FilterID]struct{}

func newFilterSet(ids []FilterID) filterSet {
	if len(ids) == 0 {
		return nil
	}
	s := make(filterSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// accepts returns true for every frame when the set is empty.
func (s filterSet) accepts(frame CANFrame) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[FilterID{ID: frame.Identifier, Extended: frame.Extended}]
	return ok
}
