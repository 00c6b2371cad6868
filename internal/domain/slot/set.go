package slot

import (
	"slices"
	"time"
)

// Set holds slots keyed by identity. The zero value is an empty set ready to use.
type Set struct {
	m map[key]Slot
}

// NewSet collects the given slots as-is; duplicates collapse.
func NewSet(slots ...Slot) Set {
	s := Set{m: make(map[key]Slot, len(slots))}
	for _, sl := range slots {
		s.m[sl.key()] = sl
	}
	return s
}

// Add inserts sl. It returns ErrInvalidSlot or ErrSlotExists and leaves the set untouched
// when the slot cannot be inserted.
func (s *Set) Add(sl Slot) error {
	if err := sl.Validate(); err != nil {
		return err
	}
	if s.Contains(sl) {
		return ErrSlotExists
	}
	if s.m == nil {
		s.m = make(map[key]Slot)
	}
	s.m[sl.key()] = sl
	return nil
}

// Remove deletes sl. It returns ErrInvalidSlot or ErrSlotNotFound and leaves the set untouched
// when there is nothing to remove.
func (s *Set) Remove(sl Slot) error {
	if err := sl.Validate(); err != nil {
		return err
	}
	if !s.Contains(sl) {
		return ErrSlotNotFound
	}
	delete(s.m, sl.key())
	return nil
}

func (s Set) Contains(sl Slot) bool {
	_, ok := s.m[sl.key()]
	return ok
}

func (s Set) Len() int {
	return len(s.m)
}

func (s Set) IsEmpty() bool {
	return len(s.m) == 0
}

// Slots returns the members in (date-time, vet) order.
func (s Set) Slots() []Slot {
	out := make([]Slot, 0, len(s.m))
	for _, sl := range s.m {
		out = append(out, sl)
	}
	slices.SortFunc(out, Slot.Compare)
	return out
}

func (s Set) Clone() Set {
	c := Set{m: make(map[key]Slot, len(s.m))}
	for k, sl := range s.m {
		c.m[k] = sl
	}
	return c
}

func (s Set) Equal(other Set) bool {
	if len(s.m) != len(other.m) {
		return false
	}
	for k := range s.m {
		if _, ok := other.m[k]; !ok {
			return false
		}
	}
	return true
}

func (s Set) Filter(keep func(Slot) bool) Set {
	out := Set{m: make(map[key]Slot)}
	for k, sl := range s.m {
		if keep(sl) {
			out.m[k] = sl
		}
	}
	return out
}

func (s Set) ByVet(vet string) Set {
	return s.Filter(func(sl Slot) bool { return sl.vet == vet })
}

func (s Set) OnDate(date time.Time) Set {
	return s.Filter(func(sl Slot) bool { return sl.OnDate(date) })
}

func Union(sets ...Set) Set {
	out := Set{m: make(map[key]Slot)}
	for _, s := range sets {
		for k, sl := range s.m {
			out.m[k] = sl
		}
	}
	return out
}

// Intersection of no sets is the empty set.
func Intersection(sets ...Set) Set {
	if len(sets) == 0 {
		return Set{}
	}
	out := sets[0].Clone()
	for _, s := range sets[1:] {
		for k := range out.m {
			if _, ok := s.m[k]; !ok {
				delete(out.m, k)
			}
		}
	}
	return out
}

// Difference returns the members of base found in none of the others.
func Difference(base Set, others ...Set) Set {
	out := base.Clone()
	for _, s := range others {
		for k := range s.m {
			delete(out.m, k)
		}
	}
	return out
}

// SymmetricDifference returns the slots that belong to an odd number of the given sets,
// which for two sets is the usual "in either but not both".
func SymmetricDifference(sets ...Set) Set {
	counts := make(map[key]int)
	seen := make(map[key]Slot)
	for _, s := range sets {
		for k, sl := range s.m {
			counts[k]++
			seen[k] = sl
		}
	}
	out := Set{m: make(map[key]Slot)}
	for k, n := range counts {
		if n%2 == 1 {
			out.m[k] = seen[k]
		}
	}
	return out
}

// IsSubset reports whether every member of a is also in b.
func IsSubset(a, b Set) bool {
	if len(a.m) > len(b.m) {
		return false
	}
	for k := range a.m {
		if _, ok := b.m[k]; !ok {
			return false
		}
	}
	return true
}

func IsSuperset(a, b Set) bool {
	return IsSubset(b, a)
}
