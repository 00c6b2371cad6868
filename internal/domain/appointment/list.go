package appointment

import (
	"slices"

	"vet-clinic-scheduler/internal/domain/slot"
)

// List is the ordered appointment collection. Operations never modify the receiver; they return
// a fresh list. Uniqueness of customer+slot pairs is enforced by the booking service.
type List []Appointment

func (l List) Add(a Appointment) (List, error) {
	if err := a.Validate(); err != nil {
		return l, err
	}
	out := make(List, len(l), len(l)+1)
	copy(out, l)
	return append(out, a), nil
}

// Remove drops the first record equal to a.
func (l List) Remove(a Appointment) (List, error) {
	if err := a.Validate(); err != nil {
		return l, err
	}
	i := l.index(a)
	if i < 0 {
		return l, ErrAppointmentNotFound
	}
	out := make(List, 0, len(l)-1)
	out = append(out, l[:i]...)
	return append(out, l[i+1:]...), nil
}

func (l List) Exists(a Appointment) bool {
	if a.Validate() != nil {
		return false
	}
	return l.index(a) >= 0
}

// Update removes old and then appends updated. It does not touch slot state; use
// booking.Service.ReplaceAppointment to move the slot reservation along with the record.
func (l List) Update(old, updated Appointment) (List, error) {
	if err := old.Validate(); err != nil {
		return l, err
	}
	if err := updated.Validate(); err != nil {
		return l, err
	}
	removed, err := l.Remove(old)
	if err != nil {
		return l, err
	}
	return removed.Add(updated)
}

func (l List) Find(customer string, s slot.Slot) (Appointment, bool) {
	i := l.index(New(customer, s))
	if i < 0 {
		return Appointment{}, false
	}
	return l[i], true
}

// BySlot returns the appointment holding s, if any.
func (l List) BySlot(s slot.Slot) (Appointment, bool) {
	i := slices.IndexFunc(l, func(a Appointment) bool { return a.slot.Equal(s) })
	if i < 0 {
		return Appointment{}, false
	}
	return l[i], true
}

func (l List) ByCustomer(customer string) List {
	var out List
	for _, a := range l {
		if a.customer == customer {
			out = append(out, a)
		}
	}
	return out
}

// Slots projects the list onto the set of booked slots.
func (l List) Slots() slot.Set {
	out := slot.NewSet()
	for _, a := range l {
		_ = out.Add(a.slot)
	}
	return out
}

func (l List) Clone() List {
	return slices.Clone(l)
}

func (l List) Equal(other List) bool {
	return slices.EqualFunc(l, other, Appointment.Equal)
}

func (l List) index(a Appointment) int {
	return slices.IndexFunc(l, a.Equal)
}
