package booking

import (
	"errors"
	"slices"
	"time"

	"vet-clinic-scheduler/internal/domain/appointment"
	"vet-clinic-scheduler/internal/domain/slot"
	"vet-clinic-scheduler/internal/pkg/errs"
)

var (
	ErrSlotUnavailable      = errors.New("slot is reserved or unavailable")
	ErrDuplicateAppointment = errors.New("appointment already booked")
	ErrHoldsNotReleasable   = errors.New("reserved slots are not released under the current policy")
	ErrHoldBound            = errors.New("reserved slot is bound to an appointment")
	ErrNotReserved          = errors.New("slot is not reserved")

	// ErrBookingPrecondition marks every emergency reservation precondition failure below.
	ErrBookingPrecondition = errors.New("booking precondition failed")
	ErrVetUnavailable      = errors.New("veterinarian has no active schedule")
	ErrSlotNotOffered      = errors.New("date and time is not an offered slot")
	ErrAlreadyReserved     = errors.New("slot is already reserved")
	ErrNoIntersection      = errors.New("veterinarian does not work at that date and time")
)

func precondition(err error, format string, args ...any) error {
	return errs.Mark(errs.Wrapf(err, format, args...), ErrBookingPrecondition)
}

// Reason records why a slot moved from available to reserved.
type Reason string

const (
	ReasonBooking   Reason = "booking"
	ReasonEmergency Reason = "emergency"
	ReasonHold      Reason = "hold"
)

// HoldPolicy decides whether reserved slots without an appointment may return to available.
type HoldPolicy string

const (
	HoldKeep    HoldPolicy = "keep"
	HoldRelease HoldPolicy = "release"
)

// State is the working copy of the three slot collections. Service methods never mutate the
// State they are given.
type State struct {
	Appointments appointment.List
	Available    slot.Set
	Reserved     slot.Set
}

func NewState() State {
	return State{
		Available: slot.NewSet(),
		Reserved:  slot.NewSet(),
	}
}

func (s State) Clone() State {
	return State{
		Appointments: s.Appointments.Clone(),
		Available:    s.Available.Clone(),
		Reserved:     s.Reserved.Clone(),
	}
}

// Booked is the set of slots bound to an appointment.
func (s State) Booked() slot.Set {
	return s.Appointments.Slots()
}

// Dates lists every calendar date that appears in any collection, earliest first.
func (s State) Dates() []time.Time {
	var out []time.Time
	add := func(t time.Time) {
		y, m, d := t.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
		if !slices.ContainsFunc(out, day.Equal) {
			out = append(out, day)
		}
	}
	for _, a := range s.Appointments {
		add(a.DateTime())
	}
	for _, sl := range slot.Union(s.Available, s.Reserved).Slots() {
		add(sl.DateTime())
	}
	slices.SortFunc(out, time.Time.Compare)
	return out
}

// Report lists the disagreements between the collections for one date.
type Report struct {
	Date                 time.Time
	MissingFromAvailable []slot.Slot
	StaleAvailable       []slot.Slot
	UnofferedAvailable   []slot.Slot
	BookedNotReserved    []slot.Slot
	DoubleBooked         []slot.Slot
	// UnknownVet lists booked slots whose vet is not on the roster. They are never reserved.
	UnknownVet []slot.Slot
}

func (r Report) Consistent() bool {
	return len(r.MissingFromAvailable) == 0 &&
		len(r.StaleAvailable) == 0 &&
		len(r.UnofferedAvailable) == 0 &&
		len(r.BookedNotReserved) == 0 &&
		len(r.DoubleBooked) == 0 &&
		len(r.UnknownVet) == 0
}
