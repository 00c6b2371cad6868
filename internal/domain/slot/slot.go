package slot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"vet-clinic-scheduler/internal/pkg/errs"
)

// Duration is the fixed length of every bookable slot.
const Duration = time.Hour

var (
	ErrInvalidSlot  = errors.New("invalid slot")
	ErrSlotExists   = errors.New("slot already present")
	ErrSlotNotFound = errors.New("slot not found")
)

const (
	FieldDateTime = "datetime"
	FieldVet      = "vet"
)

// Slot is a one-hour bookable unit identified by its start and the veterinarian.
type Slot struct {
	dateTime time.Time
	vet      string
}

func New(dateTime time.Time, vet string) Slot {
	// Round(0) drops the monotonic reading so that equal instants compare equal.
	return Slot{dateTime: dateTime.Round(0), vet: vet}
}

func (s Slot) DateTime() time.Time { return s.dateTime }
func (s Slot) Vet() string         { return s.vet }
func (s Slot) End() time.Time      { return s.dateTime.Add(Duration) }

// Validate gates every mutating operation on slots and appointments.
func (s Slot) Validate() error {
	if s.dateTime.IsZero() {
		return invalid(FieldDateTime, "slot date-time must be a full date and time")
	}
	if strings.TrimSpace(s.vet) == "" {
		return invalid(FieldVet, "slot vet must be a non-empty identity")
	}
	return nil
}

func (s Slot) IsValid() bool {
	return s.Validate() == nil
}

func (s Slot) Equal(other Slot) bool {
	return s.dateTime.Equal(other.dateTime) && s.vet == other.vet
}

// Compare orders by date-time first and vet second.
func (s Slot) Compare(other Slot) int {
	if c := s.dateTime.Compare(other.dateTime); c != 0 {
		return c
	}
	return strings.Compare(s.vet, other.vet)
}

// OnDate reports whether the slot starts on the calendar date of d, in the slot's own location.
func (s Slot) OnDate(d time.Time) bool {
	y1, m1, d1 := s.dateTime.Date()
	y2, m2, d2 := d.In(s.dateTime.Location()).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func (s Slot) String() string {
	return fmt.Sprintf("%s with %s", s.dateTime.Format("2006-01-02 15:04"), s.vet)
}

func (s Slot) key() key {
	return key{at: s.dateTime.UnixNano(), vet: s.vet}
}

type key struct {
	at  int64
	vet string
}

func invalid(field, msg string) error {
	return errs.Mark(errs.Newf("[%s]: %s", field, msg), ErrInvalidSlot)
}
