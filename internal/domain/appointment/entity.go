package appointment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"vet-clinic-scheduler/internal/domain/slot"
	"vet-clinic-scheduler/internal/pkg/errs"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrInvalidCustomer     = errors.New("invalid customer")
)

// Appointment binds a customer to a slot. Two appointments are the same when both the
// customer and the slot match.
type Appointment struct {
	customer string
	slot     slot.Slot
}

func New(customer string, s slot.Slot) Appointment {
	return Appointment{customer: customer, slot: s}
}

func (a Appointment) Customer() string    { return a.customer }
func (a Appointment) Slot() slot.Slot     { return a.slot }
func (a Appointment) Vet() string         { return a.slot.Vet() }
func (a Appointment) DateTime() time.Time { return a.slot.DateTime() }

func (a Appointment) Equal(o Appointment) bool {
	return a.customer == o.customer && a.slot.Equal(o.slot)
}

func (a Appointment) Validate() error {
	if err := a.slot.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(a.customer) == "" {
		return errs.Mark(errs.New("[customer]: customer must be a non-empty identity"), ErrInvalidCustomer)
	}
	return nil
}

func (a Appointment) String() string {
	return fmt.Sprintf("%s on %s", a.customer, a.slot)
}
