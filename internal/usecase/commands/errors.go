package commands

import (
	"context"
	"errors"

	"vet-clinic-scheduler/internal/domain/appointment"
	"vet-clinic-scheduler/internal/domain/booking"
	"vet-clinic-scheduler/internal/domain/schedule"
	"vet-clinic-scheduler/internal/domain/slot"
	"vet-clinic-scheduler/internal/pkg/errs"
)

var ErrIncompleteRequest = errors.New("request is missing required fields")

var hints = []struct {
	err  error
	hint string
}{
	{ErrIncompleteRequest, "give the customer, the veterinarian and the date and time"},
	{slot.ErrInvalidSlot, "give a full date and time and a veterinarian"},
	{appointment.ErrInvalidCustomer, "give the customer's name"},
	{schedule.ErrUnknownVet, "choose one of the veterinarians on the roster"},
	{booking.ErrSlotUnavailable, "pick a slot from the list of available slots"},
	{booking.ErrDuplicateAppointment, "the customer already holds this appointment"},
	{appointment.ErrAppointmentNotFound, "check the customer, veterinarian and date-time of the appointment"},
	{booking.ErrVetUnavailable, "the veterinarian has no working days"},
	{booking.ErrSlotNotOffered, "emergency slots start on the hour within opening hours"},
	{booking.ErrAlreadyReserved, "that slot is already taken, try another time"},
	{booking.ErrNoIntersection, "the veterinarian does not work on that day"},
	{booking.ErrHoldsNotReleasable, "set HOLD_RELEASE_POLICY=release to allow releasing held slots"},
	{booking.ErrHoldBound, "cancel the appointment instead"},
	{booking.ErrNotReserved, "the slot is not held"},
}

// reject marks a failure that left the stored state untouched with errs.ErrDomainRejected and
// attaches a hint for the known domain causes. Persistence failures pass through unchanged.
func reject(err error) error {
	if err == nil {
		return nil
	}
	if errs.Is(err, errs.ErrPersistenceFailed) || errs.Is(err, errs.ErrDomainRejected) {
		return err
	}
	if errs.Is(err, context.Canceled) || errs.Is(err, context.DeadlineExceeded) {
		return errs.Mark(err, errs.ErrDomainRejected)
	}
	for _, h := range hints {
		if errs.Is(err, h.err) {
			err = errs.WithHint(err, h.hint)
			break
		}
	}
	return errs.Mark(err, errs.ErrDomainRejected)
}

// Failure is what the shell shows the user for a failed command.
type Failure struct {
	// Durability is set when a change may not have been recorded on disk.
	Durability bool
	Message    string
	Hints      []string
}

func Describe(err error) Failure {
	if err == nil {
		return Failure{}
	}
	switch {
	case errs.Is(err, errs.ErrPersistenceFailed):
		return Failure{
			Durability: true,
			Message:    "The clinic records could not be saved, so this change may not have been recorded: " + err.Error(),
			Hints:      errs.Hints(err),
		}
	case errs.Is(err, booking.ErrBookingPrecondition):
		return Failure{
			Message: "Nothing happened, the emergency reservation was refused: " + err.Error(),
			Hints:   errs.Hints(err),
		}
	case errs.Is(err, errs.ErrDomainRejected):
		return Failure{
			Message: "Nothing happened: " + err.Error(),
			Hints:   errs.Hints(err),
		}
	default:
		return Failure{
			Message: "Nothing happened, unexpected error: " + err.Error(),
			Hints:   errs.Hints(err),
		}
	}
}
