package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"vet-clinic-scheduler/internal/domain/appointment"
	"vet-clinic-scheduler/internal/domain/booking"
	"vet-clinic-scheduler/internal/domain/slot"
	"vet-clinic-scheduler/internal/pkg/errs"
	"vet-clinic-scheduler/internal/usecase/shared"

	"github.com/go-playground/validator/v10"
)

type BookRequest struct {
	Customer string    `validate:"required"`
	Vet      string    `validate:"required"` // roster letter or display name
	DateTime time.Time `validate:"required"`
}

type CancelRequest struct {
	Customer string    `validate:"required"`
	Vet      string    `validate:"required"`
	DateTime time.Time `validate:"required"`
}

type RescheduleRequest struct {
	Customer string    `validate:"required"`
	Vet      string    `validate:"required"`
	From     time.Time `validate:"required"`
	// ToVet defaults to Vet when empty
	ToVet string
	To    time.Time `validate:"required"`
}

type HoldRequest struct {
	Vet      string    `validate:"required"`
	DateTime time.Time `validate:"required"`
}

type AppointmentCommands interface {
	Book(ctx context.Context, req BookRequest) (appointment.Appointment, error)
	Cancel(ctx context.Context, req CancelRequest) error
	Reschedule(ctx context.Context, req RescheduleRequest) (appointment.Appointment, error)
	ReserveEmergency(ctx context.Context, req BookRequest) (appointment.Appointment, error)
	HoldSlot(ctx context.Context, req HoldRequest) error
	ReleaseHold(ctx context.Context, req HoldRequest) error
	OpenDay(ctx context.Context, date time.Time) (int, error)
	Reconcile(ctx context.Context, dates ...time.Time) ([]booking.Report, error)
}

type appointmentCommandsImpl struct {
	uow       shared.UnitOfWork
	service   *booking.Service
	validator *validator.Validate
	loc       *time.Location
	logger    *slog.Logger
}

// NewAppointmentCommands evaluates every request time in loc, the clinic's location.
func NewAppointmentCommands(uow shared.UnitOfWork, service *booking.Service, loc *time.Location, logger *slog.Logger) AppointmentCommands {
	return &appointmentCommandsImpl{
		uow:       uow,
		service:   service,
		validator: validator.New(),
		loc:       loc,
		logger:    logger,
	}
}

func (c *appointmentCommandsImpl) validate(req any) error {
	err := c.validator.Struct(req)
	if err == nil {
		return nil
	}
	var fields []string
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
	}
	return errs.Mark(errs.Newf("missing %s", strings.Join(fields, ", ")), ErrIncompleteRequest)
}

func (c *appointmentCommandsImpl) Book(ctx context.Context, req BookRequest) (appointment.Appointment, error) {
	if err := c.validate(req); err != nil {
		return appointment.Appointment{}, reject(err)
	}
	sl, err := c.resolveSlot(req.Vet, req.DateTime)
	if err != nil {
		return appointment.Appointment{}, reject(err)
	}
	a := appointment.New(req.Customer, sl)

	err = c.uow.Within(ctx, func(_ context.Context, st booking.State) (booking.State, error) {
		st = c.service.OpenDay(st, sl.DateTime())
		return c.service.CreateAppointment(st, a)
	})
	if err != nil {
		return appointment.Appointment{}, reject(err)
	}
	return a, nil
}

func (c *appointmentCommandsImpl) Cancel(ctx context.Context, req CancelRequest) error {
	if err := c.validate(req); err != nil {
		return reject(err)
	}
	sl, err := c.resolveSlot(req.Vet, req.DateTime)
	if err != nil {
		return reject(err)
	}
	a := appointment.New(req.Customer, sl)

	err = c.uow.Within(ctx, func(_ context.Context, st booking.State) (booking.State, error) {
		return c.service.CancelAppointment(st, a)
	})
	return reject(err)
}

func (c *appointmentCommandsImpl) Reschedule(ctx context.Context, req RescheduleRequest) (appointment.Appointment, error) {
	if err := c.validate(req); err != nil {
		return appointment.Appointment{}, reject(err)
	}
	from, err := c.resolveSlot(req.Vet, req.From)
	if err != nil {
		return appointment.Appointment{}, reject(err)
	}
	toVet := req.ToVet
	if toVet == "" {
		toVet = req.Vet
	}
	to, err := c.resolveSlot(toVet, req.To)
	if err != nil {
		return appointment.Appointment{}, reject(err)
	}
	old := appointment.New(req.Customer, from)
	updated := appointment.New(req.Customer, to)

	err = c.uow.Within(ctx, func(_ context.Context, st booking.State) (booking.State, error) {
		st = c.service.OpenDay(st, to.DateTime())
		return c.service.ReplaceAppointment(st, old, updated)
	})
	if err != nil {
		return appointment.Appointment{}, reject(err)
	}
	return updated, nil
}

func (c *appointmentCommandsImpl) ReserveEmergency(ctx context.Context, req BookRequest) (appointment.Appointment, error) {
	if err := c.validate(req); err != nil {
		return appointment.Appointment{}, reject(err)
	}
	// unknown vets fall through to the service so they surface as ErrVetUnavailable
	vetName := req.Vet
	if v, err := c.service.Template().LookupVet(req.Vet); err == nil {
		vetName = v.Name
	}
	at := req.DateTime.In(c.loc)

	err := c.uow.Within(ctx, func(_ context.Context, st booking.State) (booking.State, error) {
		st = c.service.OpenDay(st, at)
		return c.service.ReserveEmergencySlot(st, req.Customer, at, vetName)
	})
	if err != nil {
		return appointment.Appointment{}, reject(err)
	}
	return appointment.New(req.Customer, slot.New(at, vetName)), nil
}

func (c *appointmentCommandsImpl) HoldSlot(ctx context.Context, req HoldRequest) error {
	if err := c.validate(req); err != nil {
		return reject(err)
	}
	sl, err := c.resolveSlot(req.Vet, req.DateTime)
	if err != nil {
		return reject(err)
	}
	err = c.uow.Within(ctx, func(_ context.Context, st booking.State) (booking.State, error) {
		st = c.service.OpenDay(st, sl.DateTime())
		return c.service.HoldSlot(st, sl, booking.ReasonHold)
	})
	return reject(err)
}

func (c *appointmentCommandsImpl) ReleaseHold(ctx context.Context, req HoldRequest) error {
	if err := c.validate(req); err != nil {
		return reject(err)
	}
	sl, err := c.resolveSlot(req.Vet, req.DateTime)
	if err != nil {
		return reject(err)
	}
	err = c.uow.Within(ctx, func(_ context.Context, st booking.State) (booking.State, error) {
		return c.service.ReleaseHold(st, sl)
	})
	return reject(err)
}

// OpenDay returns how many slots became available.
func (c *appointmentCommandsImpl) OpenDay(ctx context.Context, date time.Time) (int, error) {
	var opened int
	date = date.In(c.loc)
	err := c.uow.Within(ctx, func(_ context.Context, st booking.State) (booking.State, error) {
		next := c.service.OpenDay(st, date)
		opened = next.Available.Len() - st.Available.Len()
		return next, nil
	})
	if err != nil {
		return 0, reject(err)
	}
	return opened, nil
}

// Reconcile repairs the given dates, or every date found in the stored state when none are
// given, and returns the reports of the dates that needed repair.
func (c *appointmentCommandsImpl) Reconcile(ctx context.Context, dates ...time.Time) ([]booking.Report, error) {
	var reports []booking.Report
	err := c.uow.Within(ctx, func(_ context.Context, st booking.State) (booking.State, error) {
		if len(dates) == 0 {
			var next booking.State
			next, reports = c.service.ReconcileAll(st)
			return next, nil
		}
		for _, d := range dates {
			var r booking.Report
			st, r = c.service.Reconcile(st, d.In(c.loc))
			if !r.Consistent() {
				reports = append(reports, r)
			}
		}
		return st, nil
	})
	if err != nil {
		return nil, reject(err)
	}
	if len(reports) > 0 {
		c.logger.Warn("state needed repair", "dates", len(reports))
	}
	return reports, nil
}

func (c *appointmentCommandsImpl) resolveSlot(vet string, at time.Time) (slot.Slot, error) {
	v, err := c.service.Template().LookupVet(vet)
	if err != nil {
		return slot.Slot{}, err
	}
	sl := slot.New(at.In(c.loc), v.Name)
	if err := sl.Validate(); err != nil {
		return slot.Slot{}, err
	}
	return sl, nil
}
