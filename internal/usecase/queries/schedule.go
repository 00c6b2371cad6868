package queries

import (
	"context"
	"strings"
	"time"

	"vet-clinic-scheduler/internal/domain/appointment"
	"vet-clinic-scheduler/internal/domain/booking"
	"vet-clinic-scheduler/internal/domain/schedule"
	"vet-clinic-scheduler/internal/domain/slot"
	"vet-clinic-scheduler/internal/pkg/errs"
	"vet-clinic-scheduler/internal/usecase/shared"
)

var ErrUnknownDay = errs.New("neither a weekday name nor a YYYY-MM-DD date")

type ScheduleQueries interface {
	Veterinarians() []VetView
	VetWorkdays(keyOrName string) (*VetView, error)
	DaySchedule(dayOrDate string) (*DayScheduleView, error)
	AvailableSlots(ctx context.Context, vet string, date time.Time) ([]SlotView, error)
	AppointmentStatus(ctx context.Context, customer, vet string, dateTime time.Time) (*AppointmentStatusView, error)
	CustomerAppointments(ctx context.Context, customer string) ([]AppointmentStatusView, error)
}

type scheduleQueriesImpl struct {
	uow      shared.UnitOfWork
	service  *booking.Service
	template *schedule.Template
	loc      *time.Location
}

func NewScheduleQueries(uow shared.UnitOfWork, service *booking.Service, loc *time.Location) ScheduleQueries {
	return &scheduleQueriesImpl{
		uow:      uow,
		service:  service,
		template: service.Template(),
		loc:      loc,
	}
}

func (q *scheduleQueriesImpl) Veterinarians() []VetView {
	roster := q.template.Roster()
	out := make([]VetView, 0, len(roster))
	for _, v := range roster {
		out = append(out, q.vetView(v))
	}
	return out
}

func (q *scheduleQueriesImpl) VetWorkdays(keyOrName string) (*VetView, error) {
	v, err := q.template.LookupVet(keyOrName)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainRejected)
	}
	view := q.vetView(v)
	return &view, nil
}

// DaySchedule accepts a weekday name ("monday") or a calendar date ("2025-03-10").
func (q *scheduleQueriesImpl) DaySchedule(dayOrDate string) (*DayScheduleView, error) {
	if wd, err := schedule.ParseWeekday(dayOrDate); err == nil {
		return q.weekdayView(wd), nil
	}
	date, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(dayOrDate), q.loc)
	if err != nil {
		return nil, errs.Mark(errs.Wrapf(ErrUnknownDay, "%q", dayOrDate), errs.ErrDomainRejected)
	}

	view := q.weekdayView(date.Weekday())
	view.Date = &date
	day := q.template.ExpandDay(date)
	for _, start := range day.Starts {
		view.Starts = append(view.Starts, start.Format("15:04"))
	}
	return view, nil
}

func (q *scheduleQueriesImpl) weekdayView(wd time.Weekday) *DayScheduleView {
	shifts := q.template.Shifts(wd)
	view := &DayScheduleView{
		Weekday:       wd.String(),
		Closed:        shifts.Closed,
		Notice:        shifts.Notice,
		Shifts:        shifts.Shifts,
		Veterinarians: []string{},
	}
	if shifts.Closed {
		return view
	}
	for _, v := range q.template.Roster() {
		if q.template.WorksOn(v.Name, wd) {
			view.Veterinarians = append(view.Veterinarians, v.Name)
		}
	}
	return view
}

func (q *scheduleQueriesImpl) AvailableSlots(ctx context.Context, vet string, date time.Time) ([]SlotView, error) {
	v, err := q.template.LookupVet(vet)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainRejected)
	}

	var out []SlotView
	err = q.uow.Read(ctx, func(_ context.Context, st booking.State) error {
		taken := slot.Union(st.Reserved, st.Booked())
		for _, sl := range q.service.AvailableSlotsForVet(v.Name, date.In(q.loc), taken).Slots() {
			out = append(out, SlotView{DateTime: sl.DateTime(), Vet: sl.Vet()})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (q *scheduleQueriesImpl) AppointmentStatus(ctx context.Context, customer, vet string, dateTime time.Time) (*AppointmentStatusView, error) {
	v, err := q.template.LookupVet(vet)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainRejected)
	}
	a := appointment.New(customer, slot.New(dateTime.In(q.loc), v.Name))
	if err := a.Validate(); err != nil {
		return nil, errs.Mark(err, errs.ErrDomainRejected)
	}

	view := &AppointmentStatusView{
		Customer: customer,
		Vet:      v.Name,
		DateTime: a.DateTime(),
	}
	err = q.uow.Read(ctx, func(_ context.Context, st booking.State) error {
		view.Booked = st.Appointments.Exists(a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (q *scheduleQueriesImpl) CustomerAppointments(ctx context.Context, customer string) ([]AppointmentStatusView, error) {
	var out []AppointmentStatusView
	err := q.uow.Read(ctx, func(_ context.Context, st booking.State) error {
		for _, a := range st.Appointments.ByCustomer(customer) {
			out = append(out, AppointmentStatusView{
				Customer: a.Customer(),
				Vet:      a.Vet(),
				DateTime: a.DateTime(),
				Booked:   true,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (q *scheduleQueriesImpl) vetView(v schedule.Vet) VetView {
	days := q.template.Workdays(v.Name)
	names := make([]string, 0, len(days))
	for _, wd := range days {
		names = append(names, wd.String())
	}
	return VetView{Key: v.Key, Name: v.Name, Workdays: names}
}
