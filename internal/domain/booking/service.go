package booking

import (
	"log/slog"
	"time"

	"vet-clinic-scheduler/internal/domain/appointment"
	"vet-clinic-scheduler/internal/domain/schedule"
	"vet-clinic-scheduler/internal/domain/slot"
	"vet-clinic-scheduler/internal/pkg/errs"
)

// Service is the only place allowed to move a slot between available, reserved and booked.
// Every slot of a generated day is in exactly one of available or reserved; booked slots are
// reserved as well.
type Service struct {
	template *schedule.Template
	policy   HoldPolicy
	logger   *slog.Logger
}

func NewService(template *schedule.Template, policy HoldPolicy, logger *slog.Logger) *Service {
	if policy == "" {
		policy = HoldKeep
	}
	return &Service{
		template: template,
		policy:   policy,
		logger:   logger,
	}
}

func (s *Service) Template() *schedule.Template { return s.template }
func (s *Service) Policy() HoldPolicy           { return s.policy }

// CreateAppointment books a.Slot() for a.Customer(). The slot must currently be available.
// On failure st is returned untouched.
func (s *Service) CreateAppointment(st State, a appointment.Appointment) (State, error) {
	return s.book(st, a, ReasonBooking)
}

func (s *Service) book(st State, a appointment.Appointment, reason Reason) (State, error) {
	if err := a.Validate(); err != nil {
		s.logger.Warn("appointment not created: invalid appointment", "reason", reason, "error", err)
		return st, err
	}
	sl := a.Slot()
	if !st.Available.Contains(sl) {
		s.logger.Warn("appointment not created: slot is reserved or unavailable", "reason", reason, "slot", sl.String())
		return st, errs.Wrapf(ErrSlotUnavailable, "slot %s", sl)
	}
	if holder, ok := st.Appointments.BySlot(sl); ok {
		s.logger.Warn("appointment not created: slot already bound", "slot", sl.String(), "holder", holder.Customer())
		return st, errs.Wrapf(ErrSlotUnavailable, "slot %s", sl)
	}
	if st.Appointments.Exists(a) {
		return st, errs.Wrapf(ErrDuplicateAppointment, "%s", a)
	}

	next := st.Clone()
	appointments, err := next.Appointments.Add(a)
	if err != nil {
		return st, err
	}
	next.Appointments = appointments
	next = s.reserve(next, sl, reason)

	s.logger.Info("appointment created", "reason", reason, "customer", a.Customer(), "slot", sl.String())
	return next, nil
}

// reserve moves sl from available to reserved on an already cloned state.
func (s *Service) reserve(next State, sl slot.Slot, reason Reason) State {
	_ = next.Available.Remove(sl)
	if err := next.Reserved.Add(sl); err != nil {
		s.logger.Warn("slot was already reserved", "reason", reason, "slot", sl.String(), "error", err)
	}
	return next
}

// release returns sl to available when the template still offers it.
func (s *Service) release(next State, sl slot.Slot) State {
	_ = next.Reserved.Remove(sl)
	if !s.template.ExpandForVet(sl.Vet(), sl.DateTime()).Contains(sl) {
		s.logger.Warn("released slot is no longer offered, not making it available", "slot", sl.String())
		return next
	}
	if err := next.Available.Add(sl); err != nil {
		s.logger.Warn("released slot already available", "slot", sl.String(), "error", err)
	}
	return next
}

// AvailableSlotsForVet lists vet's free slots on dateTime's calendar date. It never returns a
// member of reserved.
func (s *Service) AvailableSlotsForVet(vet string, dateTime time.Time, reserved slot.Set) slot.Set {
	if !s.template.IsKnownVet(vet) {
		s.logger.Warn("unknown veterinarian", "vet", vet)
		return slot.NewSet()
	}
	day := s.template.ExpandForAllVets(dateTime)
	free := slot.Difference(slot.Intersection(day.ByVet(vet), day.OnDate(dateTime)), reserved)
	s.logger.Debug("available slots for vet", "vet", vet, "date", dateTime.Format(time.DateOnly), "count", free.Len())
	return free
}

// ReserveEmergencySlot books an emergency appointment after checking, in order, that the vet has
// a schedule, that dateTime is an offered start, that the slot is not already reserved and that
// the vet works then. The four failures are marked with ErrBookingPrecondition.
func (s *Service) ReserveEmergencySlot(st State, customer string, dateTime time.Time, vet string) (State, error) {
	if !s.template.IsKnownVet(vet) || !s.template.HasSchedule(vet) {
		s.logger.Warn("emergency reservation refused: vet unavailable", "vet", vet)
		return st, precondition(ErrVetUnavailable, "%s", vet)
	}
	if !s.template.Offers(dateTime) {
		s.logger.Warn("emergency reservation refused: time not offered", "date_time", dateTime)
		return st, precondition(ErrSlotNotOffered, "%s", dateTime.Format(time.DateTime))
	}
	sl := slot.New(dateTime, vet)
	if st.Reserved.Contains(sl) {
		s.logger.Warn("emergency reservation refused: already reserved", "slot", sl.String())
		return st, precondition(ErrAlreadyReserved, "slot %s", sl)
	}
	if !s.template.ExpandForVet(vet, dateTime).Contains(sl) {
		s.logger.Warn("emergency reservation refused: vet not working", "slot", sl.String())
		return st, precondition(ErrNoIntersection, "slot %s", sl)
	}

	s.logger.Debug("creating emergency reservation", "slot", sl.String())
	return s.book(st, appointment.New(customer, sl), ReasonEmergency)
}

// CancelAppointment removes a and hands its slot back to available.
func (s *Service) CancelAppointment(st State, a appointment.Appointment) (State, error) {
	if err := a.Validate(); err != nil {
		s.logger.Warn("appointment not cancelled: invalid appointment", "error", err)
		return st, err
	}
	if !st.Appointments.Exists(a) {
		s.logger.Warn("appointment not cancelled: not found", "appointment", a.String())
		return st, errs.Wrapf(appointment.ErrAppointmentNotFound, "%s", a)
	}

	next := st.Clone()
	appointments, err := next.Appointments.Remove(a)
	if err != nil {
		return st, err
	}
	next.Appointments = appointments
	if _, stillBound := next.Appointments.BySlot(a.Slot()); !stillBound {
		next = s.release(next, a.Slot())
	}

	s.logger.Info("appointment cancelled", "appointment", a.String())
	return next, nil
}

// ReplaceAppointment swaps old for updated in one step: every check runs before anything
// changes, so there is no moment where neither appointment exists.
func (s *Service) ReplaceAppointment(st State, old, updated appointment.Appointment) (State, error) {
	if err := old.Validate(); err != nil {
		s.logger.Warn("appointment not updated: invalid current appointment", "error", err)
		return st, err
	}
	if err := updated.Validate(); err != nil {
		s.logger.Warn("appointment not updated: invalid new appointment", "error", err)
		return st, err
	}
	if !st.Appointments.Exists(old) {
		s.logger.Warn("appointment not updated: current appointment not found", "appointment", old.String())
		return st, errs.Wrapf(appointment.ErrAppointmentNotFound, "%s", old)
	}
	if old.Equal(updated) {
		return st, nil
	}
	if st.Appointments.Exists(updated) {
		return st, errs.Wrapf(ErrDuplicateAppointment, "%s", updated)
	}

	sameSlot := old.Slot().Equal(updated.Slot())
	if !sameSlot && !st.Available.Contains(updated.Slot()) {
		s.logger.Warn("appointment not updated: new slot unavailable", "slot", updated.Slot().String())
		return st, errs.Wrapf(ErrSlotUnavailable, "slot %s", updated.Slot())
	}

	next := st.Clone()
	appointments, err := next.Appointments.Update(old, updated)
	if err != nil {
		return st, err
	}
	next.Appointments = appointments
	if !sameSlot {
		next = s.reserve(next, updated.Slot(), ReasonBooking)
		next = s.release(next, old.Slot())
	}

	s.logger.Info("appointment updated", "old", old.String(), "new", updated.String())
	return next, nil
}

// HoldSlot withholds an available slot from booking without binding it to a customer.
func (s *Service) HoldSlot(st State, sl slot.Slot, reason Reason) (State, error) {
	if err := sl.Validate(); err != nil {
		s.logger.Warn("slot not held: invalid slot", "error", err)
		return st, err
	}
	if !st.Available.Contains(sl) {
		s.logger.Warn("slot not held: not available", "slot", sl.String())
		return st, errs.Wrapf(ErrSlotUnavailable, "slot %s", sl)
	}
	next := s.reserve(st.Clone(), sl, reason)
	s.logger.Info("slot held", "reason", reason, "slot", sl.String())
	return next, nil
}

// ReleaseHold returns an unbound reserved slot to available. Only allowed under HoldRelease.
func (s *Service) ReleaseHold(st State, sl slot.Slot) (State, error) {
	if s.policy != HoldRelease {
		s.logger.Warn("hold not released: policy keeps holds", "slot", sl.String(), "policy", s.policy)
		return st, ErrHoldsNotReleasable
	}
	if err := sl.Validate(); err != nil {
		return st, err
	}
	if !st.Reserved.Contains(sl) {
		return st, errs.Wrapf(ErrNotReserved, "slot %s", sl)
	}
	if holder, ok := st.Appointments.BySlot(sl); ok {
		s.logger.Warn("hold not released: slot is booked", "slot", sl.String(), "holder", holder.Customer())
		return st, errs.Wrapf(ErrHoldBound, "slot %s", sl)
	}
	next := s.release(st.Clone(), sl)
	s.logger.Info("hold released", "slot", sl.String())
	return next, nil
}

// OpenDay makes every generated slot of date that is neither reserved nor booked available.
func (s *Service) OpenDay(st State, date time.Time) State {
	generated := s.template.ExpandForAllVets(date)
	fresh := slot.Difference(generated, st.Reserved, st.Booked(), st.Available)
	if fresh.IsEmpty() {
		return st
	}
	next := st.Clone()
	next.Available = slot.Union(next.Available, fresh)
	s.logger.Debug("opened day", "date", date.Format(time.DateOnly), "new_slots", fresh.Len())
	return next
}

// Inspect compares the collections for date against the template without changing anything.
func (s *Service) Inspect(st State, date time.Time) Report {
	generated := s.template.ExpandForAllVets(date)
	booked := st.Booked()
	taken := slot.Union(st.Reserved, booked)
	availableOnDate := st.Available.OnDate(date)
	unknown := s.unknownVets(booked.OnDate(date))

	report := Report{
		Date:                 date,
		MissingFromAvailable: slot.Difference(generated, taken, st.Available).Slots(),
		StaleAvailable:       slot.Intersection(availableOnDate, taken).Slots(),
		UnofferedAvailable:   slot.Difference(availableOnDate, generated).Slots(),
		BookedNotReserved:    slot.Difference(booked.OnDate(date), st.Reserved, unknown).Slots(),
		UnknownVet:           unknown.Slots(),
	}

	type slotKey struct {
		at  int64
		vet string
	}
	counts := make(map[slotKey]int)
	seen := make(map[slotKey]slot.Slot)
	for _, a := range st.Appointments {
		if !a.Slot().OnDate(date) {
			continue
		}
		k := slotKey{at: a.DateTime().UnixNano(), vet: a.Vet()}
		counts[k]++
		seen[k] = a.Slot()
	}
	doubles := slot.NewSet()
	for k, n := range counts {
		if n > 1 {
			_ = doubles.Add(seen[k])
		}
	}
	report.DoubleBooked = doubles.Slots()
	return report
}

// Reconcile treats available as a cache: for date it is recomputed as the generated slots
// minus reserved and booked ones. Booked slots missing from reserved are reserved first, except
// those of vets missing from the roster. Double bookings and unknown vets are only reported.
func (s *Service) Reconcile(st State, date time.Time) (State, Report) {
	report := s.Inspect(st, date)
	if report.Consistent() {
		return st, report
	}

	next := st.Clone()
	booked := next.Booked()
	bookedOnDate := booked.OnDate(date)
	next.Reserved = slot.Union(next.Reserved, slot.Difference(bookedOnDate, s.unknownVets(bookedOnDate)))

	generated := s.template.ExpandForAllVets(date)
	dayAvailable := slot.Difference(generated, next.Reserved, booked)
	next.Available = slot.Union(slot.Difference(next.Available, next.Available.OnDate(date)), dayAvailable)

	s.logger.Warn("reconciled slot collections",
		"date", date.Format(time.DateOnly),
		"missing_from_available", len(report.MissingFromAvailable),
		"stale_available", len(report.StaleAvailable),
		"unoffered_available", len(report.UnofferedAvailable),
		"booked_not_reserved", len(report.BookedNotReserved),
		"double_booked", len(report.DoubleBooked),
		"unknown_vet", len(report.UnknownVet),
	)
	return next, report
}

func (s *Service) unknownVets(set slot.Set) slot.Set {
	return set.Filter(func(sl slot.Slot) bool { return !s.template.IsKnownVet(sl.Vet()) })
}

// ReconcileAll runs Reconcile for every date present in st.
func (s *Service) ReconcileAll(st State) (State, []Report) {
	var reports []Report
	for _, date := range st.Dates() {
		var r Report
		st, r = s.Reconcile(st, date)
		if !r.Consistent() {
			reports = append(reports, r)
		}
	}
	return st, reports
}
