//go:build unit

package booking_test

import (
	"testing"
	"time"

	"vet-clinic-scheduler/internal/domain/appointment"
	"vet-clinic-scheduler/internal/domain/booking"
	"vet-clinic-scheduler/internal/domain/schedule"
	"vet-clinic-scheduler/internal/domain/slot"
	"vet-clinic-scheduler/internal/pkg/errs"
	"vet-clinic-scheduler/internal/pkg/logger"
	"vet-clinic-scheduler/tests/common/builder"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, policy booking.HoldPolicy) *booking.Service {
	t.Helper()
	tmpl, err := schedule.NewTemplate(schedule.DefaultDefinition())
	require.NoError(t, err)
	return booking.NewService(tmpl, policy, logger.Discard())
}

// openMonday returns a state whose available set holds every generated Monday slot.
func openMonday(svc *booking.Service) booking.State {
	return svc.OpenDay(booking.NewState(), builder.Monday)
}

func requireUnchanged(t *testing.T, want, got booking.State) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("state changed (-want +got):\n%s", diff)
	}
}

func TestCreateAppointment(t *testing.T) {
	svc := newService(t, booking.HoldKeep)

	t.Run("booked slot moves from available to reserved", func(t *testing.T) {
		st := openMonday(svc)
		before := st.Clone()
		a := builder.NewAppointmentBuilder().BuildDomain()

		next, err := svc.CreateAppointment(st, a)

		require.NoError(t, err)
		assert.False(t, next.Available.Contains(a.Slot()))
		assert.True(t, next.Reserved.Contains(a.Slot()))
		assert.True(t, next.Appointments.Exists(a))
		assert.Equal(t, before.Available.Len()-1, next.Available.Len())
		requireUnchanged(t, before, st)
	})

	t.Run("same customer and slot twice fails with slot unavailable", func(t *testing.T) {
		a := builder.NewAppointmentBuilder().BuildDomain()
		st, err := svc.CreateAppointment(openMonday(svc), a)
		require.NoError(t, err)
		before := st.Clone()

		got, err := svc.CreateAppointment(st, a)

		assert.True(t, errs.Is(err, booking.ErrSlotUnavailable), err)
		requireUnchanged(t, before, got)
		requireUnchanged(t, before, st)
	})

	t.Run("slot not in available", func(t *testing.T) {
		st := booking.NewState()
		a := builder.NewAppointmentBuilder().BuildDomain()

		got, err := svc.CreateAppointment(st, a)

		assert.True(t, errs.Is(err, booking.ErrSlotUnavailable))
		requireUnchanged(t, booking.NewState(), got)
	})

	t.Run("invalid appointment", func(t *testing.T) {
		st := openMonday(svc)
		before := st.Clone()

		_, err := svc.CreateAppointment(st, builder.NewAppointmentBuilder().WithCustomer("").BuildDomain())
		assert.True(t, errs.Is(err, appointment.ErrInvalidCustomer))

		_, err = svc.CreateAppointment(st, builder.NewAppointmentBuilder().WithDateTime(time.Time{}).BuildDomain())
		assert.True(t, errs.Is(err, slot.ErrInvalidSlot))
		requireUnchanged(t, before, st)
	})

	t.Run("slot held by someone else even if still listed available", func(t *testing.T) {
		jane := builder.NewAppointmentBuilder().BuildDomain()
		st := openMonday(svc)
		st.Appointments = appointment.List{jane}

		_, err := svc.CreateAppointment(st, builder.NewAppointmentBuilder().WithCustomer("John Roe").BuildDomain())
		assert.True(t, errs.Is(err, booking.ErrSlotUnavailable))
	})
}

func TestAvailableSlotsForVet(t *testing.T) {
	svc := newService(t, booking.HoldKeep)
	reserved := slot.NewSet(
		slot.New(builder.At(builder.Monday, 9), "Dr. Arron"),
		slot.New(builder.At(builder.Monday, 10), "Dr. Kalyen"),
	)

	got := svc.AvailableSlotsForVet("Dr. Arron", builder.At(builder.Monday, 12), reserved)

	assert.Equal(t, 6, got.Len())
	assert.True(t, slot.Intersection(got, reserved).IsEmpty())
	assert.True(t, got.ByVet("Dr. Arron").Equal(got))
	assert.True(t, got.OnDate(builder.Monday).Equal(got))

	assert.True(t, svc.AvailableSlotsForVet("Dr. Beth", builder.Monday, reserved).IsEmpty())
	assert.True(t, svc.AvailableSlotsForVet("Dr. Nobody", builder.Monday, reserved).IsEmpty())
	assert.True(t, svc.AvailableSlotsForVet("Dr. Arron", builder.Sunday, reserved).IsEmpty())
}

func TestReserveEmergencySlot(t *testing.T) {
	svc := newService(t, booking.HoldKeep)

	tests := []struct {
		name  string
		at    time.Time
		vet   string
		setup func(booking.State) booking.State
		errIs error
	}{
		{
			name: "bookable emergency",
			at:   builder.At(builder.Monday, 14),
			vet:  "Dr. Kalyen",
		},
		{
			name:  "vet without schedule",
			at:    builder.At(builder.Monday, 14),
			vet:   "Dr. Nobody",
			errIs: booking.ErrVetUnavailable,
		},
		{
			name:  "time not offered",
			at:    builder.At(builder.Monday, 13),
			vet:   "Dr. Kalyen",
			errIs: booking.ErrSlotNotOffered,
		},
		{
			name:  "closed day is not offered",
			at:    builder.At(builder.Sunday, 10),
			vet:   "Dr. Kalyen",
			errIs: booking.ErrSlotNotOffered,
		},
		{
			name: "already reserved",
			at:   builder.At(builder.Monday, 14),
			vet:  "Dr. Kalyen",
			setup: func(st booking.State) booking.State {
				next, err := svc.HoldSlot(st, slot.New(builder.At(builder.Monday, 14), "Dr. Kalyen"), booking.ReasonHold)
				require.NoError(t, err)
				return next
			},
			errIs: booking.ErrAlreadyReserved,
		},
		{
			name:  "vet does not work that day",
			at:    builder.At(builder.Monday, 14),
			vet:   "Dr. Beth",
			errIs: booking.ErrNoIntersection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := openMonday(svc)
			if tt.setup != nil {
				st = tt.setup(st)
			}
			before := st.Clone()

			next, err := svc.ReserveEmergencySlot(st, "Rex's owner", tt.at, tt.vet)

			if tt.errIs == nil {
				require.NoError(t, err)
				sl := slot.New(tt.at, tt.vet)
				assert.True(t, next.Reserved.Contains(sl))
				assert.False(t, next.Available.Contains(sl))
				assert.True(t, next.Appointments.Exists(appointment.New("Rex's owner", sl)))
				return
			}
			require.Error(t, err)
			assert.True(t, errs.Is(err, tt.errIs), err.Error())
			assert.True(t, errs.Is(err, booking.ErrBookingPrecondition))
			requireUnchanged(t, before, next)
		})
	}

	t.Run("precondition errors are distinguishable", func(t *testing.T) {
		_, err := svc.ReserveEmergencySlot(openMonday(svc), "x", builder.At(builder.Monday, 13), "Dr. Kalyen")
		require.Error(t, err)
		assert.False(t, errs.Is(err, booking.ErrVetUnavailable))
		assert.False(t, errs.Is(err, booking.ErrAlreadyReserved))
		assert.False(t, errs.Is(err, booking.ErrNoIntersection))
	})
}

func TestCancelAppointment(t *testing.T) {
	svc := newService(t, booking.HoldKeep)
	a := builder.NewAppointmentBuilder().BuildDomain()

	t.Run("cancelled slot becomes available again", func(t *testing.T) {
		st, err := svc.CreateAppointment(openMonday(svc), a)
		require.NoError(t, err)

		next, err := svc.CancelAppointment(st, a)

		require.NoError(t, err)
		assert.False(t, next.Appointments.Exists(a))
		assert.True(t, next.Available.Contains(a.Slot()))
		assert.False(t, next.Reserved.Contains(a.Slot()))
		requireUnchanged(t, openMonday(svc), next)
	})

	t.Run("unknown appointment", func(t *testing.T) {
		st := openMonday(svc)
		got, err := svc.CancelAppointment(st, a)
		assert.True(t, errs.Is(err, appointment.ErrAppointmentNotFound))
		requireUnchanged(t, st, got)
	})
}

func TestReplaceAppointment(t *testing.T) {
	svc := newService(t, booking.HoldKeep)
	old := builder.NewAppointmentBuilder().BuildDomain()
	moved := builder.NewAppointmentBuilder().WithVet("Dr. Kalyen").WithDateTime(builder.At(builder.Monday, 15)).BuildDomain()

	booked := func(t *testing.T) booking.State {
		st, err := svc.CreateAppointment(openMonday(svc), old)
		require.NoError(t, err)
		return st
	}

	t.Run("moves the appointment and both slots in one step", func(t *testing.T) {
		st := booked(t)

		next, err := svc.ReplaceAppointment(st, old, moved)

		require.NoError(t, err)
		assert.False(t, next.Appointments.Exists(old))
		assert.True(t, next.Appointments.Exists(moved))
		assert.True(t, next.Available.Contains(old.Slot()))
		assert.False(t, next.Reserved.Contains(old.Slot()))
		assert.True(t, next.Reserved.Contains(moved.Slot()))
		assert.False(t, next.Available.Contains(moved.Slot()))
	})

	t.Run("unavailable target leaves the old appointment in place", func(t *testing.T) {
		st := booked(t)
		st, err := svc.HoldSlot(st, moved.Slot(), booking.ReasonHold)
		require.NoError(t, err)
		before := st.Clone()

		got, err := svc.ReplaceAppointment(st, old, moved)

		assert.True(t, errs.Is(err, booking.ErrSlotUnavailable))
		requireUnchanged(t, before, got)
		assert.True(t, got.Appointments.Exists(old))
	})

	t.Run("missing old appointment", func(t *testing.T) {
		st := openMonday(svc)
		_, err := svc.ReplaceAppointment(st, old, moved)
		assert.True(t, errs.Is(err, appointment.ErrAppointmentNotFound))
	})

	t.Run("invalid new appointment", func(t *testing.T) {
		st := booked(t)
		_, err := svc.ReplaceAppointment(st, old, builder.NewAppointmentBuilder().WithVet("").BuildDomain())
		assert.True(t, errs.Is(err, slot.ErrInvalidSlot))
	})

	t.Run("changing only the customer keeps the slot reserved", func(t *testing.T) {
		st := booked(t)
		renamed := builder.NewAppointmentBuilder().WithCustomer("Jane Smith").BuildDomain()

		next, err := svc.ReplaceAppointment(st, old, renamed)

		require.NoError(t, err)
		assert.True(t, next.Appointments.Exists(renamed))
		assert.True(t, next.Reserved.Contains(old.Slot()))
		assert.False(t, next.Available.Contains(old.Slot()))
	})

	t.Run("replacing with itself is a no-op", func(t *testing.T) {
		st := booked(t)
		got, err := svc.ReplaceAppointment(st, old, old)
		require.NoError(t, err)
		requireUnchanged(t, st, got)
	})
}

func TestHolds(t *testing.T) {
	sl := slot.New(builder.At(builder.Monday, 11), "Dr. Arron")

	t.Run("hold withholds a slot without an appointment", func(t *testing.T) {
		svc := newService(t, booking.HoldKeep)

		next, err := svc.HoldSlot(openMonday(svc), sl, booking.ReasonHold)

		require.NoError(t, err)
		assert.True(t, next.Reserved.Contains(sl))
		assert.False(t, next.Available.Contains(sl))
		assert.Empty(t, next.Appointments)

		_, err = svc.HoldSlot(next, sl, booking.ReasonHold)
		assert.True(t, errs.Is(err, booking.ErrSlotUnavailable))
	})

	t.Run("keep policy never releases", func(t *testing.T) {
		svc := newService(t, booking.HoldKeep)
		st, err := svc.HoldSlot(openMonday(svc), sl, booking.ReasonHold)
		require.NoError(t, err)

		got, err := svc.ReleaseHold(st, sl)

		assert.True(t, errs.Is(err, booking.ErrHoldsNotReleasable))
		requireUnchanged(t, st, got)
	})

	t.Run("release policy returns the slot", func(t *testing.T) {
		svc := newService(t, booking.HoldRelease)
		st, err := svc.HoldSlot(openMonday(svc), sl, booking.ReasonHold)
		require.NoError(t, err)

		got, err := svc.ReleaseHold(st, sl)

		require.NoError(t, err)
		requireUnchanged(t, openMonday(svc), got)
	})

	t.Run("release refuses booked and unreserved slots", func(t *testing.T) {
		svc := newService(t, booking.HoldRelease)
		a := appointment.New("Jane Doe", sl)
		st, err := svc.CreateAppointment(openMonday(svc), a)
		require.NoError(t, err)

		_, err = svc.ReleaseHold(st, sl)
		assert.True(t, errs.Is(err, booking.ErrHoldBound))

		_, err = svc.ReleaseHold(st, slot.New(builder.At(builder.Monday, 12), "Dr. Arron"))
		assert.True(t, errs.Is(err, booking.ErrNotReserved))
	})

	t.Run("default policy is keep", func(t *testing.T) {
		assert.Equal(t, booking.HoldKeep, newService(t, "").Policy())
	})
}

func TestOpenDay(t *testing.T) {
	svc := newService(t, booking.HoldKeep)

	t.Run("opens every generated slot", func(t *testing.T) {
		st := openMonday(svc)
		assert.Equal(t, 14, st.Available.Len())
		assert.True(t, st.Reserved.IsEmpty())
	})

	t.Run("does not reopen reserved or booked slots", func(t *testing.T) {
		a := builder.NewAppointmentBuilder().BuildDomain()
		st, err := svc.CreateAppointment(openMonday(svc), a)
		require.NoError(t, err)

		again := svc.OpenDay(st, builder.Monday)

		requireUnchanged(t, st, again)
	})

	t.Run("closed day", func(t *testing.T) {
		st := svc.OpenDay(booking.NewState(), builder.Sunday)
		assert.True(t, st.Available.IsEmpty())
	})
}

func TestInspectAndReconcile(t *testing.T) {
	svc := newService(t, booking.HoldKeep)
	a := builder.NewAppointmentBuilder().BuildDomain()

	t.Run("consistent state", func(t *testing.T) {
		st, err := svc.CreateAppointment(openMonday(svc), a)
		require.NoError(t, err)

		report := svc.Inspect(st, builder.Monday)
		assert.True(t, report.Consistent())

		got, report := svc.Reconcile(st, builder.Monday)
		assert.True(t, report.Consistent())
		requireUnchanged(t, st, got)
	})

	t.Run("available and reserved disagree after a partial save", func(t *testing.T) {
		// appointments and available were written, reserved was not
		st := openMonday(svc)
		_ = st.Available.Remove(a.Slot())
		st.Appointments = appointment.List{a}

		report := svc.Inspect(st, builder.Monday)
		assert.False(t, report.Consistent())
		assert.Equal(t, []slot.Slot{a.Slot()}, report.BookedNotReserved)

		repaired, _ := svc.Reconcile(st, builder.Monday)
		assert.True(t, repaired.Reserved.Contains(a.Slot()))
		assert.False(t, repaired.Available.Contains(a.Slot()))
		assert.True(t, svc.Inspect(repaired, builder.Monday).Consistent())
	})

	t.Run("stale available entry for a booked slot", func(t *testing.T) {
		booked, err := svc.CreateAppointment(openMonday(svc), a)
		require.NoError(t, err)
		st := booked.Clone()
		_ = st.Available.Add(a.Slot())

		report := svc.Inspect(st, builder.Monday)
		assert.Equal(t, []slot.Slot{a.Slot()}, report.StaleAvailable)

		repaired, _ := svc.Reconcile(st, builder.Monday)
		requireUnchanged(t, booked, repaired)
	})

	t.Run("available is recomputed from the template", func(t *testing.T) {
		st := booking.NewState()
		unoffered := slot.New(builder.At(builder.Monday, 13), "Dr. Arron")
		_ = st.Available.Add(unoffered)

		report := svc.Inspect(st, builder.Monday)
		assert.Len(t, report.MissingFromAvailable, 14)
		assert.Equal(t, []slot.Slot{unoffered}, report.UnofferedAvailable)

		repaired, _ := svc.Reconcile(st, builder.Monday)
		requireUnchanged(t, openMonday(svc), repaired)
	})

	t.Run("double booking is reported", func(t *testing.T) {
		st, err := svc.CreateAppointment(openMonday(svc), a)
		require.NoError(t, err)
		st.Appointments = append(st.Appointments, appointment.New("John Roe", a.Slot()))

		report := svc.Inspect(st, builder.Monday)
		assert.Equal(t, []slot.Slot{a.Slot()}, report.DoubleBooked)
	})

	t.Run("appointment with a vet missing from the roster is reported, not reserved", func(t *testing.T) {
		stray := builder.NewAppointmentBuilder().WithVet("Dr. Nobody").BuildDomain()
		st := openMonday(svc)
		st.Appointments = appointment.List{stray}

		report := svc.Inspect(st, builder.Monday)
		assert.False(t, report.Consistent())
		assert.Equal(t, []slot.Slot{stray.Slot()}, report.UnknownVet)
		assert.Empty(t, report.BookedNotReserved)

		repaired, _ := svc.Reconcile(st, builder.Monday)
		assert.False(t, repaired.Reserved.Contains(stray.Slot()))
		assert.False(t, repaired.Available.Contains(stray.Slot()))
		assert.True(t, repaired.Appointments.Exists(stray))
		assert.Equal(t, 14, repaired.Available.Len())
	})

	t.Run("reconcile all covers every stored date", func(t *testing.T) {
		st := openMonday(svc)
		st = svc.OpenDay(st, builder.Saturday)
		_ = st.Available.Remove(slot.New(builder.At(builder.Saturday, 10), "Dr. Beth"))

		repaired, reports := svc.ReconcileAll(st)

		require.Len(t, reports, 1)
		assert.True(t, reports[0].Date.Equal(builder.Saturday))
		assert.True(t, repaired.Available.Contains(slot.New(builder.At(builder.Saturday, 10), "Dr. Beth")))
	})
}
