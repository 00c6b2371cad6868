//go:build unit

package builder

import (
	"time"

	"vet-clinic-scheduler/internal/domain/appointment"
	"vet-clinic-scheduler/internal/domain/slot"
	"vet-clinic-scheduler/internal/infra/store"
)

// Reference dates in the default template: 2025-03-10 is a Monday (Dr. Arron, Dr. Kalyen),
// 2025-03-08 a Saturday and 2025-03-09 a Sunday (closed).
var (
	Monday   = time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	Saturday = time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC)
	Sunday   = time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC)
)

// At returns date at hour:00.
func At(date time.Time, hour int) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, hour, 0, 0, 0, date.Location())
}

type AppointmentBuilder struct {
	Customer string
	Vet      string
	DateTime time.Time
}

func NewAppointmentBuilder() *AppointmentBuilder {
	return &AppointmentBuilder{
		Customer: "Jane Doe",
		Vet:      "Dr. Arron",
		DateTime: At(Monday, 9),
	}
}

func (b *AppointmentBuilder) With(mutate func(*AppointmentBuilder)) *AppointmentBuilder {
	mutate(b)
	return b
}

func (b *AppointmentBuilder) WithCustomer(customer string) *AppointmentBuilder {
	b.Customer = customer
	return b
}

func (b *AppointmentBuilder) WithVet(vet string) *AppointmentBuilder {
	b.Vet = vet
	return b
}

func (b *AppointmentBuilder) WithDateTime(at time.Time) *AppointmentBuilder {
	b.DateTime = at
	return b
}

// Build methods
func (b *AppointmentBuilder) BuildSlot() slot.Slot {
	return slot.New(b.DateTime, b.Vet)
}

func (b *AppointmentBuilder) BuildDomain() appointment.Appointment {
	return appointment.New(b.Customer, b.BuildSlot())
}

func (b *AppointmentBuilder) BuildRecord() store.AppointmentRecord {
	return store.AppointmentRecord{
		Customer: b.Customer,
		Slot: store.SlotRecord{
			DateTime: b.DateTime.Format(store.DateTimeLayout),
			Vet:      b.Vet,
		},
	}
}
