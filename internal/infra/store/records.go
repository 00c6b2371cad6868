package store

import (
	"encoding/json"
	"time"

	"vet-clinic-scheduler/internal/domain/appointment"
	"vet-clinic-scheduler/internal/domain/slot"
	"vet-clinic-scheduler/internal/pkg/errs"
)

// DateTimeLayout is ISO-8601 without an offset; values are interpreted in the clinic location.
const DateTimeLayout = "2006-01-02T15:04:05"

type SlotRecord struct {
	DateTime string `json:"datetime"`
	Vet      string `json:"vet"`
}

type AppointmentRecord struct {
	Customer string     `json:"customer"`
	Slot     SlotRecord `json:"slot"`
}

// NewSlotRecord writes the wall-clock time of s in loc, the location ToDomain reads it back in.
func NewSlotRecord(s slot.Slot, loc *time.Location) SlotRecord {
	return SlotRecord{
		DateTime: s.DateTime().In(loc).Format(DateTimeLayout),
		Vet:      s.Vet(),
	}
}

// ToDomain also accepts date-times written with an explicit offset.
func (r SlotRecord) ToDomain(loc *time.Location) (slot.Slot, error) {
	at, err := time.ParseInLocation(DateTimeLayout, r.DateTime, loc)
	if err != nil {
		var rfcErr error
		at, rfcErr = time.Parse(time.RFC3339Nano, r.DateTime)
		if rfcErr != nil {
			return slot.Slot{}, errs.Mark(errs.Wrapf(err, "slot datetime %q", r.DateTime), slot.ErrInvalidSlot)
		}
		at = at.In(loc)
	}
	s := slot.New(at, r.Vet)
	if err := s.Validate(); err != nil {
		return slot.Slot{}, err
	}
	return s, nil
}

func NewAppointmentRecord(a appointment.Appointment, loc *time.Location) AppointmentRecord {
	return AppointmentRecord{
		Customer: a.Customer(),
		Slot:     NewSlotRecord(a.Slot(), loc),
	}
}

func (r AppointmentRecord) ToDomain(loc *time.Location) (appointment.Appointment, error) {
	s, err := r.Slot.ToDomain(loc)
	if err != nil {
		return appointment.Appointment{}, err
	}
	a := appointment.New(r.Customer, s)
	if err := a.Validate(); err != nil {
		return appointment.Appointment{}, err
	}
	return a, nil
}

func MarshalAppointment(a appointment.Appointment, loc *time.Location) ([]byte, error) {
	return json.Marshal(NewAppointmentRecord(a, loc))
}

func UnmarshalAppointment(data []byte, loc *time.Location) (appointment.Appointment, error) {
	var r AppointmentRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return appointment.Appointment{}, err
	}
	return r.ToDomain(loc)
}

func encodeAppointments(list appointment.List, loc *time.Location) []AppointmentRecord {
	out := make([]AppointmentRecord, 0, len(list))
	for _, a := range list {
		out = append(out, NewAppointmentRecord(a, loc))
	}
	return out
}

func encodeSlots(set slot.Set, loc *time.Location) []SlotRecord {
	slots := set.Slots()
	out := make([]SlotRecord, 0, len(slots))
	for _, s := range slots {
		out = append(out, NewSlotRecord(s, loc))
	}
	return out
}

func decodeAppointments(data []byte, loc *time.Location) (appointment.List, error) {
	var records []AppointmentRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	list := make(appointment.List, 0, len(records))
	for i, r := range records {
		a, err := r.ToDomain(loc)
		if err != nil {
			return nil, errs.Wrapf(err, "appointment #%d", i)
		}
		list = append(list, a)
	}
	return list, nil
}

func decodeSlots(data []byte, loc *time.Location) (slot.Set, error) {
	var records []SlotRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return slot.Set{}, err
	}
	set := slot.NewSet()
	for i, r := range records {
		s, err := r.ToDomain(loc)
		if err != nil {
			return slot.Set{}, errs.Wrapf(err, "slot #%d", i)
		}
		_ = set.Add(s)
	}
	return set, nil
}
