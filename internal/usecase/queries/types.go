package queries

import "time"

type VetView struct {
	Key      string   `json:"key"`
	Name     string   `json:"name"`
	Workdays []string `json:"workdays"`
}

type DayScheduleView struct {
	Weekday string     `json:"weekday"`
	Date    *time.Time `json:"date,omitempty"`
	Closed  bool       `json:"closed"`
	Notice  string     `json:"notice,omitempty"`
	Shifts  []string   `json:"shifts,omitempty"`
	// Starts lists the hourly start times; only filled when a date was asked for
	Starts        []string `json:"starts,omitempty"`
	Veterinarians []string `json:"veterinarians"`
}

type SlotView struct {
	DateTime time.Time `json:"datetime"`
	Vet      string    `json:"vet"`
}

type AppointmentStatusView struct {
	Customer string    `json:"customer"`
	Vet      string    `json:"vet"`
	DateTime time.Time `json:"datetime"`
	Booked   bool      `json:"booked"`
}
