package store

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"vet-clinic-scheduler/internal/domain/booking"
	"vet-clinic-scheduler/internal/infra"
)

const (
	AppointmentsFile   = "appointments.json"
	AvailableSlotsFile = "available_slots.json"
	ReservedSlotsFile  = "reserved_slots.json"
)

// FileSetStore keeps each collection in its own JSON array file. Every file is replaced
// atomically, but the three replacements are independent: a crash between them can leave the
// files disagreeing, which booking.Service.Reconcile repairs.
type FileSetStore struct {
	mu     sync.Mutex
	dir    string
	loc    *time.Location
	logger *slog.Logger
}

func NewFileSetStore(dir string, loc *time.Location, logger *slog.Logger) (*FileSetStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, infra.WrapStoreErr(logger, infra.KindIOFailure, "failed to create data directory", err)
	}
	return &FileSetStore{
		dir:    dir,
		loc:    loc,
		logger: logger,
	}, nil
}

func (s *FileSetStore) Dir() string { return s.dir }

// Load reads each file on its own; a missing or undecodable file yields an empty collection.
func (s *FileSetStore) Load(ctx context.Context) (booking.State, error) {
	if err := ctx.Err(); err != nil {
		return booking.State{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st := booking.NewState()
	if data, ok := s.read(AppointmentsFile); ok {
		if appointments, err := decodeAppointments(data, s.loc); err != nil {
			s.logger.Warn("appointments could not be decoded, resetting to empty", "file", AppointmentsFile, "error", err)
		} else {
			st.Appointments = appointments
		}
	}
	if data, ok := s.read(AvailableSlotsFile); ok {
		if available, err := decodeSlots(data, s.loc); err != nil {
			s.logger.Warn("available slots could not be decoded, resetting to empty", "file", AvailableSlotsFile, "error", err)
		} else {
			st.Available = available
		}
	}
	if data, ok := s.read(ReservedSlotsFile); ok {
		if reserved, err := decodeSlots(data, s.loc); err != nil {
			s.logger.Warn("reserved slots could not be decoded, resetting to empty", "file", ReservedSlotsFile, "error", err)
		} else {
			st.Reserved = reserved
		}
	}

	s.logger.Info("loaded state files",
		"appointments", len(st.Appointments),
		"available", st.Available.Len(),
		"reserved", st.Reserved.Len(),
	)
	return st, nil
}

func (s *FileSetStore) read(name string) ([]byte, bool) {
	path := filepath.Join(s.dir, name)
	data, ok, err := readFile(path)
	if err != nil {
		s.logger.Warn("file unreadable, using empty collection", "file", name, "error", err)
		return nil, false
	}
	if !ok {
		s.logger.Warn("file does not exist yet, using empty collection", "file", name)
		return nil, false
	}
	return data, true
}

// Save replaces appointments, then available, then reserved. The first failure is returned and
// the files already replaced stay replaced.
func (s *FileSetStore) Save(ctx context.Context, st booking.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeJSONAtomic(s.logger, filepath.Join(s.dir, AppointmentsFile), encodeAppointments(st.Appointments, s.loc)); err != nil {
		return err
	}
	if err := writeJSONAtomic(s.logger, filepath.Join(s.dir, AvailableSlotsFile), encodeSlots(st.Available, s.loc)); err != nil {
		return err
	}
	if err := writeJSONAtomic(s.logger, filepath.Join(s.dir, ReservedSlotsFile), encodeSlots(st.Reserved, s.loc)); err != nil {
		return err
	}

	s.logger.Info("saved state files", "dir", s.dir)
	return nil
}
