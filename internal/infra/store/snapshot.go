package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"vet-clinic-scheduler/internal/domain/booking"
	"vet-clinic-scheduler/internal/infra"
	"vet-clinic-scheduler/internal/pkg/clock"

	"github.com/google/uuid"
)

const snapshotVersion = 1

type snapshotDocument struct {
	Version        int             `json:"version"`
	Revision       string          `json:"revision"`
	SavedAt        string          `json:"saved_at"`
	Appointments   json.RawMessage `json:"appointments"`
	AvailableSlots json.RawMessage `json:"available_slots"`
	ReservedSlots  json.RawMessage `json:"reserved_slots"`
}

// SnapshotStore keeps all three collections in one file that is replaced atomically, so a crash
// leaves either the previous state or the new one, never a mix.
type SnapshotStore struct {
	mu       sync.Mutex
	path     string
	loc      *time.Location
	clock    clock.Clock
	logger   *slog.Logger
	revision string
}

func NewSnapshotStore(dir, file string, loc *time.Location, clk clock.Clock, logger *slog.Logger) (*SnapshotStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, infra.WrapStoreErr(logger, infra.KindIOFailure, "failed to create data directory", err)
	}
	return &SnapshotStore{
		path:   filepath.Join(dir, file),
		loc:    loc,
		clock:  clk,
		logger: logger,
	}, nil
}

func (s *SnapshotStore) Path() string { return s.path }

// Revision is the id written by the last successful Save or read by the last Load.
func (s *SnapshotStore) Revision() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Load never fails on bad data: an unreadable file or collection comes back empty and is logged.
func (s *SnapshotStore) Load(ctx context.Context) (booking.State, error) {
	if err := ctx.Err(); err != nil {
		return booking.State{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st := booking.NewState()
	data, ok, err := readFile(s.path)
	if err != nil {
		s.logger.Warn("snapshot unreadable, starting empty", "path", s.path, "error", err)
		return st, nil
	}
	if !ok {
		s.logger.Warn("snapshot does not exist yet, starting empty", "path", s.path)
		return st, nil
	}

	var doc snapshotDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("snapshot could not be decoded, starting empty", "path", s.path, "error", err)
		return st, nil
	}
	if doc.Version > snapshotVersion {
		s.logger.Warn("snapshot written by a newer version", "path", s.path, "version", doc.Version)
	}

	if appointments, err := decodeAppointments(orEmptyArray(doc.Appointments), s.loc); err != nil {
		s.logger.Warn("appointments could not be decoded, resetting to empty", "path", s.path, "error", err)
	} else {
		st.Appointments = appointments
	}
	if available, err := decodeSlots(orEmptyArray(doc.AvailableSlots), s.loc); err != nil {
		s.logger.Warn("available slots could not be decoded, resetting to empty", "path", s.path, "error", err)
	} else {
		st.Available = available
	}
	if reserved, err := decodeSlots(orEmptyArray(doc.ReservedSlots), s.loc); err != nil {
		s.logger.Warn("reserved slots could not be decoded, resetting to empty", "path", s.path, "error", err)
	} else {
		st.Reserved = reserved
	}

	s.revision = doc.Revision
	s.logger.Info("loaded state snapshot",
		"revision", doc.Revision,
		"appointments", len(st.Appointments),
		"available", st.Available.Len(),
		"reserved", st.Reserved.Len(),
	)
	return st, nil
}

func (s *SnapshotStore) Save(ctx context.Context, st booking.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	appointments, err := json.Marshal(encodeAppointments(st.Appointments, s.loc))
	if err != nil {
		return infra.WrapStoreErr(s.logger, infra.KindEncodeFailure, "failed to encode appointments", err)
	}
	available, err := json.Marshal(encodeSlots(st.Available, s.loc))
	if err != nil {
		return infra.WrapStoreErr(s.logger, infra.KindEncodeFailure, "failed to encode available slots", err)
	}
	reserved, err := json.Marshal(encodeSlots(st.Reserved, s.loc))
	if err != nil {
		return infra.WrapStoreErr(s.logger, infra.KindEncodeFailure, "failed to encode reserved slots", err)
	}

	doc := snapshotDocument{
		Version:        snapshotVersion,
		Revision:       uuid.NewString(),
		SavedAt:        s.clock.Now().Format(time.RFC3339),
		Appointments:   appointments,
		AvailableSlots: available,
		ReservedSlots:  reserved,
	}
	if err := writeJSONAtomic(s.logger, s.path, doc); err != nil {
		return err
	}

	s.revision = doc.Revision
	s.logger.Info("saved state snapshot", "revision", doc.Revision, "path", s.path)
	return nil
}

func orEmptyArray(raw json.RawMessage) []byte {
	if len(raw) == 0 || string(raw) == "null" {
		return []byte("[]")
	}
	return raw
}
