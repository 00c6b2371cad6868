package uow

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"log/slog"
	"sync"
	"time"

	"vet-clinic-scheduler/internal/domain/booking"
	"vet-clinic-scheduler/internal/infra"
	"vet-clinic-scheduler/internal/pkg/errs"
	"vet-clinic-scheduler/internal/usecase/shared"
)

const defaultMaxRetries = 2

var (
	errStateLoad          = errs.New("failed to load state")
	errStateSave          = errs.New("failed to save state")
	errMaxRetriesExceeded = errs.New("save failed after max retries")
)

// FileUoW serialises every read-modify-write cycle against one StateStore.
type FileUoW struct {
	mu         sync.Mutex
	store      shared.StateStore
	logger     *slog.Logger
	maxRetries int
	base       time.Duration
}

func NewFileUoW(store shared.StateStore, logger *slog.Logger) *FileUoW {
	return &FileUoW{
		store:      store,
		logger:     logger,
		maxRetries: defaultMaxRetries,
		base:       50 * time.Millisecond,
	}
}

// WithRetries changes how often a save that failed with an I/O error is retried.
func (u *FileUoW) WithRetries(n int, base time.Duration) *FileUoW {
	u.maxRetries = n
	u.base = base
	return u
}

func (u *FileUoW) Within(ctx context.Context, fn func(ctx context.Context, st booking.State) (booking.State, error)) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	st, err := u.store.Load(ctx)
	if err != nil {
		return errs.Mark(errs.Mark(err, errStateLoad), errs.ErrPersistenceFailed)
	}

	next, err := fn(ctx, st)
	if err != nil {
		return err
	}
	return u.save(ctx, next)
}

func (u *FileUoW) Read(ctx context.Context, fn func(ctx context.Context, st booking.State) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	st, err := u.store.Load(ctx)
	if err != nil {
		return errs.Mark(errs.Mark(err, errStateLoad), errs.ErrPersistenceFailed)
	}
	return fn(ctx, st)
}

// save rewrites the whole state, so retrying after a partial write is safe.
func (u *FileUoW) save(ctx context.Context, st booking.State) error {
	for attempt := 0; ; attempt++ {
		err := u.store.Save(ctx, st)
		if err == nil {
			return nil
		}
		err = errs.Mark(errs.Mark(err, errStateSave), errs.ErrPersistenceFailed)

		if !shouldRetry(err, attempt, u.maxRetries) {
			if attempt > 0 && attempt == u.maxRetries {
				u.logger.Error("save failed after max retries",
					"attempts", attempt+1,
					"error", err.Error())
				return errs.Mark(err, errMaxRetriesExceeded)
			}
			return err
		}

		waitTime := calculateBackoff(attempt, u.base)
		u.logger.Warn("retrying save due to I/O failure",
			"attempt", attempt+1,
			"wait_ms", waitTime.Milliseconds(),
			"error", err.Error())

		select {
		case <-ctx.Done():
			return errs.Mark(ctx.Err(), errs.ErrPersistenceFailed)
		case <-time.After(waitTime):
		}
	}
}

func shouldRetry(err error, attempt, maxRetries int) bool {
	return infra.IsKind(err, infra.KindIOFailure) && attempt < maxRetries
}

func calculateBackoff(attempt int, base time.Duration) time.Duration {
	waitTime := time.Duration(1<<attempt) * base
	jitter := cryptoRandInt63n(int64(waitTime / 5))
	return waitTime + time.Duration(jitter)
}

func cryptoRandInt63n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	uval := binary.BigEndian.Uint64(buf[:]) & 0x7FFFFFFFFFFFFFFF
	// #nosec G115 -- masked above
	return int64(uval) % n
}
