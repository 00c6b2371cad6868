package shared

import (
	"context"

	"vet-clinic-scheduler/internal/domain/booking"
)

//go:generate mockgen -source=uow.go -destination=../../../tests/mock/shared/uow.go -package=sharedmock

// StateStore is the durable home of the three slot collections.
type StateStore interface {
	Load(ctx context.Context) (booking.State, error)
	Save(ctx context.Context, st booking.State) error
}

type UnitOfWork interface {
	// Within: guarded load -> fn -> save. Nothing is saved when fn fails.
	Within(ctx context.Context, fn func(ctx context.Context, st booking.State) (booking.State, error)) error
	// Read: guarded load only, fn must not keep st beyond the call
	Read(ctx context.Context, fn func(ctx context.Context, st booking.State) error) error
}
