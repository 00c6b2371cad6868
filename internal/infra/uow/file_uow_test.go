//go:build unit

package uow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"vet-clinic-scheduler/internal/domain/booking"
	"vet-clinic-scheduler/internal/domain/slot"
	"vet-clinic-scheduler/internal/infra"
	"vet-clinic-scheduler/internal/infra/uow"
	"vet-clinic-scheduler/internal/pkg/errs"
	"vet-clinic-scheduler/internal/pkg/logger"
	"vet-clinic-scheduler/tests/common/builder"
	sharedmock "vet-clinic-scheduler/tests/mock/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func ioFailure(msg string) error {
	return infra.WrapStoreErr(logger.Discard(), infra.KindIOFailure, msg, errors.New("disk full"))
}

func TestFileUoWWithin(t *testing.T) {
	ctx := context.Background()
	held := slot.New(builder.At(builder.Monday, 9), "Dr. Arron")

	t.Run("saves the state returned by fn", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		st := sharedmock.NewMockStateStore(ctrl)
		loaded := booking.NewState()

		st.EXPECT().Load(gomock.Any()).Return(loaded, nil)
		st.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, saved booking.State) error {
			assert.True(t, saved.Reserved.Contains(held))
			return nil
		})

		err := uow.NewFileUoW(st, logger.Discard()).Within(ctx, func(_ context.Context, s booking.State) (booking.State, error) {
			next := s.Clone()
			require.NoError(t, next.Reserved.Add(held))
			return next, nil
		})
		require.NoError(t, err)
	})

	t.Run("nothing is saved when fn fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		st := sharedmock.NewMockStateStore(ctrl)
		st.EXPECT().Load(gomock.Any()).Return(booking.NewState(), nil)

		err := uow.NewFileUoW(st, logger.Discard()).Within(ctx, func(_ context.Context, s booking.State) (booking.State, error) {
			return s, booking.ErrSlotUnavailable
		})

		assert.True(t, errs.Is(err, booking.ErrSlotUnavailable))
		assert.False(t, errs.Is(err, errs.ErrPersistenceFailed))
	})

	t.Run("load failure is a persistence failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		st := sharedmock.NewMockStateStore(ctrl)
		st.EXPECT().Load(gomock.Any()).Return(booking.State{}, context.DeadlineExceeded)

		called := false
		err := uow.NewFileUoW(st, logger.Discard()).Within(ctx, func(_ context.Context, s booking.State) (booking.State, error) {
			called = true
			return s, nil
		})

		assert.False(t, called)
		assert.True(t, errs.Is(err, errs.ErrPersistenceFailed))
	})

	t.Run("transient save failure is retried", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		st := sharedmock.NewMockStateStore(ctrl)
		st.EXPECT().Load(gomock.Any()).Return(booking.NewState(), nil)
		gomock.InOrder(
			st.EXPECT().Save(gomock.Any(), gomock.Any()).Return(ioFailure("failed to replace state.json")),
			st.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil),
		)

		u := uow.NewFileUoW(st, logger.Discard()).WithRetries(2, time.Millisecond)
		err := u.Within(ctx, func(_ context.Context, s booking.State) (booking.State, error) {
			return s, nil
		})
		require.NoError(t, err)
	})

	t.Run("persistent save failure surfaces after the retries", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		st := sharedmock.NewMockStateStore(ctrl)
		st.EXPECT().Load(gomock.Any()).Return(booking.NewState(), nil)
		st.EXPECT().Save(gomock.Any(), gomock.Any()).Return(ioFailure("failed to replace state.json")).Times(3)

		u := uow.NewFileUoW(st, logger.Discard()).WithRetries(2, time.Millisecond)
		err := u.Within(ctx, func(_ context.Context, s booking.State) (booking.State, error) {
			return s, nil
		})

		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.ErrPersistenceFailed))
		assert.True(t, infra.IsKind(err, infra.KindIOFailure))
	})

	t.Run("encode failures are not retried", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		st := sharedmock.NewMockStateStore(ctrl)
		st.EXPECT().Load(gomock.Any()).Return(booking.NewState(), nil)
		st.EXPECT().Save(gomock.Any(), gomock.Any()).
			Return(infra.WrapStoreErr(logger.Discard(), infra.KindEncodeFailure, "failed to encode", errors.New("bad value"))).
			Times(1)

		err := uow.NewFileUoW(st, logger.Discard()).Within(ctx, func(_ context.Context, s booking.State) (booking.State, error) {
			return s, nil
		})
		assert.True(t, errs.Is(err, errs.ErrPersistenceFailed))
	})
}

func TestFileUoWRead(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := sharedmock.NewMockStateStore(ctrl)
	st.EXPECT().Load(gomock.Any()).Return(booking.NewState(), nil)

	var seen bool
	err := uow.NewFileUoW(st, logger.Discard()).Read(context.Background(), func(_ context.Context, s booking.State) error {
		seen = s.Available.IsEmpty()
		return nil
	})

	require.NoError(t, err)
	assert.True(t, seen)
}
