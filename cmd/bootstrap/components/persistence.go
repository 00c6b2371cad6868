package components

import (
	"log/slog"
	"time"

	"vet-clinic-scheduler/internal/infra/store"
	"vet-clinic-scheduler/internal/infra/uow"
	"vet-clinic-scheduler/internal/pkg/clock"
	"vet-clinic-scheduler/internal/pkg/config"
	"vet-clinic-scheduler/internal/usecase/shared"

	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewStateStore,
		fx.Annotate(
			uow.NewFileUoW,
			fx.As(new(shared.UnitOfWork)),
		),
	),
)

// NewStateStore picks the on-disk layout from STORE_LAYOUT.
func NewStateStore(cfg config.Config, loc *time.Location, clk clock.Clock, logger *slog.Logger) (shared.StateStore, error) {
	if cfg.Store.Layout == config.LayoutFiles {
		logger.Warn("using the three-file layout, run a reconcile after any crash", "dir", cfg.Store.DataDir)
		s, err := store.NewFileSetStore(cfg.Store.DataDir, loc, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, err := store.NewSnapshotStore(cfg.Store.DataDir, cfg.Store.SnapshotFile, loc, clk, logger)
	if err != nil {
		return nil, err
	}
	return s, nil
}
