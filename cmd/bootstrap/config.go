package bootstrap

import (
	"time"

	"vet-clinic-scheduler/internal/pkg/config"

	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		config.LoadConfig,
		NewLocation,
	),
)

func NewLocation(cfg config.Config) (*time.Location, error) {
	return cfg.App.Location()
}
