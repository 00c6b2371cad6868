package bootstrap

import (
	"log/slog"

	"vet-clinic-scheduler/internal/pkg/config"
	"vet-clinic-scheduler/internal/pkg/logger"

	"go.uber.org/fx"
)

var LoggerModule = fx.Module("logger",
	fx.Provide(
		NewLogger,
	),
)

func NewLogger(cfg config.Config) *slog.Logger {
	l := logger.New(cfg.Log, cfg.App.RunMode).GetSlogLogger()
	slog.SetDefault(l)
	return l
}
