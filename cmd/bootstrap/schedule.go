package bootstrap

import (
	"log/slog"

	"vet-clinic-scheduler/internal/domain/booking"
	"vet-clinic-scheduler/internal/domain/schedule"
	"vet-clinic-scheduler/internal/pkg/clock"
	"vet-clinic-scheduler/internal/pkg/config"

	"go.uber.org/fx"
)

var ScheduleModule = fx.Module("schedule",
	fx.Provide(
		clock.NewRealClock,
		NewTemplate,
		NewBookingService,
	),
)

// NewTemplate fails the application start on a malformed weekly template.
func NewTemplate() (*schedule.Template, error) {
	return schedule.NewTemplate(schedule.DefaultDefinition())
}

func NewBookingService(t *schedule.Template, cfg config.Config, logger *slog.Logger) *booking.Service {
	return booking.NewService(t, booking.HoldPolicy(cfg.App.HoldReleasePolicy), logger)
}
