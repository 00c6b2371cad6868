package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"vet-clinic-scheduler/cmd/bootstrap"
	"vet-clinic-scheduler/internal/pkg/clock"
	"vet-clinic-scheduler/internal/usecase/commands"
	"vet-clinic-scheduler/internal/usecase/queries"

	"go.uber.org/fx"
)

// startupPass opens today's slots, repairs whatever a previous crash left behind and logs the
// roster and today's schedule, then stops the app.
func startupPass(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cmds commands.AppointmentCommands,
	qs queries.ScheduleQueries,
	clk clock.Clock,
	logger *slog.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			today := clock.Today(clk)
			logger.Info("🩺 starting clinic scheduler", "today", today.Format(time.DateOnly))

			reports, err := cmds.Reconcile(ctx)
			if err != nil {
				f := commands.Describe(err)
				logger.Error(f.Message, "durability", f.Durability, "hints", f.Hints)
				return err
			}
			for _, r := range reports {
				logger.Warn("repaired slot collections",
					"date", r.Date.Format(time.DateOnly),
					"double_booked", len(r.DoubleBooked),
					"unknown_vet", len(r.UnknownVet))
			}

			opened, err := cmds.OpenDay(ctx, today)
			if err != nil {
				f := commands.Describe(err)
				logger.Error(f.Message, "durability", f.Durability, "hints", f.Hints)
				return err
			}

			for _, v := range qs.Veterinarians() {
				logger.Info("veterinarian", "key", v.Key, "name", v.Name, "workdays", v.Workdays)
			}
			day, err := qs.DaySchedule(today.Format(time.DateOnly))
			if err != nil {
				return err
			}
			if day.Closed {
				logger.Info("clinic closed today", "weekday", day.Weekday, "notice", day.Notice)
			} else {
				logger.Info("today's schedule",
					"weekday", day.Weekday,
					"shifts", day.Shifts,
					"veterinarians", day.Veterinarians,
					"opened_slots", opened)
			}

			return shutdowner.Shutdown()
		},
		OnStop: func(_ context.Context) error {
			logger.Info("🛑 clinic scheduler stopped")
			return nil
		},
	})
}

func main() {
	app := fx.New(
		bootstrap.Module,
		fx.Invoke(
			startupPass,
		),
	)

	if err := app.Start(context.Background()); err != nil {
		slog.Error("failed to start the application", "error", err)
		os.Exit(1)
	}

	<-app.Done()

	if err := app.Stop(context.Background()); err != nil {
		slog.Error("failed to stop the application", "error", err)
	}
}
