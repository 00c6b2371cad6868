package bootstrap

import (
	"vet-clinic-scheduler/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	ScheduleModule,
	components.PersistenceModule,
	components.UseCaseModule,
)
