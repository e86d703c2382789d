package injector

import (
	"github.com/lk2023060901/rrdump/internal/conf"
	"github.com/lk2023060901/rrdump/internal/dump/service"
	"github.com/lk2023060901/rrdump/internal/pkg/logger"
)

// App encapsulates all dependencies of one rrdump run
type App struct {
	Config  *conf.Config
	Logger  *logger.Logger
	Service *service.DumpService
}

func newApp(config *conf.Config, log *logger.Logger, svc *service.DumpService) *App {
	return &App{
		Config:  config,
		Logger:  log,
		Service: svc,
	}
}
