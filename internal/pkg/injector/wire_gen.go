//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package injector

import (
	"io"

	"github.com/lk2023060901/rrdump/internal/conf"
	"github.com/lk2023060901/rrdump/internal/dump/biz"
	"github.com/lk2023060901/rrdump/internal/dump/data"
	"github.com/lk2023060901/rrdump/internal/dump/service"
	"github.com/lk2023060901/rrdump/internal/pkg/logger"
)

// Injectors from wire.go:

// InitializeApp initializes the application with Wire. out receives operator
// output.
func InitializeApp(config *conf.Config, out io.Writer, log *logger.Logger) (*App, func(), error) {
	fs := provideFs()
	paramsBuilder := biz.NewParamsBuilder(fs)
	dataData, cleanup, err := provideData(config, log)
	if err != nil {
		return nil, nil, err
	}
	agencyResolver := provideAgencyResolver(dataData, config, log)
	dumpRepo := provideDumpRepo(dataData)
	streamWriter := data.NewStreamWriter(fs, log)
	archiver := provideArchiver(dataData, fs, config, log)
	orchestrator := biz.NewOrchestrator(dumpRepo, streamWriter, archiver, out, log)
	dumpService := service.NewDumpService(paramsBuilder, agencyResolver, orchestrator, out, log)
	app := newApp(config, log, dumpService)
	return app, func() {
		cleanup()
	}, nil
}
