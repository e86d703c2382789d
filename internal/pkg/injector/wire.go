//go:build wireinject
// +build wireinject

package injector

import (
	"io"

	"github.com/google/wire"
	"github.com/lk2023060901/rrdump/internal/conf"
	"github.com/lk2023060901/rrdump/internal/dump/biz"
	dumpdata "github.com/lk2023060901/rrdump/internal/dump/data"
	"github.com/lk2023060901/rrdump/internal/dump/service"
	"github.com/lk2023060901/rrdump/internal/pkg/logger"
)

// ProviderSet is the Wire provider set for all dependencies
var ProviderSet = wire.NewSet(
	// Data layer
	dataProviderSet,

	// Repositories
	repositoryProviderSet,

	// Use cases
	useCaseProviderSet,

	// Services
	serviceProviderSet,
)

// Data layer providers
var dataProviderSet = wire.NewSet(
	provideData,
	provideFs,
)

// Repository providers
var repositoryProviderSet = wire.NewSet(
	provideDumpRepo,
	dumpdata.NewStreamWriter,
	provideArchiver,
	provideAgencyResolver,
)

// Use case providers
var useCaseProviderSet = wire.NewSet(
	biz.NewParamsBuilder,
	biz.NewOrchestrator,
)

// Service providers
var serviceProviderSet = wire.NewSet(
	wire.Bind(new(service.AgencyLister), new(*dumpdata.AgencyResolver)),
	service.NewDumpService,
)

// InitializeApp initializes the application with Wire. out receives operator
// output.
func InitializeApp(config *conf.Config, out io.Writer, log *logger.Logger) (*App, func(), error) {
	wire.Build(ProviderSet, newApp)
	return nil, nil, nil
}
