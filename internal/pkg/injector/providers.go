package injector

import (
	"github.com/lk2023060901/rrdump/internal/conf"
	"github.com/lk2023060901/rrdump/internal/data"
	"github.com/lk2023060901/rrdump/internal/dump/biz"
	dumpdata "github.com/lk2023060901/rrdump/internal/dump/data"
	"github.com/lk2023060901/rrdump/internal/pkg/logger"
	"github.com/spf13/afero"
)

// Data layer helpers

func provideData(config *conf.Config, log *logger.Logger) (*data.Data, func(), error) {
	return data.NewData(config, log)
}

func provideFs() afero.Fs {
	return afero.NewOsFs()
}

// Repository providers

func provideDumpRepo(d *data.Data) biz.DumpRepo {
	return dumpdata.NewDumpRepo(d.RecordDump)
}

// provideArchiver returns nil when archiving is disabled
func provideArchiver(d *data.Data, fs afero.Fs, config *conf.Config, log *logger.Logger) biz.Archiver {
	if d.Archive == nil {
		return nil
	}
	return dumpdata.NewMinIOArchiver(d.Archive, fs, config.Archive.Bucket, config.Archive.Prefix, log)
}

func provideAgencyResolver(d *data.Data, config *conf.Config, log *logger.Logger) *dumpdata.AgencyResolver {
	return dumpdata.NewAgencyResolver(d.RecordDump, d.Cache, config.Agencies.CacheTTL, log)
}
