package data

import (
	"github.com/lk2023060901/rrdump/internal/conf"
	apperrors "github.com/lk2023060901/rrdump/internal/pkg/errors"
	"github.com/lk2023060901/rrdump/internal/pkg/logger"
	"github.com/lk2023060901/rrdump/internal/pkg/minio"
	"github.com/lk2023060901/rrdump/internal/pkg/recorddump"
	"github.com/lk2023060901/rrdump/internal/pkg/redis"
	"go.uber.org/zap"
)

// Data holds the clients of one run. Cache and Archive are nil when not
// configured.
type Data struct {
	RecordDump *recorddump.Client
	Cache      *redis.Client
	Archive    *minio.Client
	Logger     *logger.Logger
}

func NewData(config *conf.Config, log *logger.Logger) (*Data, func(), error) {
	if log == nil {
		log = logger.Nop()
	}

	// Record dump service
	dumpClient, err := recorddump.New(&config.Dump, log)
	if err != nil {
		return nil, nil, apperrors.NewConfigurationError("dump: %v", err)
	}

	// Agency cache (optional)
	cacheClient := initCache(config, log)

	// Archive store (optional)
	archiveClient, err := initArchive(config, log)
	if err != nil {
		if cacheClient != nil {
			cacheClient.Close()
		}
		dumpClient.Close()
		return nil, nil, err
	}

	d := &Data{
		RecordDump: dumpClient,
		Cache:      cacheClient,
		Archive:    archiveClient,
		Logger:     log,
	}

	cleanup := func() {
		log.Debug("cleaning up data resources")

		if archiveClient != nil {
			archiveClient.Close()
		}

		if cacheClient != nil {
			cacheClient.Close()
		}

		dumpClient.Close()
	}

	return d, cleanup, nil
}

// initCache connects to the agency cache. An unreachable cache only costs
// an extra agency request, so failures are logged and the run continues
// without it.
func initCache(config *conf.Config, log *logger.Logger) *redis.Client {
	if !config.Agencies.Cache.Enabled() {
		return nil
	}

	client, err := redis.New(&config.Agencies.Cache, log)
	if err != nil {
		log.Warn("failed to init agency cache (this is optional)",
			zap.String("addr", config.Agencies.Cache.Addr),
			zap.Error(err),
		)
		return nil
	}
	return client
}

func initArchive(config *conf.Config, log *logger.Logger) (*minio.Client, error) {
	if !config.Archive.Enabled {
		return nil, nil
	}

	client, err := minio.NewClient(&config.Archive.Config, log)
	if err != nil {
		return nil, apperrors.NewConfigurationError("archive: %v", err)
	}
	return client, nil
}
