package conf

import (
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/lk2023060901/rrdump/internal/pkg/errors"
	"github.com/lk2023060901/rrdump/internal/pkg/logger"
	"github.com/lk2023060901/rrdump/internal/pkg/minio"
	"github.com/lk2023060901/rrdump/internal/pkg/recorddump"
	"github.com/lk2023060901/rrdump/internal/pkg/redis"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. RRDUMP_DUMP_URL
const EnvPrefix = "RRDUMP"

type Config struct {
	Log      logger.Config     `mapstructure:"log"`
	Dump     recorddump.Config `mapstructure:"dump"`
	Agencies AgenciesConfig    `mapstructure:"agencies"`
	Archive  ArchiveConfig     `mapstructure:"archive"`
}

type AgenciesConfig struct {
	Cache    redis.Config  `mapstructure:"cache"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type ArchiveConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Bucket       string `mapstructure:"bucket"`
	Prefix       string `mapstructure:"prefix"`
	minio.Config `mapstructure:",squash"`
}

// flagKeys maps config keys to the CLI flags overriding them
var flagKeys = map[string]string{
	"dump.url":   "url",
	"log.level":  "log-level",
	"log.format": "log-format",
}

// LoadConfig reads configuration from defaults, the optional YAML file at
// path, RRDUMP_* environment variables and the changed flags, in increasing
// order of precedence. Every failure is a configuration error.
func LoadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, apperrors.NewConfigurationError("failed to read config '%s': %v", path, err)
		}
	}

	if flags != nil {
		for key, name := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, apperrors.NewConfigurationError("failed to bind flag --%s: %v", name, err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, apperrors.NewConfigurationError("failed to unmarshal config: %v", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	logDefaults := logger.DefaultConfig()
	v.SetDefault("log.level", logDefaults.Level)
	v.SetDefault("log.format", logDefaults.Format)
	v.SetDefault("log.output", logDefaults.Output)
	v.SetDefault("log.enablecaller", logDefaults.EnableCaller)
	v.SetDefault("log.enablestacktrace", logDefaults.EnableStacktrace)
	v.SetDefault("log.file.filename", logDefaults.File.Filename)
	v.SetDefault("log.file.maxsize", logDefaults.File.MaxSize)
	v.SetDefault("log.file.maxage", logDefaults.File.MaxAge)
	v.SetDefault("log.file.maxbackups", logDefaults.File.MaxBackups)
	v.SetDefault("log.file.compress", logDefaults.File.Compress)

	dumpDefaults := recorddump.DefaultConfig()
	v.SetDefault("dump.url", "")
	v.SetDefault("dump.timeout", dumpDefaults.Timeout)
	v.SetDefault("dump.user_agent", dumpDefaults.UserAgent)

	cacheDefaults := redis.DefaultConfig()
	v.SetDefault("agencies.cache.addr", "")
	v.SetDefault("agencies.cache.username", "")
	v.SetDefault("agencies.cache.password", "")
	v.SetDefault("agencies.cache.db", cacheDefaults.DB)
	v.SetDefault("agencies.cache.dial_timeout", cacheDefaults.DialTimeout)
	v.SetDefault("agencies.cache.read_timeout", cacheDefaults.ReadTimeout)
	v.SetDefault("agencies.cache.write_timeout", cacheDefaults.WriteTimeout)
	v.SetDefault("agencies.cache.max_retries", cacheDefaults.MaxRetries)
	v.SetDefault("agencies.cache_ttl", time.Hour)

	archiveDefaults := minio.DefaultConfig()
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.bucket", "rrdump")
	v.SetDefault("archive.prefix", "dumps")
	v.SetDefault("archive.endpoint", "")
	v.SetDefault("archive.access_key_id", "")
	v.SetDefault("archive.secret_access_key", "")
	v.SetDefault("archive.session_token", "")
	v.SetDefault("archive.region", "")
	v.SetDefault("archive.use_ssl", archiveDefaults.UseSSL)
	v.SetDefault("archive.bucket_lookup", string(archiveDefaults.BucketLookup))
	v.SetDefault("archive.request_timeout", archiveDefaults.RequestTimeout)
}

// Validate checks every section that will be used by this run
func (c *Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return apperrors.NewConfigurationError("log: %v", err)
	}

	if c.Dump.BaseURL == "" {
		return apperrors.NewConfigurationError("the following arguments are required: -u/--url")
	}
	if err := c.Dump.Validate(); err != nil {
		return apperrors.NewConfigurationError("argument -u/--url: %v", err)
	}

	if c.Agencies.Cache.Enabled() {
		if err := c.Agencies.Cache.Validate(); err != nil {
			return apperrors.NewConfigurationError("agencies.cache: %v", err)
		}
	}
	if c.Agencies.CacheTTL < 0 {
		return apperrors.NewConfigurationError("agencies.cache_ttl must be >= 0")
	}

	if c.Archive.Enabled {
		if err := c.Archive.validate(); err != nil {
			return apperrors.NewConfigurationError("archive: %v", err)
		}
	}
	return nil
}

func (a *ArchiveConfig) validate() error {
	if a.Bucket == "" {
		return errors.New("bucket is required")
	}
	if err := minio.ValidateBucketName(a.Bucket); err != nil {
		return fmt.Errorf("bucket %q: %w", a.Bucket, err)
	}
	a.Config.SetDefaults()
	return a.Config.Validate()
}
