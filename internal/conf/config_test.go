package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/lk2023060901/rrdump/internal/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringP("url", "u", "", "")
	fs.String("log-level", "", "")
	fs.String("log-format", "", "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rrdump.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("", newFlags(t, "-u", "http://rawrepo-record-service/"))
	require.NoError(t, err)

	assert.Equal(t, "http://rawrepo-record-service", cfg.Dump.BaseURL)
	assert.Equal(t, time.Duration(0), cfg.Dump.Timeout)
	assert.Equal(t, "rrdump", cfg.Dump.UserAgent)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.False(t, cfg.Agencies.Cache.Enabled())
	assert.Equal(t, time.Hour, cfg.Agencies.CacheTTL)
	assert.False(t, cfg.Archive.Enabled)
}

func TestLoadConfig_MissingURL(t *testing.T) {
	_, err := LoadConfig("", newFlags(t))
	require.Error(t, err)
	assert.Equal(t, apperrors.ExitUsage, apperrors.ExitCodeOf(err))
	assert.Contains(t, apperrors.GetDetails(err), "-u/--url")
}

func TestLoadConfig_InvalidURL(t *testing.T) {
	_, err := LoadConfig("", newFlags(t, "--url", "ftp://example.org"))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConfiguration))
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  format: json
dump:
  url: http://from-file
  timeout: 90s
agencies:
  cache:
    addr: localhost:6379
    db: 2
  cache_ttl: 10m
archive:
  enabled: true
  bucket: dumps
  prefix: nightly
  endpoint: localhost:9000
  access_key_id: key
  secret_access_key: secret
  use_ssl: false
`)

	cfg, err := LoadConfig(path, newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "http://from-file", cfg.Dump.BaseURL)
	assert.Equal(t, 90*time.Second, cfg.Dump.Timeout)
	assert.Equal(t, "localhost:6379", cfg.Agencies.Cache.Addr)
	assert.Equal(t, 2, cfg.Agencies.Cache.DB)
	assert.Equal(t, 10*time.Minute, cfg.Agencies.CacheTTL)
	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, "dumps", cfg.Archive.Bucket)
	assert.Equal(t, "nightly", cfg.Archive.Prefix)
	assert.Equal(t, "localhost:9000", cfg.Archive.Endpoint)
	assert.False(t, cfg.Archive.UseSSL)
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := writeConfig(t, `
dump:
  url: http://from-file
log:
  level: warn
`)
	t.Setenv("RRDUMP_DUMP_URL", "http://from-env")
	t.Setenv("RRDUMP_LOG_LEVEL", "error")

	cfg, err := LoadConfig(path, newFlags(t))
	require.NoError(t, err)
	assert.Equal(t, "http://from-env", cfg.Dump.BaseURL)
	assert.Equal(t, "error", cfg.Log.Level)

	cfg, err = LoadConfig(path, newFlags(t, "--url", "http://from-flag", "--log-level", "debug"))
	require.NoError(t, err)
	assert.Equal(t, "http://from-flag", cfg.Dump.BaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), newFlags(t, "-u", "http://x"))
	require.Error(t, err)
	assert.Equal(t, apperrors.ExitUsage, apperrors.ExitCodeOf(err))
}

func TestLoadConfig_InvalidSections(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "log level",
			env:  map[string]string{"RRDUMP_LOG_LEVEL": "verbose"},
		},
		{
			name: "archive without endpoint",
			env:  map[string]string{"RRDUMP_ARCHIVE_ENABLED": "true"},
		},
		{
			name: "archive bucket name",
			env: map[string]string{
				"RRDUMP_ARCHIVE_ENABLED":           "true",
				"RRDUMP_ARCHIVE_BUCKET":            "Bad_Bucket",
				"RRDUMP_ARCHIVE_ENDPOINT":          "localhost:9000",
				"RRDUMP_ARCHIVE_ACCESS_KEY_ID":     "key",
				"RRDUMP_ARCHIVE_SECRET_ACCESS_KEY": "secret",
			},
		},
		{
			name: "cache db",
			env: map[string]string{
				"RRDUMP_AGENCIES_CACHE_ADDR": "localhost:6379",
				"RRDUMP_AGENCIES_CACHE_DB":   "16",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig("", newFlags(t, "-u", "http://x"))
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.ErrConfiguration))
		})
	}
}
