package recorddump

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Config 记录导出服务配置
type Config struct {
	// BaseURL 服务基础地址, e.g. http://rawrepo-record-service.fbstest.svc.cloud.dbc.dk
	BaseURL string `mapstructure:"url" yaml:"url"`

	// Timeout 单次请求超时时间, 0 表示不限制 (导出可能持续很久)
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// UserAgent 请求头中的 User-Agent
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("recorddump: url is required")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return errors.New("recorddump: url is not valid: " + err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("recorddump: url must start with http:// or https://")
	}
	if u.Host == "" {
		return errors.New("recorddump: url has no host")
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	if c.Timeout < 0 {
		return errors.New("recorddump: timeout must be >= 0")
	}

	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}

	return nil
}

// DefaultUserAgent identifies the tool towards the service
const DefaultUserAgent = "rrdump"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Timeout:   0,
		UserAgent: DefaultUserAgent,
	}
}
