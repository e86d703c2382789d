package recorddump

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/lk2023060901/rrdump/internal/pkg/logger"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Client 记录导出服务 HTTP 客户端
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *logger.Logger
}

// New 创建客户端
func New(cfg *Config, log *logger.Logger) (*Client, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: log.Named("recorddump"),
	}, nil
}

// BaseURL 返回服务地址
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// DumpAgenciesDryRun 只获取导出统计信息, 不导出记录
func (c *Client) DumpAgenciesDryRun(ctx context.Context, params *AgencyParams) (string, error) {
	if err := checkAgencyParams(params); err != nil {
		return "", err
	}

	resp, err := c.doJSON(ctx, pathDumpDryRun, params)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &RequestError{Method: http.MethodPost, Path: pathDumpDryRun, Err: fmt.Errorf("read response: %w", err)}
	}

	return joinLines(string(data)), nil
}

// DumpAgencies 导出机构记录, 调用方负责关闭返回的数据流
func (c *Client) DumpAgencies(ctx context.Context, params *AgencyParams) (io.ReadCloser, error) {
	if err := checkAgencyParams(params); err != nil {
		return nil, err
	}

	resp, err := c.doJSON(ctx, pathDump, params)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// DumpRecords 按记录列表导出, body 为换行分隔的 bibliographicrecordid:agencyid
func (c *Client) DumpRecords(ctx context.Context, params *RecordParams, body string) (io.ReadCloser, error) {
	if body == "" {
		return nil, ErrEmptyBody
	}
	if params == nil {
		params = &RecordParams{}
	}

	query := url.Values{}
	if params.OutputFormat != "" {
		query.Set("outputFormat", params.OutputFormat)
	}
	if params.OutputEncoding != "" {
		query.Set("outputEncoding", params.OutputEncoding)
	}
	if params.Mode != "" {
		query.Set("mode", params.Mode)
	}

	c.logger.Debug("recorddump request",
		zap.String("path", pathDumpRecords),
		zap.String("query", query.Encode()),
		zap.Int("body_bytes", len(body)),
	)

	resp, err := c.do(ctx, http.MethodPost, pathDumpRecords, query, "text/plain", strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// ListAgencies 获取服务端已知的全部机构编号.
// 响应可以是 JSON 数组, 也可以是带 agencies 字段的对象.
func (c *Client) ListAgencies(ctx context.Context) ([]int, error) {
	resp, err := c.do(ctx, http.MethodGet, pathAgencies, nil, "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Method: http.MethodGet, Path: pathAgencies, Err: fmt.Errorf("read response: %w", err)}
	}

	agencies, err := parseAgencies(data)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("agencies listed", zap.Int("count", len(agencies)))
	return agencies, nil
}

// doJSON 发送 JSON 请求体
func (c *Client) doJSON(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	c.logger.Debug("recorddump request",
		zap.String("path", path),
		zap.String("body", string(data)),
	)

	return c.do(ctx, http.MethodPost, path, nil, "application/json", bytes.NewReader(data))
}

// do 执行 HTTP 请求. 只有 200 会返回响应, 其他状态码都转换为错误并关闭响应体.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, contentType string, body io.Reader) (*http.Response, error) {
	target := c.config.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("recorddump request failed",
			zap.String("method", method),
			zap.String("url", target),
			zap.Error(err),
		)
		return nil, &RequestError{Method: method, Path: path, Err: err}
	}

	c.logger.Debug("recorddump response",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	if resp.StatusCode == http.StatusOK {
		return resp, nil
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, &RequestError{Method: method, Path: path, Err: fmt.Errorf("read error response: %w", readErr)}
	}

	if resp.StatusCode == http.StatusBadRequest {
		if items := parseValidationItems(data); len(items) > 0 {
			return nil, &ValidationError{Items: items}
		}
	}

	return nil, &StatusError{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Body:       excerpt(data),
	}
}

// Close 关闭客户端
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// parseValidationItems 解析 {"errors":[{"fieldName":..,"message":..}]}.
// 无法识别的响应体返回 nil, 由调用方按普通状态码错误处理.
func parseValidationItems(body []byte) []ValidationItem {
	if !gjson.ValidBytes(body) {
		return nil
	}

	list := gjson.GetBytes(body, "errors")
	if !list.IsArray() {
		list = gjson.ParseBytes(body)
		if !list.IsArray() {
			return nil
		}
	}

	var items []ValidationItem
	list.ForEach(func(_, value gjson.Result) bool {
		field := value.Get("fieldName")
		message := value.Get("message")
		if !field.Exists() && !message.Exists() {
			return true
		}
		items = append(items, ValidationItem{
			FieldName: field.String(),
			Message:   message.String(),
		})
		return true
	})
	return items
}

func parseAgencies(body []byte) ([]int, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("recorddump: agency list is not valid JSON: %s", excerpt(body))
	}

	list := gjson.ParseBytes(body)
	if !list.IsArray() {
		list = list.Get("agencies")
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("recorddump: agency list has no agencies array: %s", excerpt(body))
	}

	var (
		agencies []int
		badValue string
	)
	list.ForEach(func(_, value gjson.Result) bool {
		id := value.Int()
		if id <= 0 || value.Type == gjson.JSON {
			badValue = value.Raw
			return false
		}
		agencies = append(agencies, int(id))
		return true
	})
	if badValue != "" {
		return nil, fmt.Errorf("recorddump: invalid agency id %s", badValue)
	}
	if len(agencies) == 0 {
		return nil, ErrEmptyResponse
	}
	return agencies, nil
}

func checkAgencyParams(params *AgencyParams) error {
	if params == nil || len(params.Agencies) == 0 {
		return ErrNoAgencies
	}
	return nil
}

// joinLines 按行读取后以单个换行符重新拼接, 去掉 \r 与结尾空行
func joinLines(s string) string {
	lines := strings.Split(s, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return strings.Join(lines, "\n")
}
