package recorddump

import (
	"errors"
	"fmt"
	"strings"
)

// 预定义错误
var (
	ErrInvalidConfig = errors.New("recorddump: invalid configuration")
	ErrEmptyResponse = errors.New("recorddump: empty response")
	ErrEmptyBody     = errors.New("recorddump: record list is empty")
	ErrNoAgencies    = errors.New("recorddump: no agencies in request")
)

// maxBodyExcerpt 错误信息中保留的响应体长度
const maxBodyExcerpt = 512

// ValidationError 服务端拒绝请求参数 (HTTP 400 + 结构化错误列表)
type ValidationError struct {
	Items []ValidationItem
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		parts = append(parts, fmt.Sprintf("%s: %s", item.FieldName, item.Message))
	}
	return "recorddump: request rejected: " + strings.Join(parts, "; ")
}

// StatusError 服务端返回了非预期的 HTTP 状态码
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("recorddump: %s %s: unexpected status code %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("recorddump: %s %s: unexpected status code %d", e.Method, e.Path, e.StatusCode)
}

// RequestError 请求未能完成 (连接失败, 超时, 读取响应失败)
type RequestError struct {
	Method string
	Path   string
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("recorddump: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxBodyExcerpt {
		return s[:maxBodyExcerpt] + "..."
	}
	return s
}
