package biz

import (
	"strings"
	"time"

	"github.com/lk2023060901/rrdump/internal/dump/types"
	apperrors "github.com/lk2023060901/rrdump/internal/pkg/errors"
	"github.com/spf13/afero"
)

// 创建/修改时间边界支持的格式
const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// DumpOptions 命令行解析后的操作员输入, 空字符串和 nil 切片表示未指定
type DumpOptions struct {
	Agencies    []int
	RecordsFile string

	Mode     string
	Format   string
	Encoding string
	Status   string
	Types    []string

	CreatedFrom  string
	CreatedTo    string
	ModifiedFrom string
	ModifiedTo   string

	DryRun bool
}

// ParamsBuilder 把 DumpOptions 转换为 RequestParameters
type ParamsBuilder struct {
	fs afero.Fs
}

// NewParamsBuilder 创建参数构建器, 记录文件从 fs 读取
func NewParamsBuilder(fs afero.Fs) *ParamsBuilder {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &ParamsBuilder{fs: fs}
}

// Build 根据选项确定导出目标并构建请求, 所有错误均为配置错误
func (b *ParamsBuilder) Build(opts *DumpOptions) (*types.RequestParameters, error) {
	if opts == nil {
		return nil, apperrors.Wrap(ErrNoTarget, apperrors.ErrConfiguration)
	}

	hasAgencies := len(opts.Agencies) > 0
	hasRecords := opts.RecordsFile != ""
	switch {
	case hasAgencies && hasRecords:
		return nil, apperrors.Wrap(ErrBothTargets, apperrors.ErrConfiguration)
	case hasRecords:
		return b.BuildRecordParams(opts)
	case hasAgencies:
		return b.BuildAgencyParams(opts)
	default:
		return nil, apperrors.Wrap(ErrNoTarget, apperrors.ErrConfiguration)
	}
}

// BuildAgencyParams 构建按机构导出的请求
func (b *ParamsBuilder) BuildAgencyParams(opts *DumpOptions) (*types.RequestParameters, error) {
	if opts.RecordsFile != "" {
		return nil, apperrors.Wrap(ErrBothTargets, apperrors.ErrConfiguration)
	}
	if err := types.CheckAgencies(opts.Agencies); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrConfiguration)
	}

	params := &types.RequestParameters{
		Target:   types.TargetAgencyBatch,
		Agencies: append([]int(nil), opts.Agencies...),
		DryRun:   opts.DryRun,
	}

	if err := applyCommon(params, opts); err != nil {
		return nil, err
	}

	if opts.Status != "" {
		status, err := types.ParseRecordStatus(opts.Status)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrConfiguration)
		}
		params.RecordStatus = &status
	}

	for _, t := range opts.Types {
		rt, err := types.ParseRecordType(t)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrConfiguration)
		}
		params.RecordTypes = append(params.RecordTypes, rt)
	}

	bounds := []struct {
		name  string
		value string
		dst   **string
	}{
		{"created-from", opts.CreatedFrom, &params.CreatedFrom},
		{"created-to", opts.CreatedTo, &params.CreatedTo},
		{"modified-from", opts.ModifiedFrom, &params.ModifiedFrom},
		{"modified-to", opts.ModifiedTo, &params.ModifiedTo},
	}
	for _, bound := range bounds {
		if bound.value == "" {
			continue
		}
		if !validDate(bound.value) {
			return nil, apperrors.NewConfigurationError(
				"--%s %q must be formatted as YYYY-MM-DD or YYYY-MM-DD HH:mm:ss", bound.name, bound.value)
		}
		v := bound.value
		*bound.dst = &v
	}

	return params, nil
}

// BuildRecordParams 构建按记录列表导出的请求. 记录文件会被完整读取,
// 仅适用于机构导出的选项被忽略.
func (b *ParamsBuilder) BuildRecordParams(opts *DumpOptions) (*types.RequestParameters, error) {
	if len(opts.Agencies) > 0 {
		return nil, apperrors.Wrap(ErrBothTargets, apperrors.ErrConfiguration)
	}
	if opts.RecordsFile == "" {
		return nil, apperrors.Wrap(ErrNoTarget, apperrors.ErrConfiguration)
	}

	body, err := ReadRecordList(b.fs, opts.RecordsFile)
	if err != nil {
		return nil, err
	}

	params := &types.RequestParameters{
		Target:     types.TargetRecordList,
		RecordList: body,
		DryRun:     opts.DryRun,
	}
	if err := applyCommon(params, opts); err != nil {
		return nil, err
	}
	return params, nil
}

// applyCommon 复制两种导出目标共用的选项
func applyCommon(params *types.RequestParameters, opts *DumpOptions) error {
	if opts.Format != "" {
		format, err := types.ParseOutputFormat(opts.Format, params.Target)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrConfiguration)
		}
		params.OutputFormat = &format
	}

	if opts.Encoding != "" {
		encoding := NormalizeEncoding(opts.Encoding)
		params.OutputEncoding = &encoding
	}

	if opts.Mode != "" {
		mode, err := types.ParseMode(opts.Mode)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrConfiguration)
		}
		params.Mode = &mode
	}

	return nil
}

// ReadRecordList 读取 bibliographicrecordid:agencyid 格式的记录文件, 以换行符连接.
// 末尾换行不产生空行, 支持 CRLF 换行.
func ReadRecordList(fs afero.Fs, path string) (string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return "", apperrors.Wrapf(err, apperrors.ErrConfiguration,
			"error accessing the file '%s'. Does it exist?", path)
	}

	content := string(data)
	if content == "" {
		return "", apperrors.Wrapf(ErrEmptyRecordFile, apperrors.ErrConfiguration, "file '%s'", path)
	}

	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return strings.Join(lines, "\n"), nil
}

// NormalizeEncoding 把 LATIN-1 映射为导出服务接受的字符集名称, 其余名称原样返回
func NormalizeEncoding(encoding string) string {
	if strings.EqualFold(encoding, "LATIN-1") {
		return "LATIN1"
	}
	return encoding
}

func validDate(value string) bool {
	for _, layout := range []string{dateLayout, dateTimeLayout} {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}
