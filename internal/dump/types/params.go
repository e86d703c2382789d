package types

import (
	"fmt"
	"sort"
	"strings"
)

// AggregateAgency 汇总公共增强记录的保留机构, 不能与其他机构一起导出
const AggregateAgency = 191919

// TargetMode 导出目标类型
type TargetMode int

const (
	TargetAgencyBatch TargetMode = iota + 1
	TargetRecordList
)

func (m TargetMode) String() string {
	switch m {
	case TargetAgencyBatch:
		return "AgencyBatch"
	case TargetRecordList:
		return "ExplicitRecordList"
	default:
		return "Unknown"
	}
}

// RecordStatus 按删除状态过滤记录
type RecordStatus string

const (
	RecordStatusActive  RecordStatus = "ACTIVE"
	RecordStatusAll     RecordStatus = "ALL"
	RecordStatusDeleted RecordStatus = "DELETED"
)

// RecordType 机构的 FBS 记录类型
type RecordType string

const (
	RecordTypeLocal      RecordType = "LOCAL"
	RecordTypeEnrichment RecordType = "ENRICHMENT"
	RecordTypeHoldings   RecordType = "HOLDINGS"
)

// OutputFormat 导出记录的序列化格式
type OutputFormat string

const (
	OutputFormatLine    OutputFormat = "LINE"
	OutputFormatXML     OutputFormat = "XML"
	OutputFormatLineXML OutputFormat = "LINE_XML"
	OutputFormatJSON    OutputFormat = "JSON"
)

// Mode 导出服务组装记录的方式
type Mode string

const (
	ModeRaw      Mode = "RAW"
	ModeMerged   Mode = "MERGED"
	ModeExpanded Mode = "EXPANDED"
)

var (
	recordStatuses = []RecordStatus{RecordStatusActive, RecordStatusAll, RecordStatusDeleted}
	recordTypes    = []RecordType{RecordTypeLocal, RecordTypeEnrichment, RecordTypeHoldings}
	modes          = []Mode{ModeRaw, ModeMerged, ModeExpanded}

	agencyFormats = []OutputFormat{OutputFormatLine, OutputFormatXML, OutputFormatLineXML}
	recordFormats = []OutputFormat{OutputFormatLine, OutputFormatXML, OutputFormatLineXML, OutputFormatJSON}
)

// ParseRecordStatus 解析大写的状态名称
func ParseRecordStatus(s string) (RecordStatus, error) {
	for _, v := range recordStatuses {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid record status %q, must be one of %s", s, joinNames(recordStatuses))
}

// ParseRecordType 解析大写的记录类型名称
func ParseRecordType(s string) (RecordType, error) {
	for _, v := range recordTypes {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid record type %q, must be one of %s", s, joinNames(recordTypes))
}

// ParseMode 解析大写的模式名称
func ParseMode(s string) (Mode, error) {
	for _, v := range modes {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid mode %q, must be one of %s", s, joinNames(modes))
}

// ParseOutputFormat 解析目标类型允许的格式名称, JSON 仅用于记录列表导出
func ParseOutputFormat(s string, target TargetMode) (OutputFormat, error) {
	allowed := agencyFormats
	if target == TargetRecordList {
		allowed = recordFormats
	}
	for _, v := range allowed {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid output format %q for %s, must be one of %s", s, target, joinNames(allowed))
}

// RecordStatusNames 可用的状态名称, 用于命令行帮助
func RecordStatusNames() []string { return names(recordStatuses) }

// RecordTypeNames 可用的记录类型名称, 用于命令行帮助
func RecordTypeNames() []string { return names(recordTypes) }

// ModeNames 可用的模式名称, 用于命令行帮助
func ModeNames() []string { return names(modes) }

// OutputFormatNames 全部输出格式名称, 用于命令行帮助
func OutputFormatNames() []string { return names(recordFormats) }

func names[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func joinNames[T ~string](values []T) string {
	return strings.Join(names(values), ", ")
}

// RequestParameters 发送给导出服务的请求参数.
// 根据 Target, Agencies 与 RecordList 二者只填其一.
// 操作员未指定的可选字段为 nil, 由服务端使用默认值.
type RequestParameters struct {
	Target TargetMode

	Agencies   []int
	RecordList string

	RecordStatus   *RecordStatus
	RecordTypes    []RecordType
	OutputFormat   *OutputFormat
	OutputEncoding *string
	Mode           *Mode

	CreatedFrom  *string
	CreatedTo    *string
	ModifiedFrom *string
	ModifiedTo   *string

	DryRun bool
}

// RemoveAgency 从请求中移除机构 id, 保持其余机构的顺序, 返回是否有移除
func (p *RequestParameters) RemoveAgency(id int) bool {
	for i, a := range p.Agencies {
		if a == id {
			p.Agencies = append(p.Agencies[:i], p.Agencies[i+1:]...)
			return true
		}
	}
	return false
}

// CheckTarget 检查是否恰好填写了一种导出目标
func (p *RequestParameters) CheckTarget() error {
	hasAgencies := len(p.Agencies) > 0
	hasRecords := p.RecordList != ""

	switch {
	case hasAgencies && hasRecords:
		return fmt.Errorf("both agencies and a record list are set")
	case !hasAgencies && !hasRecords:
		return fmt.Errorf("neither agencies nor a record list are set")
	case hasAgencies && p.Target != TargetAgencyBatch:
		return fmt.Errorf("agencies set on a %s request", p.Target)
	case hasRecords && p.Target != TargetRecordList:
		return fmt.Errorf("record list set on a %s request", p.Target)
	}
	return nil
}

// CheckAgencies 检查机构列表: 必须为正数且不重复, 汇总机构只能单独出现
func CheckAgencies(agencies []int) error {
	if len(agencies) == 0 {
		return fmt.Errorf("no agencies given")
	}
	seen := make(map[int]struct{}, len(agencies))
	for _, a := range agencies {
		if a <= 0 {
			return fmt.Errorf("agency id must be positive, got %d", a)
		}
		if _, dup := seen[a]; dup {
			return fmt.Errorf("agency %d given more than once", a)
		}
		seen[a] = struct{}{}
	}
	if _, ok := seen[AggregateAgency]; ok && len(agencies) > 1 {
		return fmt.Errorf("agency %d cannot be dumped together with other agencies", AggregateAgency)
	}
	return nil
}

// WithoutAggregate 返回去掉汇总机构后排序的机构列表副本
func WithoutAggregate(agencies []int) []int {
	out := make([]int, 0, len(agencies))
	for _, a := range agencies {
		if a != AggregateAgency {
			out = append(out, a)
		}
	}
	sort.Ints(out)
	return out
}
