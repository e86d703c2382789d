package biz

import (
	"strconv"
	"strings"

	"github.com/lk2023060901/rrdump/internal/dump/types"
)

const (
	agenciesField   = "agencies"
	recordTypeField = "recordType"

	// "Agency 123456 could not be validated by OpenAgency"
	unknownAgencyMarker = "could not be validated by OpenAgency"
	unknownAgencyPrefix = "Agency "
)

// RecordTypeHint recordType 必填时输出给操作员的提示
const RecordTypeHint = "                  Please add -t TYPE [TYPE ...], --type TYPE [TYPE ...]. See rrdump --help for more info"

// ParseRejectedAgency 从 "机构无法被 OpenAgency 校验" 的拒绝信息中提取机构 ID.
// 格式不完全匹配时 ok 为 false, 该条目不可恢复.
func ParseRejectedAgency(item types.ValidationItem) (id int, ok bool) {
	if item.FieldName != agenciesField {
		return 0, false
	}
	if !strings.Contains(item.Message, unknownAgencyMarker) {
		return 0, false
	}
	if !strings.HasPrefix(item.Message, unknownAgencyPrefix) {
		return 0, false
	}

	token := item.Message[len(unknownAgencyPrefix):]
	if end := strings.IndexByte(token, ' '); end >= 0 {
		token = token[:end]
	}

	id, err := strconv.Atoi(token)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// RecordTypeRequired 判断拒绝信息是否要求操作员指定 -t
func RecordTypeRequired(item types.ValidationItem) bool {
	if item.FieldName != recordTypeField {
		return false
	}
	return strings.Contains(strings.ToLower(item.Message), "required")
}

// ClassifyRejection 所有条目都是可恢复的未知机构拒绝时返回待剔除的机构,
// 只要有一条其他类型的条目 recoverable 即为 false.
func ClassifyRejection(items []types.ValidationItem) (agencies []int, recoverable bool) {
	if len(items) == 0 {
		return nil, false
	}
	for _, item := range items {
		id, ok := ParseRejectedAgency(item)
		if !ok {
			return nil, false
		}
		agencies = append(agencies, id)
	}
	return agencies, true
}
