package types

import "strings"

// ValidationItem 导出服务结构化拒绝信息中的一条
type ValidationItem struct {
	FieldName string `json:"fieldName"`
	Message   string `json:"message"`
}

// State 导出流程的状态
type State string

const (
	StateInit       State = "Init"
	StateCountProbe State = "CountProbe"
	StateRecovering State = "Recovering"
	StateCommitting State = "Committing"
	StateCommitted  State = "Committed"
	StateAborted    State = "Aborted"
)

// Rejection 导出服务拒绝请求参数时由仓储返回, 编排器根据 Items 决定能否剔除机构后重试
type Rejection struct {
	Items []ValidationItem
}

func (r *Rejection) Error() string {
	parts := make([]string, 0, len(r.Items))
	for _, item := range r.Items {
		parts = append(parts, item.FieldName+": "+item.Message)
	}
	return "request rejected: " + strings.Join(parts, "; ")
}
