package recorddump

// AgencyParams 按机构导出的请求参数, 作为 JSON 请求体发送
type AgencyParams struct {
	// Agencies 机构编号 (必填)
	Agencies []int `json:"agencies"`

	// RecordStatus ACTIVE / ALL / DELETED
	RecordStatus string `json:"recordStatus,omitempty"`

	// RecordType LOCAL / ENRICHMENT / HOLDINGS, FBS 机构必填
	RecordType []string `json:"recordType,omitempty"`

	// OutputFormat LINE / XML / LINE_XML
	OutputFormat string `json:"outputFormat,omitempty"`

	// OutputEncoding 输出字符集
	OutputEncoding string `json:"outputEncoding,omitempty"`

	// Mode RAW / MERGED / EXPANDED
	Mode string `json:"mode,omitempty"`

	// 创建时间与修改时间范围, 格式 YYYY-MM-DD 或 YYYY-MM-DD HH:mm:ss
	CreatedFrom  string `json:"createdFrom,omitempty"`
	CreatedTo    string `json:"createdTo,omitempty"`
	ModifiedFrom string `json:"modifiedFrom,omitempty"`
	ModifiedTo   string `json:"modifiedTo,omitempty"`
}

// RecordParams 按记录列表导出的参数, 以查询参数发送, 记录列表作为请求体
type RecordParams struct {
	OutputFormat   string
	OutputEncoding string
	Mode           string
}

// ValidationItem 服务端返回的单条参数校验错误
type ValidationItem struct {
	FieldName string `json:"fieldName"`
	Message   string `json:"message"`
}

// API 路径
const (
	pathDump        = "/api/v1/dump"
	pathDumpDryRun  = "/api/v1/dump/dryrun"
	pathDumpRecords = "/api/v1/dump/records"
	pathAgencies    = "/api/v1/agencies"
)
