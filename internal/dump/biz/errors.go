package biz

import "errors"

// 重试相关错误
var (
	ErrNoAgenciesLeft = errors.New("every agency was rejected by the dump service")
	ErrNoProgress     = errors.New("rejected agencies are not part of the request")
)

// 参数构建错误
var (
	ErrBothTargets     = errors.New("agencies and a record file are mutually exclusive")
	ErrNoTarget        = errors.New("either agencies or a record file is required")
	ErrEmptyRecordFile = errors.New("record file contains no records")
)
