package service

import (
	"errors"
	"fmt"
)

// ErrNotFound 实体不存在或不属于请求者（越权一律按不存在处理，不泄露他人数据）
var ErrNotFound = errors.New("not found")

// ErrTokenInvalid 上报令牌无效或已过期
var ErrTokenInvalid = errors.New("invalid or expired device token")

// ValidationError 表单值校验失败（在任何写入之前拒绝，由前端内联展示）
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// IsValidationError 判断是否为校验错误
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
