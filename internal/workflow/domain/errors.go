package domain

import "fmt"

// 业务错误码，直接出现在 HTTP 响应与审计日志中
const (
	CodeForbiddenTransition = "FORBIDDEN_TRANSITION"
	CodeDocumentsIncomplete = "DOCUMENTS_INCOMPLETE"
	CodeStaleState          = "STALE_STATE"
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeNotFound            = "NOT_FOUND"
	CodeInternal            = "INTERNAL"
)

// Error 携带业务错误码的领域错误
type Error struct {
	Code    string
	Message string
	Details interface{}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewForbiddenTransition 角色在当前状态下无权执行该转移
func NewForbiddenTransition(role Role, from, to Status) *Error {
	return &Error{
		Code:    CodeForbiddenTransition,
		Message: fmt.Sprintf("role %s cannot move application from %s to %s", role, from, to),
	}
}

// NewDocumentsIncomplete 必交材料未齐，阻止向前转移
func NewDocumentsIncomplete(missing []DocumentType) *Error {
	return &Error{
		Code:    CodeDocumentsIncomplete,
		Message: "required documents are missing",
		Details: map[string]interface{}{"missing_documents": missing},
	}
}

// NewStaleState 乐观并发冲突：调用方看到的状态已过期
func NewStaleState(expected, actual Status) *Error {
	return &Error{
		Code:    CodeStaleState,
		Message: fmt.Sprintf("application is in %s, not %s; reload and retry", actual, expected),
	}
}

// NewValidationFailed 入参校验失败
func NewValidationFailed(message string) *Error {
	return &Error{
		Code:    CodeValidationFailed,
		Message: message,
	}
}

// NewNotFound 资源不存在
func NewNotFound(kind string, id interface{}) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %v not found", kind, id),
	}
}
