// Package apperrors 定义业务错误分类：NotFound、Forbidden、InvalidInput、UploadError
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// 错误分类哨兵，使用 errors.Is 判断
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrUpload       = errors.New("upload failed")
)

// Error 带分类的业务错误
type Error struct {
	Kind    error  `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	Cause   error  `json:"-"`
}

// Error 实现 error 接口
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Is 与分类哨兵匹配
func (e *Error) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// Unwrap 返回底层错误
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetails 添加错误详情
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

func newError(kind error, code string, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// NotFound 资源不存在
func NotFound(format string, args ...any) *Error {
	return newError(ErrNotFound, "NOT_FOUND", nil, format, args...)
}

// Forbidden 资源不属于调用方
func Forbidden(format string, args ...any) *Error {
	return newError(ErrForbidden, "FORBIDDEN", nil, format, args...)
}

// InvalidInput 参数不合法
func InvalidInput(format string, args ...any) *Error {
	return newError(ErrInvalidInput, "INVALID_INPUT", nil, format, args...)
}

// Upload 图床上传失败
func Upload(cause error, format string, args ...any) *Error {
	return newError(ErrUpload, "UPLOAD_ERROR", cause, format, args...)
}

// HTTPStatus 将错误分类映射为 HTTP 状态码
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUpload):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Message 返回可以展示给调用方的错误信息，未分类错误只返回通用描述
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden),
		errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUpload):
		return err.Error()
	}
	return "internal server error"
}
