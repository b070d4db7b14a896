package response

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
)

// AppError 携带 HTTP 状态码与对外消息的错误
type AppError struct {
	Code    int
	Message string
	Fields  []FieldError
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WrapError 包装底层错误
func WrapError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// ValidationError 字段校验失败
func ValidationError(message string, fields []FieldError) *AppError {
	return &AppError{Code: CodeBadRequest, Message: message, Fields: fields}
}

// AsAppError 从错误链中取出 AppError
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr, true
	}
	return nil, false
}

// Respond 按 AppError 写出错误响应
func Respond(c *gin.Context, appErr *AppError) {
	if appErr == nil {
		Error(c, CodeInternal, "Server Error")
		return
	}
	if len(appErr.Fields) > 0 {
		ErrorWithFields(c, appErr.Code, appErr.Message, appErr.Fields)
		return
	}
	Error(c, appErr.Code, appErr.Message)
}
