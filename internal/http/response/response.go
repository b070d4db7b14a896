package response

import (
	"github.com/gin-gonic/gin"
)

const requestIDContextKey = "request_id"

// FieldError 字段级校验错误
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorBody 统一错误响应结构
type ErrorBody struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	Errors    []FieldError `json:"errors,omitempty"`
	RequestID string       `json:"requestId,omitempty"`
}

// Success 200 响应，payload 平铺在 success 字段旁
func Success(c *gin.Context, payload gin.H) {
	JSON(c, CodeOK, payload)
}

// SuccessWithMsg 仅带消息的 200 响应
func SuccessWithMsg(c *gin.Context, msg string) {
	JSON(c, CodeOK, gin.H{"message": msg})
}

// Created 201 响应
func Created(c *gin.Context, payload gin.H) {
	JSON(c, CodeCreated, payload)
}

// JSON 写入 success=true 的响应体
func JSON(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for key, value := range payload {
		body[key] = value
	}
	c.JSON(status, body)
}

// Error 错误响应，HTTP 状态码即业务状态码
func Error(c *gin.Context, statusCode int, msg string) {
	c.JSON(statusCode, ErrorBody{
		Success:   false,
		Message:   msg,
		RequestID: requestID(c),
	})
}

// ErrorWithFields 带字段错误的响应
func ErrorWithFields(c *gin.Context, statusCode int, msg string, fields []FieldError) {
	c.JSON(statusCode, ErrorBody{
		Success:   false,
		Message:   msg,
		Errors:    fields,
		RequestID: requestID(c),
	})
}

// ErrorWithData 错误响应附带额外字段
func ErrorWithData(c *gin.Context, statusCode int, msg string, extra gin.H) {
	body := gin.H{
		"success": false,
		"message": msg,
	}
	if id := requestID(c); id != "" {
		body["requestId"] = id
	}
	for key, value := range extra {
		body[key] = value
	}
	c.JSON(statusCode, body)
}

// NotFound 404响应
func NotFound(c *gin.Context, msg string) {
	Error(c, CodeNotFound, msg)
}

// Unauthorized 401响应
func Unauthorized(c *gin.Context, msg string) {
	Error(c, CodeUnauthorized, msg)
}

// Forbidden 403响应
func Forbidden(c *gin.Context, msg string) {
	Error(c, CodeForbidden, msg)
}

// BadRequest 400响应
func BadRequest(c *gin.Context, msg string) {
	Error(c, CodeBadRequest, msg)
}

func requestID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if value, ok := c.Get(requestIDContextKey); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
