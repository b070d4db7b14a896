package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/sharperly/logistics-api/internal/http/response"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const validationFailedMessage = "Validation failed"

var phonePattern = regexp.MustCompile(`^[+]?[1-9]\d{0,15}$`)

var registerValidatorsOnce sync.Once

// RegisterValidators 为 gin 的校验引擎注册 json 字段名与自定义规则
func RegisterValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tagKey := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tagKey), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return f.Name
		})
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return IsValidPhone(fl.Field().String())
		})
	})
}

// IsValidPhone 校验电话号码格式
func IsValidPhone(value string) bool {
	return phonePattern.MatchString(strings.TrimSpace(value))
}

// BindJSON 绑定 JSON 请求体，失败时直接写入 400 响应
func BindJSON(c *gin.Context, req interface{}) bool {
	RegisterValidators()
	if err := c.ShouldBindJSON(req); err != nil {
		respondBindError(c, req, err)
		return false
	}
	return true
}

// Bind 按 Content-Type 绑定 JSON 或表单
func Bind(c *gin.Context, req interface{}) bool {
	RegisterValidators()
	if err := c.ShouldBind(req); err != nil {
		respondBindError(c, req, err)
		return false
	}
	return true
}

// DecodeBody 仅解码 JSON 或表单请求体，不做校验，配合 Validate 在补齐字段后再校验
func DecodeBody(c *gin.Context, req interface{}) bool {
	RegisterValidators()
	var err error
	if c.ContentType() == binding.MIMEJSON {
		err = json.NewDecoder(c.Request.Body).Decode(req)
	} else {
		if _, mpErr := c.MultipartForm(); mpErr != nil && !errors.Is(mpErr, http.ErrNotMultipart) {
			err = mpErr
		}
		if err == nil {
			err = c.Request.ParseForm()
		}
		if err == nil {
			err = binding.MapFormWithTag(req, c.Request.Form, "form")
		}
	}
	if err != nil {
		respondBindError(c, req, err)
		return false
	}
	return true
}

// Validate 使用 gin 的校验引擎校验已解码的请求
func Validate(c *gin.Context, req interface{}) bool {
	RegisterValidators()
	if err := binding.Validator.ValidateStruct(req); err != nil {
		respondBindError(c, req, err)
		return false
	}
	return true
}

// RespondValidation 返回字段级校验错误
func RespondValidation(c *gin.Context, fields []response.FieldError) {
	response.Respond(c, response.ValidationError(validationFailedMessage, fields))
}

func respondBindError(c *gin.Context, req interface{}, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]response.FieldError, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			fields = append(fields, response.FieldError{
				Field:   fieldPath(fieldErr),
				Message: validationMessage(req, fieldErr),
			})
		}
		RespondValidation(c, fields)
		return
	}
	if errors.Is(err, io.EOF) {
		RespondError(c, response.CodeBadRequest, "Request body is required", nil)
		return
	}
	RespondError(c, response.CodeBadRequest, "Invalid request body", err)
}

// validationMessage 优先使用字段上的 msg 标签
func validationMessage(req interface{}, fe validator.FieldError) string {
	if msg := lookupMessageTag(req, fe.StructNamespace()); msg != "" {
		return msg
	}
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Please enter a valid email address"
	case "phone":
		return fmt.Sprintf("Please enter a valid %s", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "numeric":
		return fmt.Sprintf("%s must be numeric", field)
	}
	return fmt.Sprintf("%s is invalid", field)
}

// fieldPath 嵌套字段返回 pickupLocation.address 形式
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

// lookupMessageTag 沿结构体命名空间查找 msg 标签
func lookupMessageTag(req interface{}, structNamespace string) string {
	t := reflect.TypeOf(req)
	parts := strings.Split(structNamespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	var field reflect.StructField
	for _, part := range parts {
		for t != nil && (t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice) {
			t = t.Elem()
		}
		if t == nil || t.Kind() != reflect.Struct {
			return ""
		}
		if idx := strings.Index(part, "["); idx >= 0 {
			part = part[:idx]
		}
		f, ok := t.FieldByName(part)
		if !ok {
			return ""
		}
		field = f
		t = f.Type
	}
	return strings.TrimSpace(field.Tag.Get("msg"))
}
