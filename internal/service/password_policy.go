package service

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/sharperly/logistics-api/internal/config"
)

// passwordPolicyError 携带面向用户的提示，errors.Is 可匹配 ErrWeakPassword
type passwordPolicyError struct {
	message string
}

func (e passwordPolicyError) Error() string { return e.message }

func (e passwordPolicyError) Is(target error) bool { return target == ErrWeakPassword }

// passwordClass 一类必需字符的检查规则
type passwordClass struct {
	required func(config.PasswordPolicyConfig) bool
	match    func(rune) bool
	message  string
}

var passwordClasses = []passwordClass{
	{
		required: func(p config.PasswordPolicyConfig) bool { return p.RequireUpper },
		match:    unicode.IsUpper,
		message:  "Password must contain at least one uppercase letter",
	},
	{
		required: func(p config.PasswordPolicyConfig) bool { return p.RequireLower },
		match:    unicode.IsLower,
		message:  "Password must contain at least one lowercase letter",
	},
	{
		required: func(p config.PasswordPolicyConfig) bool { return p.RequireNumber },
		match:    unicode.IsDigit,
		message:  "Password must contain at least one number",
	},
	{
		required: func(p config.PasswordPolicyConfig) bool { return p.RequireSpecial },
		match: func(r rune) bool {
			return !unicode.IsUpper(r) && !unicode.IsLower(r) && !unicode.IsDigit(r)
		},
		message: "Password must contain at least one special character",
	},
}

// validatePassword 先校验长度，再按大写、小写、数字、特殊字符的顺序返回第一条不满足的规则
func validatePassword(policy config.PasswordPolicyConfig, password string) error {
	if policy.MinLength > 0 && utf8.RuneCountInString(password) < policy.MinLength {
		return passwordPolicyError{message: fmt.Sprintf("Password must be at least %d characters", policy.MinLength)}
	}
	for _, class := range passwordClasses {
		if class.required(policy) && !containsRune(password, class.match) {
			return passwordPolicyError{message: class.message}
		}
	}
	return nil
}

func containsRune(s string, match func(rune) bool) bool {
	for _, r := range s {
		if match(r) {
			return true
		}
	}
	return false
}

// PasswordPolicyMessage 提取密码策略错误的提示文案
func PasswordPolicyMessage(err error) (string, bool) {
	var policyErr passwordPolicyError
	if errors.As(err, &policyErr) {
		return policyErr.message, true
	}
	return "", false
}
