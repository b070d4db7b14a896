package queue

import (
	"encoding/json"

	"github.com/sharperly/logistics-api/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskEmailVerifyCode 验证码邮件任务
	TaskEmailVerifyCode = constants.TaskEmailVerifyCode
	// TaskBusinessCounters 企业订单计数刷新任务
	TaskBusinessCounters = constants.TaskBusinessCounters
)

// EmailVerifyCodePayload 验证码邮件任务载荷
type EmailVerifyCodePayload struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Code     string `json:"code"`
	Purpose  string `json:"purpose"`
}

// BusinessCountersPayload 企业订单计数刷新载荷
type BusinessCountersPayload struct {
	BusinessID uint `json:"business_id"`
}

// NewEmailVerifyCodeTask 创建验证码邮件任务
func NewEmailVerifyCodeTask(payload EmailVerifyCodePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEmailVerifyCode, body, asynq.MaxRetry(constants.DefaultTaskMaxRetry)), nil
}

// NewBusinessCountersTask 创建企业计数刷新任务
func NewBusinessCountersTask(payload BusinessCountersPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBusinessCounters, body, asynq.MaxRetry(constants.DefaultTaskMaxRetry)), nil
}

// ParseEmailVerifyCodePayload 解析验证码邮件载荷
func ParseEmailVerifyCodePayload(task *asynq.Task) (EmailVerifyCodePayload, error) {
	var payload EmailVerifyCodePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	return payload, nil
}

// ParseBusinessCountersPayload 解析企业计数刷新载荷
func ParseBusinessCountersPayload(task *asynq.Task) (BusinessCountersPayload, error) {
	var payload BusinessCountersPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	return payload, nil
}
