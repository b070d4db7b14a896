package worker

import (
	"context"
	"strings"

	"github.com/sharperly/logistics-api/internal/logger"
	"github.com/sharperly/logistics-api/internal/provider"
	"github.com/sharperly/logistics-api/internal/queue"

	"github.com/hibiken/asynq"
)

// 计数刷新的分批大小
const businessCounterBatchSize = 100

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskEmailVerifyCode, c.handleEmailVerifyCode)
	mux.HandleFunc(queue.TaskBusinessCounters, c.handleBusinessCounters)
}

func (c *Consumer) handleEmailVerifyCode(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_email_verify_code_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseEmailVerifyCodePayload(task)
	if err != nil {
		logger.Warnw("worker_email_verify_code_unmarshal_failed", "error", err)
		return err
	}
	receiver := strings.TrimSpace(payload.Email)
	if receiver == "" || strings.TrimSpace(payload.Code) == "" {
		logger.Debugw("worker_email_verify_code_skip_invalid_payload", "email", receiver, "purpose", payload.Purpose)
		return nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_email_verify_code_skip_email_service_nil", "email", receiver)
		return nil
	}
	if err := c.EmailService.SendVerifyCode(receiver, payload.FullName, payload.Code, payload.Purpose); err != nil {
		logger.Warnw("worker_email_verify_code_send_failed",
			"receiver_email", receiver,
			"purpose", payload.Purpose,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleBusinessCounters(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_business_counters_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseBusinessCountersPayload(task)
	if err != nil {
		logger.Warnw("worker_business_counters_unmarshal_failed", "error", err)
		return err
	}
	if payload.BusinessID == 0 {
		logger.Debugw("worker_business_counters_skip_invalid_payload", "business_id", payload.BusinessID)
		return nil
	}
	if c.BusinessRepo == nil {
		logger.Warnw("worker_business_counters_skip_repo_nil", "business_id", payload.BusinessID)
		return nil
	}
	if err := c.BusinessRepo.RefreshOrderCounters(payload.BusinessID); err != nil {
		logger.Warnw("worker_business_counters_refresh_failed", "business_id", payload.BusinessID, "error", err)
		return err
	}
	return nil
}

// refreshAllBusinessCounters 按主键游标遍历全部企业重算计数
func (c *Consumer) refreshAllBusinessCounters(ctx context.Context) (int, error) {
	if c == nil || c.BusinessRepo == nil {
		return 0, nil
	}
	refreshed := 0
	var afterID uint
	for {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}
		ids, err := c.BusinessRepo.ListIDs(afterID, businessCounterBatchSize)
		if err != nil {
			return refreshed, err
		}
		for _, id := range ids {
			if err := c.BusinessRepo.RefreshOrderCounters(id); err != nil {
				logger.Warnw("worker_business_counters_refresh_failed", "business_id", id, "error", err)
				continue
			}
			refreshed++
		}
		if len(ids) < businessCounterBatchSize {
			return refreshed, nil
		}
		afterID = ids[len(ids)-1]
	}
}
