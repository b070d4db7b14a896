package queue

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sharperly/logistics-api/internal/config"
	"github.com/sharperly/logistics-api/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 高优先级队列，验证码邮件走这里
	CriticalQueue = constants.QueueCritical

	emailTaskTimeout    = 30 * time.Second
	countersTaskTimeout = time.Minute
	// 同一企业的计数刷新在窗口内只入队一次
	countersUniqueWindow = 30 * time.Second
)

// Client 队列客户端封装，未启用时所有入队操作为空操作
type Client struct {
	client *asynq.Client
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{client: asynq.NewClient(buildRedisOpt(cfg))}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// EnqueueEmailVerifyCode 推送验证码邮件任务
func (c *Client) EnqueueEmailVerifyCode(payload EmailVerifyCodePayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewEmailVerifyCodeTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, emailTaskOptions(opts...))
}

// EnqueueBusinessCounters 推送企业订单计数刷新任务，窗口内重复提交视为成功
func (c *Client) EnqueueBusinessCounters(payload BusinessCountersPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	if payload.BusinessID == 0 {
		return fmt.Errorf("business counters task requires a business id")
	}
	task, err := NewBusinessCountersTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, countersTaskOptions(opts...))
}

func (c *Client) enqueue(task *asynq.Task, options []asynq.Option) error {
	_, err := c.client.Enqueue(task, options...)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	return nil
}

func emailTaskOptions(extra ...asynq.Option) []asynq.Option {
	return append([]asynq.Option{asynq.Queue(CriticalQueue), asynq.Timeout(emailTaskTimeout)}, extra...)
}

func countersTaskOptions(extra ...asynq.Option) []asynq.Option {
	return append([]asynq.Option{
		asynq.Queue(DefaultQueue),
		asynq.Timeout(countersTaskTimeout),
		asynq.Unique(countersUniqueWindow),
	}, extra...)
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	concurrency := 10
	queues := map[string]int{DefaultQueue: 1, CriticalQueue: 2}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			queues = cfg.Queues
		}
	}
	return buildRedisOpt(cfg), asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	if cfg == nil {
		return opt
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	opt.Addr = fmt.Sprintf("%s:%d", host, port)
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}
