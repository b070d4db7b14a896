package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sharperly/logistics-api/internal/config"
	"github.com/sharperly/logistics-api/internal/logger"
	"github.com/sharperly/logistics-api/internal/queue"

	"github.com/hibiken/asynq"
)

const defaultCounterInterval = 5 * time.Minute

// Service 异步队列服务，附带定时的企业计数巡检
type Service struct {
	server          *asynq.Server
	mux             *asynq.ServeMux
	consumer        *Consumer
	counterInterval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
	loops   sync.WaitGroup
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		server:          asynq.NewServer(opt, serverCfg),
		mux:             mux,
		consumer:        consumer,
		counterInterval: counterInterval(cfg.CounterRefreshMinutes),
		stopped:         make(chan struct{}),
	}, nil
}

func counterInterval(minutes int) time.Duration {
	if minutes <= 0 {
		return defaultCounterInterval
	}
	return time.Duration(minutes) * time.Minute
}

// Name 服务名称
func (s *Service) Name() string {
	return "worker"
}

// Start 启动消费并阻塞到 ctx 结束或 Stop 被调用
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if err := s.server.Start(s.mux); err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	if s.consumer.BusinessRepo != nil {
		s.loops.Add(1)
		go func() {
			defer s.loops.Done()
			s.runBusinessCounterLoop(loopCtx)
		}()
	}

	select {
	case <-ctx.Done():
	case <-s.stopped:
	}
	return nil
}

// Stop 停止巡检与消费
func (s *Service) Stop(_ context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	select {
	case <-s.stopped:
		s.mu.Unlock()
		return nil
	default:
		close(s.stopped)
	}
	s.mu.Unlock()

	s.loops.Wait()
	s.server.Shutdown()
	return nil
}

func (s *Service) runBusinessCounterLoop(ctx context.Context) {
	runOnce := func() {
		refreshed, err := s.consumer.refreshAllBusinessCounters(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.Warnw("worker_business_counters_sweep_failed", "refreshed", refreshed, "error", err)
			}
			return
		}
		logger.Debugw("worker_business_counters_sweep_done", "refreshed", refreshed)
	}
	runOnce()

	ticker := time.NewTicker(s.counterInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
