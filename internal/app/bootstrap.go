package app

import (
	"errors"

	"github.com/sharperly/logistics-api/internal/config"
	"github.com/sharperly/logistics-api/internal/logger"
	"github.com/sharperly/logistics-api/internal/provider"
	"github.com/sharperly/logistics-api/internal/router"
	"github.com/sharperly/logistics-api/internal/worker"
)

// BuildRunner 按启动模式装配 API 与 Worker
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	mode, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}
	if mode == ModeWorker && !cfg.Queue.Enabled {
		return nil, errors.New("worker mode requires queue.enabled")
	}

	container := provider.NewContainer(cfg)
	services := make([]Service, 0, 2)

	if mode != ModeWorker {
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(cfg.Server, engine))
	}

	// all 模式下队列未启用时只运行 API，计数由写路径同步刷新
	if mode != ModeAPI {
		if !cfg.Queue.Enabled {
			logger.Warnw("app_worker_skipped_queue_disabled", "mode", mode)
		} else {
			workerService, err := worker.NewService(&cfg.Queue, worker.NewConsumer(container))
			if err != nil {
				return nil, err
			}
			services = append(services, workerService)
		}
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start",
		"addr", opts.Config.Server.Addr(),
		"mode", opts.Mode,
		"environment", opts.Config.App.Environment,
	)
	return RunWithOptions(runner, opts)
}
