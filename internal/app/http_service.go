package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/sharperly/logistics-api/internal/config"
)

// HTTPService gin 引擎的 HTTP 服务
type HTTPService struct {
	server *http.Server
}

// NewHTTPService 按服务配置创建 HTTP 服务
func NewHTTPService(cfg config.ServerConfig, handler http.Handler) *HTTPService {
	return &HTTPService{
		server: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       secondsOr(cfg.ReadTimeoutSeconds, 30),
			WriteTimeout:      secondsOr(cfg.WriteTimeoutSeconds, 120),
			IdleTimeout:       secondsOr(cfg.IdleTimeoutSeconds, 120),
		},
	}
}

// Name 服务名称
func (s *HTTPService) Name() string {
	return "http"
}

// Addr 监听地址
func (s *HTTPService) Addr() string {
	if s == nil || s.server == nil {
		return ""
	}
	return s.server.Addr
}

// Start 监听并阻塞直到服务关闭，ctx 用作请求的基础上下文
func (s *HTTPService) Start(ctx context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("http server not initialized")
	}
	s.server.BaseContext = func(net.Listener) context.Context { return ctx }
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop 优雅关闭，等待进行中的请求
func (s *HTTPService) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func secondsOr(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}
