// Package http 提供预测服务的HTTP接口
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/exp/rand"

	"modelserve/ml"
	"modelserve/monitoring"
)

// Server HTTP服务器
type Server struct {
	server *http.Server
	config ServerConfig
	logger *zap.Logger
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port         int
	Timeout      time.Duration
	MaxBodyBytes int64
}

// DefaultServerConfig 默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:         5000,
		Timeout:      30 * time.Second,
		MaxBodyBytes: 1 << 20,
	}
}

// Dependencies 处理器依赖，启动时构造一次
type Dependencies struct {
	Dispatcher *ml.Dispatcher
	Logger     *zap.Logger
	Stats      *monitoring.Collector
	History    *History
	// RandomSource 为随机样本提供随机源，为空时按时间播种
	RandomSource func() rand.Source
}

// NewHandler 注册路由并包装中间件
func NewHandler(config ServerConfig, deps Dependencies) http.Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Stats == nil {
		deps.Stats = monitoring.NewCollector()
	}
	if deps.History == nil {
		deps.History = NewHistory(10)
	}
	if deps.RandomSource == nil {
		deps.RandomSource = func() rand.Source {
			return rand.NewSource(uint64(time.Now().UnixNano()))
		}
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultServerConfig().MaxBodyBytes
	}

	h := &handlers{
		dispatcher:   deps.Dispatcher,
		logger:       deps.Logger,
		stats:        deps.Stats,
		history:      deps.History,
		randomSource: deps.RandomSource,
	}

	mux := http.NewServeMux()
	registerHandlers(mux, h)
	registerFormHandlers(mux, h)

	// 创建中间件链
	chain := Chain(
		RequestIDMiddleware,                        // 1. 请求ID（最先执行）
		LoggerMiddleware(deps.Logger),              // 2. 日志中间件
		RecoveryMiddleware(deps.Logger),            // 3. 恢复中间件（捕获panic，状态码交给日志中间件记录）
		SecurityHeadersMiddleware,                  // 4. 安全头中间件
		RequestSizeMiddleware(config.MaxBodyBytes), // 5. 请求大小限制
	)
	return chain(mux)
}

// NewServer 创建HTTP服务器
func NewServer(config ServerConfig, deps Dependencies) *Server {
	if config.Timeout <= 0 {
		config.Timeout = DefaultServerConfig().Timeout
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      NewHandler(config, deps),
			ReadTimeout:  config.Timeout,
			WriteTimeout: config.Timeout,
			IdleTimeout:  120 * time.Second,
		},
		config: config,
		logger: logger,
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop 停止服务器
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	return nil
}
