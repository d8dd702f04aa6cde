// Package http 提供HTTP服务器功能
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"premiumcalc/ml"
	"premiumcalc/monitoring"
	"premiumcalc/quote"
)

// maxRequestBody bounds form and JSON submissions.
const maxRequestBody = 64 << 10

// Server HTTP服务器
type Server struct {
	server *http.Server
	config ServerConfig
	logger *zap.Logger
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port           int
	Timeout        time.Duration
	AllowedOrigins []string
}

// DefaultServerConfig 默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:           8080,
		Timeout:        30 * time.Second,
		AllowedOrigins: []string{"*"},
	}
}

// Deps are the collaborators built once by the entry point. Quotes is
// required; Metrics is optional.
type Deps struct {
	Quotes    *quote.Service
	Metrics   *monitoring.Metrics
	ModelInfo ml.ModelInfo
	Logger    *zap.Logger
}

// NewHandler builds the routed and wrapped handler without a listener.
func NewHandler(config ServerConfig, deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	registerHandlers(mux, newHandlers(deps.Quotes, deps.ModelInfo, logger))
	var observer RequestObserver
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
		observer = deps.Metrics
	}

	chain := Chain(
		LoggerMiddleware(logger, observer),    // 1. 日志中间件（分配请求ID，记录最终状态码）
		RecoveryMiddleware(logger),            // 2. 恢复中间件（捕获panic，写入500）
		SecurityHeadersMiddleware,             // 3. 安全头中间件
		CORSMiddleware(config.AllowedOrigins), // 4. CORS中间件
		RequestSizeMiddleware(maxRequestBody), // 5. 请求大小限制
	)
	return chain(mux)
}

// NewServer 创建HTTP服务器
func NewServer(config ServerConfig, deps Deps) *Server {
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
	addr := s.Addr()
	s.logger.Info("starting HTTP server",
		zap.String("addr", addr),
		zap.String("form", "http://localhost"+addr+"/"),
		zap.String("websocket", "ws://localhost"+addr+"/api/ws/quote"))

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

// Addr 返回服务器地址
func (s *Server) Addr() string {
	return s.server.Addr
}
