package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"reflect"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/gitplugin/core"
	"github.com/gocrud/gitplugin/di"
	"github.com/gocrud/gitplugin/logging"
)

// Controller 简单的控制器接口标记
type Controller interface {
	// MountRoutes 注册路由
	MountRoutes(router gin.IRouter)
}

// Server 诊断接口（基于 Gin）
type Server struct {
	engine  *gin.Engine
	server  *http.Server
	logger  logging.Logger
	address string

	mu       sync.RWMutex
	listener net.Listener
}

func init() {
	di.Describe[*Server](di.Constructor(NewServer, "registry", "runtime", "logger", "options", "logs,?"))
}

// NewServer 创建诊断接口并挂载路由。
// logs 为可选的内存日志，缺省时 /logs 返回 404。
func NewServer(registry *di.Registry, rt *core.Runtime, logger logging.Logger, options *Options, logs *logging.MemoryLoggerProvider) (*Server, error) {
	logger = logger.WithCategory("web")

	mode := options.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(logger))

	diag := &diagnostics{runtime: rt, logs: logs}
	diag.MountRoutes(engine)

	for _, typ := range options.Controllers {
		ctrl, err := resolveController(registry, typ)
		if err != nil {
			return nil, err
		}
		ctrl.MountRoutes(engine)
		logger.Debug("Mapped controller routes", logging.Field{Key: "controller", Value: typ.String()})
	}

	return &Server{
		engine:  engine,
		server:  &http.Server{Handler: engine, ReadHeaderTimeout: 5 * time.Second},
		logger:  logger,
		address: options.Address,
	}, nil
}

// resolveController 优先使用已有绑定，否则直接构造
func resolveController(registry *di.Registry, typ reflect.Type) (Controller, error) {
	inst, err := registry.GetInstance(typ)
	if err != nil {
		return nil, fmt.Errorf("web: failed to resolve controller %v: %w", typ, err)
	}
	if v := reflect.ValueOf(inst); !v.IsValid() || v.IsZero() {
		if inst, err = registry.CreateInstance(typ); err != nil {
			return nil, fmt.Errorf("web: failed to create controller %v: %w", typ, err)
		}
	}
	ctrl, ok := inst.(Controller)
	if !ok {
		return nil, fmt.Errorf("web: %v does not implement web.Controller", typ)
	}
	return ctrl, nil
}

// requestLogger 以 Debug 级别记录每个请求
func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("Request handled",
			logging.Field{Key: "method", Value: c.Request.Method},
			logging.Field{Key: "path", Value: c.Request.URL.Path},
			logging.Field{Key: "status", Value: c.Writer.Status()},
			logging.Field{Key: "elapsed", Value: time.Since(start).String()})
	}
}

// Name 服务名称
func (s *Server) Name() string {
	return "web"
}

// Handler 返回路由处理器（用于测试）
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Address 获取实际监听地址，仅在 Start 后有效
func (s *Server) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// Start 启动诊断接口
// 注意：此方法会阻塞，直到服务退出。
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("web: failed to listen on %s: %w", s.address, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("Diagnostics endpoint started", logging.Field{Key: "address", Value: ln.Addr().String()})

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Diagnostics endpoint error", logging.Field{Key: "error", Value: err})
		return err
	}
	return nil
}

// Stop 停止诊断接口
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping diagnostics endpoint")
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shutdown diagnostics endpoint gracefully", logging.Field{Key: "error", Value: err})
		return err
	}
	return nil
}
