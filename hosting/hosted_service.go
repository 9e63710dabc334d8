package hosting

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gocrud/gitplugin/di"
	"github.com/gocrud/gitplugin/logging"
	"go.uber.org/multierr"
)

// HostedService 托管服务接口
// 管理器在独立的 goroutine 中调用 Start，服务无需自己启动 goroutine
type HostedService interface {
	// Start 启动服务。该方法应阻塞执行，直到 context 被取消或发生错误。
	Start(ctx context.Context) error

	// Stop 执行优雅关闭逻辑。
	Stop(ctx context.Context) error
}

// HostedServiceManager 托管服务管理器
type HostedServiceManager struct {
	services []HostedService
	logger   logging.Logger
	mu       sync.RWMutex
	wg       sync.WaitGroup
}

func init() {
	di.Describe[*HostedServiceManager](di.Constructor(NewHostedServiceManager, "logger", "services"))
}

// NewHostedServiceManager 创建托管服务管理器，services 通常由注册表按集合注入
func NewHostedServiceManager(logger logging.Logger, services []HostedService) *HostedServiceManager {
	return &HostedServiceManager{
		services: append([]HostedService(nil), services...),
		logger:   logger.WithCategory("hosting"),
	}
}

// Add 添加托管服务
func (m *HostedServiceManager) Add(service HostedService) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services = append(m.services, service)
}

// Services 返回已注册的服务
func (m *HostedServiceManager) Services() []HostedService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]HostedService(nil), m.services...)
}

// StartAll 启动所有托管服务，每个服务在独立的 goroutine 中启动。
// 返回的通道接收服务的非取消类错误。
func (m *HostedServiceManager) StartAll(ctx context.Context) <-chan error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	errCh := make(chan error, len(m.services))
	m.logger.Info(fmt.Sprintf("Starting %d hosted services", len(m.services)))

	for _, service := range m.services {
		m.wg.Add(1)
		go func(svc HostedService) {
			defer m.wg.Done()
			name := serviceName(svc)

			m.logger.Debug("Starting hosted service", logging.Field{Key: "service", Value: name})
			if err := svc.Start(ctx); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					m.logger.Debug("Hosted service stopped (context done)", logging.Field{Key: "service", Value: name})
					return
				}
				m.logger.Error("Hosted service failed",
					logging.Field{Key: "service", Value: name},
					logging.Field{Key: "error", Value: err})
				select {
				case errCh <- fmt.Errorf("hosted service %s: %w", name, err):
				default:
				}
				return
			}
			m.logger.Debug("Hosted service completed", logging.Field{Key: "service", Value: name})
		}(service)
	}

	return errCh
}

// StopAll 按注册的逆序停止所有托管服务，合并返回停止错误
func (m *HostedServiceManager) StopAll(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	m.logger.Info(fmt.Sprintf("Stopping %d hosted services", len(m.services)))

	var err error
	for i := len(m.services) - 1; i >= 0; i-- {
		svc := m.services[i]
		name := serviceName(svc)
		if stopErr := svc.Stop(ctx); stopErr != nil {
			m.logger.Error("Failed to stop hosted service",
				logging.Field{Key: "service", Value: name},
				logging.Field{Key: "error", Value: stopErr})
			err = multierr.Append(err, fmt.Errorf("hosted service %s: %w", name, stopErr))
		}
	}
	return err
}

// Wait 等待所有服务的 Start 返回
func (m *HostedServiceManager) Wait() {
	m.wg.Wait()
}

func serviceName(svc HostedService) string {
	if named, ok := svc.(interface{ Name() string }); ok {
		return named.Name()
	}
	return fmt.Sprintf("%T", svc)
}
