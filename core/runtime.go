package core

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gocrud/gitplugin/di"
	"github.com/gocrud/gitplugin/host"
	"github.com/gocrud/gitplugin/hosting"
	"github.com/gocrud/gitplugin/logging"
	"go.uber.org/multierr"
)

// Runtime 插件运行时，持有全局注册表与生命周期
type Runtime struct {
	// Features 存放构建时特性（各模块的选项累加器）
	Features FeatureCollection

	// Registry 全局注册表
	Registry *di.Registry

	// Lifecycle 生命周期管理
	Lifecycle *LifecycleEvents

	// Logger 运行时日志
	Logger logging.Logger

	// MainThread 串行化对注册表的访问
	MainThread *host.MainThread

	// Environment 运行环境
	Environment Environment

	windows     map[string]*di.Registry
	hosted      *hosting.HostedServiceManager
	cancelHosts context.CancelFunc

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

// NewRuntime 创建一个新的运行时实例
func NewRuntime() *Runtime {
	logger := logging.NewLogger()
	rt := &Runtime{
		Registry:    di.NewRegistry(di.WithLogger(logger.WithCategory("di"))),
		Lifecycle:   NewLifecycle(),
		Logger:      logger,
		MainThread:  host.NewMainThread(),
		Environment: NewEnvironment("development"),
		windows:     make(map[string]*di.Registry),
		shutdownCh:  make(chan struct{}),
	}

	di.BindInstance(rt.Registry, rt)
	di.BindInstance(rt.Registry, rt.MainThread)
	di.Bind[logging.Logger](rt.Registry).FromMethod(func(ctx *di.InjectContext) (any, error) {
		return rt.Logger, nil
	})
	di.Bind[Environment](rt.Registry).FromMethod(func(ctx *di.InjectContext) (any, error) {
		return rt.Environment, nil
	})
	return rt
}

// Apply 应用多个 Option
func (rt *Runtime) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(rt); err != nil {
			return err
		}
	}
	return nil
}

// Start 创建预先实例化的单例，执行启动钩子，然后启动托管服务
func (rt *Runtime) Start(ctx context.Context) error {
	if err := rt.Registry.CreateEagerInstances(); err != nil {
		return fmt.Errorf("core: %w", err)
	}
	if err := rt.Lifecycle.Start(ctx); err != nil {
		return fmt.Errorf("core: start hook failed: %w", err)
	}

	manager, err := di.Instantiate[*hosting.HostedServiceManager](rt.Registry)
	if err != nil {
		return fmt.Errorf("core: resolving hosted services: %w", err)
	}

	hostCtx, cancel := context.WithCancel(context.Background())
	rt.hosted, rt.cancelHosts = manager, cancel

	errCh := manager.StartAll(hostCtx)
	go func() {
		select {
		case err := <-errCh:
			rt.Logger.Error("Hosted service exited with error, shutting down",
				logging.Field{Key: "error", Value: err})
			rt.Shutdown()
		case <-hostCtx.Done():
		}
	}()

	rt.Logger.Info("Runtime started",
		logging.Field{Key: "environment", Value: rt.Environment.Name()},
		logging.Field{Key: "hostedServices", Value: len(manager.Services())})
	return nil
}

// Stop 停止托管服务、执行停止钩子、关闭窗口并释放全局注册表。
// 各阶段的错误合并返回，不中断后续阶段。
func (rt *Runtime) Stop(ctx context.Context) error {
	var err error

	if rt.hosted != nil {
		err = multierr.Append(err, rt.hosted.StopAll(ctx))
		rt.cancelHosts()

		done := make(chan struct{})
		go func() {
			rt.hosted.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = multierr.Append(err, fmt.Errorf("core: waiting for hosted services: %w", ctx.Err()))
		}
	}

	err = multierr.Append(err, rt.Lifecycle.Stop(ctx))

	err = multierr.Append(err, rt.MainThread.Do(func() error {
		var closeErr error
		for _, id := range rt.windowIDs() {
			closeErr = multierr.Append(closeErr, rt.closeWindow(id))
		}
		return multierr.Append(closeErr, rt.Registry.Dispose())
	}))

	if err != nil {
		rt.Logger.Error("Runtime stopped with errors", logging.Field{Key: "error", Value: err})
	} else {
		rt.Logger.Info("Runtime stopped")
	}
	return err
}

// Shutdown 请求运行时退出
func (rt *Runtime) Shutdown() {
	rt.shutdownOnce.Do(func() {
		close(rt.shutdownCh)
	})
}

// Done 返回一个通道，当运行时需要退出时该通道会关闭
func (rt *Runtime) Done() <-chan struct{} {
	return rt.shutdownCh
}

// Window 返回已打开窗口的子注册表
func (rt *Runtime) Window(id string) (*di.Registry, bool) {
	var (
		child *di.Registry
		ok    bool
	)
	_ = rt.MainThread.Do(func() error {
		child, ok = rt.windows[id]
		return nil
	})
	return child, ok
}

// Windows 返回已打开窗口的 ID，按字典序
func (rt *Runtime) Windows() []string {
	var ids []string
	_ = rt.MainThread.Do(func() error {
		ids = rt.windowIDs()
		return nil
	})
	return ids
}

// OpenWindow 为窗口创建子注册表并绑定 *host.Window。
// install 在子注册表上追加窗口级绑定，之后创建其中的预先实例化单例。
// 不能在 MainThread.Do 内调用。
func (rt *Runtime) OpenWindow(id, title string, install ...func(*di.Registry)) (*di.Registry, error) {
	var child *di.Registry
	err := rt.MainThread.Do(func() error {
		if _, exists := rt.windows[id]; exists {
			return fmt.Errorf("core: window %q is already open", id)
		}

		child = rt.Registry.CreateChild(di.WithLogger(rt.Registry.Logger().WithFields(logging.Field{Key: "window", Value: id})))
		di.BindInstance(child, &host.Window{ID: id, Title: title})
		for _, fn := range install {
			fn(child)
		}
		if err := child.CreateEagerInstances(); err != nil {
			return multierr.Append(fmt.Errorf("core: opening window %q: %w", id, err), child.Dispose())
		}
		rt.windows[id] = child
		return nil
	})
	if err != nil {
		return nil, err
	}
	rt.Logger.Debug("Window opened", logging.Field{Key: "window", Value: id})
	return child, nil
}

// CloseWindow 释放窗口的子注册表
func (rt *Runtime) CloseWindow(id string) error {
	return rt.MainThread.Do(func() error {
		return rt.closeWindow(id)
	})
}

func (rt *Runtime) closeWindow(id string) error {
	child, ok := rt.windows[id]
	if !ok {
		return fmt.Errorf("core: window %q is not open", id)
	}
	delete(rt.windows, id)
	if err := child.Dispose(); err != nil {
		return fmt.Errorf("core: closing window %q: %w", id, err)
	}
	return nil
}

func (rt *Runtime) windowIDs() []string {
	ids := make([]string, 0, len(rt.windows))
	for id := range rt.windows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
