package core

import (
	"context"

	"github.com/gocrud/gitplugin/di"
	"github.com/gocrud/gitplugin/logging"
)

// Option 定义了修改 Runtime 状态的函数签名
// 这是框架唯一的扩展点
type Option func(rt *Runtime) error

// UseLogger 替换运行时与注册表的日志
func UseLogger(logger logging.Logger) Option {
	return func(rt *Runtime) error {
		rt.Logger = logger
		rt.Registry.SetLogger(logger.WithCategory("di"))
		return nil
	}
}

// UseEnvironment 设置运行环境
func UseEnvironment(name string) Option {
	return func(rt *Runtime) error {
		rt.Environment = NewEnvironment(name)
		return nil
	}
}

// UseHostFactory 设置宿主对象工厂，之后创建的窗口注册表会继承它
func UseHostFactory(factory di.HostObjectFactory) Option {
	return func(rt *Runtime) error {
		rt.Registry.SetHostFactory(factory)
		return nil
	}
}

// Install 在全局注册表上追加绑定
func Install(fn func(r *di.Registry)) Option {
	return func(rt *Runtime) error {
		fn(rt.Registry)
		return nil
	}
}

// OnStart 注册启动钩子
func OnStart(fn func(ctx context.Context) error) Option {
	return func(rt *Runtime) error {
		rt.Lifecycle.OnStart(fn)
		return nil
	}
}

// OnStop 注册停止钩子
func OnStop(fn func(ctx context.Context) error) Option {
	return func(rt *Runtime) error {
		rt.Lifecycle.OnStop(fn)
		return nil
	}
}

// WithWindow 在启动时打开一个窗口
func WithWindow(id, title string, install ...func(*di.Registry)) Option {
	return func(rt *Runtime) error {
		rt.Lifecycle.OnStart(func(ctx context.Context) error {
			_, err := rt.OpenWindow(id, title, install...)
			return err
		})
		return nil
	}
}
