package core

import (
	"github.com/gocrud/gitplugin/di"
)

// AddSingleton 将 T 绑定到实现 TImpl，生命周期为 LazySingleton
//
// 示例:
//
//	core.AddSingleton[git.Repository, *git.CommandRepository](rt.Registry)
func AddSingleton[T, TImpl any](r *di.Registry) *di.Binder {
	return di.BindTo[T, TImpl](r)
}

// AddEager 将 T 绑定到实现 TImpl，在运行时启动时创建
func AddEager[T, TImpl any](r *di.Registry) *di.Binder {
	return di.BindTo[T, TImpl](r).NonLazy()
}

// AddTransient 将 T 绑定到实现 TImpl，每次解析都创建新实例
func AddTransient[T, TImpl any](r *di.Registry) *di.Binder {
	return di.BindTo[T, TImpl](r).AsTransient()
}

// AddInstance 将 T 绑定到已有实例
func AddInstance[T any](r *di.Registry, instance T) *di.Binder {
	return di.BindInstance[T](r, instance)
}

// Singleton 返回注册单例的 Option
func Singleton[T, TImpl any]() Option {
	return func(rt *Runtime) error {
		AddSingleton[T, TImpl](rt.Registry)
		return nil
	}
}

// Instance 返回注册实例的 Option
func Instance[T any](instance T) Option {
	return func(rt *Runtime) error {
		AddInstance[T](rt.Registry, instance)
		return nil
	}
}
