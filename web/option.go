package web

import (
	"reflect"

	"github.com/gocrud/gitplugin/core"
	"github.com/gocrud/gitplugin/di"
	"github.com/gocrud/gitplugin/hosting"
)

// Options 诊断接口配置
type Options struct {
	// Address 监听地址，端口为 0 时随机分配
	Address string
	// Mode gin 运行模式，默认 release
	Mode string
	// Controllers 额外挂载的控制器类型，由注册表构造
	Controllers []reflect.Type

	enabled bool
}

// Option 用于配置诊断接口
type Option func(*Options)

// WithAddress 设置监听地址
func WithAddress(addr string) Option {
	return func(o *Options) {
		o.Address = addr
	}
}

// WithMode 设置 gin 模式
func WithMode(mode string) Option {
	return func(o *Options) {
		o.Mode = mode
	}
}

// WithControllers 添加控制器类型
func WithControllers(types ...reflect.Type) Option {
	return func(o *Options) {
		o.Controllers = append(o.Controllers, types...)
	}
}

// AddController 泛型版本的 WithControllers
func AddController[T Controller]() Option {
	return WithControllers(di.TypeOf[T]())
}

func ensureOptions(rt *core.Runtime) *Options {
	options, created := core.EnsureFeature(rt, func() *Options {
		return &Options{Address: "127.0.0.1:7070"}
	})
	if created {
		di.BindInstance(rt.Registry, options)
	}
	return options
}

// Register 只登记控制器等配置，不启用服务。
// 其他模块用它挂载路由，是否监听由 New 决定。
func Register(opts ...Option) core.Option {
	return func(rt *core.Runtime) error {
		options := ensureOptions(rt)
		for _, opt := range opts {
			opt(options)
		}
		return nil
	}
}

// New 启用诊断接口，服务作为托管服务运行
func New(opts ...Option) core.Option {
	return func(rt *core.Runtime) error {
		options := ensureOptions(rt)
		for _, opt := range opts {
			opt(options)
		}
		if options.enabled {
			return nil
		}
		options.enabled = true

		di.Bind[*Server](rt.Registry)
		return core.HostedService[*Server]()(rt)
	}
}

var _ hosting.HostedService = (*Server)(nil)
