package cron

import (
	"reflect"

	"github.com/gocrud/gitplugin/core"
	"github.com/gocrud/gitplugin/di"
)

// Options 调度器配置，多次调用 New 时累加
type Options struct {
	// Location 时区，默认 Local
	Location string
	// Seconds 是否启用秒级精度（默认分钟级）
	Seconds bool
	// EnableCronLogger 是否启用 cron 库的内部调度日志
	EnableCronLogger bool
	Jobs             []JobDefinition
}

// Option 用于配置调度器
type Option func(*Options)

// WithSeconds 启用秒级精度
func WithSeconds() Option {
	return func(o *Options) {
		o.Seconds = true
	}
}

// WithLocation 设置时区
func WithLocation(location string) Option {
	return func(o *Options) {
		o.Location = location
	}
}

// EnableCronLogger 启用 cron 库的内部调度日志
func EnableCronLogger() Option {
	return func(o *Options) {
		o.EnableCronLogger = true
	}
}

// AddJob 添加任务，jobType 必须实现 Job
func AddJob(spec, name string, jobType reflect.Type) Option {
	return func(o *Options) {
		o.Jobs = append(o.Jobs, JobDefinition{Spec: spec, Name: name, Type: jobType})
	}
}

// AddJobOf 泛型版本的 AddJob
func AddJobOf[T Job](spec, name string) Option {
	return AddJob(spec, name, di.TypeOf[T]())
}

// New 启用定时任务。首次调用时把调度器注册为托管服务，之后的调用只追加配置。
func New(opts ...Option) core.Option {
	return func(rt *core.Runtime) error {
		options, created := core.EnsureFeature(rt, func() *Options {
			return &Options{Location: "Local"}
		})
		for _, opt := range opts {
			opt(options)
		}
		if !created {
			return nil
		}

		di.BindInstance(rt.Registry, options)
		di.Bind[*Scheduler](rt.Registry)
		return core.HostedService[*Scheduler]()(rt)
	}
}
