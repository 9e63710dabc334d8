package core

import (
	"context"
	"fmt"
	"reflect"

	"github.com/gocrud/gitplugin/di"
	"github.com/gocrud/gitplugin/hosting"
)

var hostedServiceType = reflect.TypeOf((*hosting.HostedService)(nil)).Elem()

// WithHostedService 注册一个托管服务。
// 服务类型 t 若已有绑定则复用该绑定的实例，否则直接构造一次。
func WithHostedService(t reflect.Type) Option {
	return func(rt *Runtime) error {
		if !t.Implements(hostedServiceType) {
			return fmt.Errorf("WithHostedService: %v does not implement hosting.HostedService", t)
		}
		di.Bind[hosting.HostedService](rt.Registry).FromMethod(func(ctx *di.InjectContext) (any, error) {
			inst, err := ctx.Registry.GetInstance(t)
			if err != nil {
				return nil, err
			}
			if v := reflect.ValueOf(inst); !v.IsValid() || v.IsZero() {
				return ctx.Registry.CreateInstance(t)
			}
			return inst, nil
		})
		return nil
	}
}

// HostedService 泛型版本的 WithHostedService
func HostedService[T hosting.HostedService]() Option {
	return WithHostedService(di.TypeOf[T]())
}

// WorkerFunc 定义简单的后台任务函数
// 这是一个阻塞函数，通过 ctx.Done() 判断退出。
type WorkerFunc func(ctx context.Context) error

// worker 把 WorkerFunc 适配为托管服务
type worker struct {
	name string
	fn   WorkerFunc
}

func (w *worker) Name() string { return w.name }

func (w *worker) Start(ctx context.Context) error {
	return w.fn(ctx)
}

func (w *worker) Stop(ctx context.Context) error {
	return nil
}

// WithWorker 将一个阻塞的函数注册为后台服务，运行时停止时取消其 context
func WithWorker(name string, fn WorkerFunc) Option {
	return func(rt *Runtime) error {
		di.Bind[hosting.HostedService](rt.Registry).FromInstance(&worker{name: name, fn: fn})
		return nil
	}
}
