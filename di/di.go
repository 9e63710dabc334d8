package di

import (
	"fmt"
	"reflect"
)

// TypeOf 返回 T 的 reflect.Type，接口类型同样适用
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Bind 为类型 T 追加一条绑定
func Bind[T any](r *Registry) *Binder {
	return r.Bind(TypeOf[T]())
}

// BindTo 将 T 绑定到实现类型 TImpl
func BindTo[T, TImpl any](r *Registry) *Binder {
	return r.Bind(TypeOf[T]()).To(TypeOf[TImpl]())
}

// BindInstance 将 T 绑定到预设实例
func BindInstance[T any](r *Registry, instance T) *Binder {
	return r.Bind(TypeOf[T]()).FromInstance(instance)
}

// Resolve 解析 T 的实例，没有匹配绑定时返回零值
func Resolve[T any](r *Registry, id ...string) (T, error) {
	var zero T
	inst, err := r.GetInstance(TypeOf[T](), id...)
	if err != nil || inst == nil {
		return zero, err
	}
	v, ok := inst.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %T is not %v", ErrIncompatibleInstance, inst, TypeOf[T]())
	}
	return v, nil
}

// MustResolve 解析 T 的实例，失败时 panic
func MustResolve[T any](r *Registry, id ...string) T {
	v, err := Resolve[T](r, id...)
	if err != nil {
		panic(err)
	}
	return v
}

// ResolveAll 解析 T 的全部无标识绑定
func ResolveAll[T any](r *Registry) ([]T, error) {
	insts, err := r.GetInstances(TypeOf[T]())
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(insts))
	for _, inst := range insts {
		v, ok := inst.(T)
		if !ok {
			return nil, fmt.Errorf("%w: %T is not %v", ErrIncompatibleInstance, inst, TypeOf[T]())
		}
		out = append(out, v)
	}
	return out, nil
}

// Instantiate 直接构造 T 的新实例，不使用也不缓存绑定
func Instantiate[T any](r *Registry, args ...any) (T, error) {
	var zero T
	inst, err := r.CreateInstance(TypeOf[T](), args...)
	if err != nil || inst == nil {
		return zero, err
	}
	v, ok := inst.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %T is not %v", ErrIncompatibleInstance, inst, TypeOf[T]())
	}
	return v, nil
}

// InjectStatic 调用 T 声明的静态注入函数
func InjectStatic[T any](r *Registry) error {
	return r.InjectStatic(TypeOf[T]())
}
