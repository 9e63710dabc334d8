package di

import (
	"fmt"
	"reflect"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// callConstructor 调用构造函数并检查 error 与 nil 返回
func callConstructor(fn reflect.Value, args []reflect.Value) (inst any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("constructor panicked: %v", rec)
		}
	}()

	results := fn.Call(args)
	if len(results) == 2 && !results[1].IsNil() {
		return nil, results[1].Interface().(error)
	}
	first := results[0]
	if canBeNil(first.Kind()) && first.IsNil() {
		return nil, fmt.Errorf("constructor returned nil instance")
	}
	return first.Interface(), nil
}

// callFactory 调用 FromMethod 工厂，panic 转为错误
func callFactory(factory Factory, ctx *InjectContext) (inst any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			inst, err = nil, fmt.Errorf("factory panicked: %v", rec)
		}
	}()
	return factory(ctx)
}

// callInjection 调用注入方法或静态注入函数，返回的 error 与 panic 都视为失败
func callInjection(fn reflect.Value, args []reflect.Value) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	results := fn.Call(args)
	if len(results) > 0 {
		if e, ok := results[len(results)-1].Interface().(error); ok && e != nil {
			return e
		}
	}
	return nil
}

// methodValue 取嵌入层 holder 上声明的方法。
// 经由未导出嵌入字段取得的值带只读标记，按地址重新取值，
// 始终调用该层自己的方法，不会落到外层同名方法上。
func methodValue(holder reflect.Value, name string) reflect.Value {
	if holder.Kind() != reflect.Pointer && holder.CanAddr() {
		holder = holder.Addr()
	}
	if !holder.CanInterface() && holder.Kind() == reflect.Pointer {
		holder = reflect.NewAt(holder.Type().Elem(), holder.UnsafePointer())
	}
	if !holder.CanInterface() {
		return reflect.Value{}
	}
	return holder.MethodByName(name)
}

// valueAt 沿字段路径取得嵌入层的值，遇到 nil 指针返回 false
func valueAt(root reflect.Value, path []int) (reflect.Value, bool) {
	v := root
	for _, i := range path {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	if v.Kind() == reflect.Pointer && v.IsNil() {
		return reflect.Value{}, false
	}
	return v, true
}

// valueOf 将实例转换为可赋给 t 的 reflect.Value
func valueOf(inst any, t reflect.Type) reflect.Value {
	if inst == nil {
		return reflect.Zero(t)
	}
	return reflect.ValueOf(inst)
}

func assignable(v any, t reflect.Type) bool {
	if v == nil {
		return false
	}
	return reflect.TypeOf(v).AssignableTo(t)
}

func canBeNil(k reflect.Kind) bool {
	switch k {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return true
	}
	return false
}

func isCollection(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() != reflect.Uint8
}
