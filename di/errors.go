package di

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrUnresolvedParameter 必需参数无法从绑定、父注册表或参数中解析
	ErrUnresolvedParameter = errors.New("di: unresolved parameter")
	// ErrIncompatibleImplementation 实现类型与请求类型不兼容
	ErrIncompatibleImplementation = errors.New("di: incompatible implementation type")
	// ErrIncompatibleInstance 预设实例不能赋值给请求类型
	ErrIncompatibleInstance = errors.New("di: incompatible instance")
	// ErrAmbiguousBinding 多个同等特异度的绑定匹配同一个请求，仅作为日志字段出现
	ErrAmbiguousBinding = errors.New("di: ambiguous binding")
	// ErrCycleDetected 检测到循环依赖
	ErrCycleDetected = errors.New("di: cyclic dependency detected")
	// ErrMemberInjection 注入方法返回错误或 panic
	ErrMemberInjection = errors.New("di: member injection failed")
	// ErrRegistryDisposed 注册表已释放
	ErrRegistryDisposed = errors.New("di: registry has been disposed")
	// ErrNotConstructible 类型没有构造方式（例如未绑定实现的接口）
	ErrNotConstructible = errors.New("di: type is not constructible")
	// ErrInvalidDescriptor Describe 声明无效
	ErrInvalidDescriptor = errors.New("di: invalid type descriptor")
)

// UnresolvedParameterError 描述无法解析的参数
type UnresolvedParameterError struct {
	Name     string
	Type     reflect.Type
	Consumer reflect.Type
}

func (e *UnresolvedParameterError) Error() string {
	name := e.Name
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("di: unable to resolve parameter %s of type %v while injecting %v", name, e.Type, e.Consumer)
}

func (e *UnresolvedParameterError) Unwrap() error {
	return ErrUnresolvedParameter
}

// CycleError 依赖类型的构造参数引用了正在请求它的消费者类型
type CycleError struct {
	Dependency reflect.Type
	Consumer   reflect.Type
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("di: cyclic dependency detected between %v and %v", e.Dependency, e.Consumer)
}

func (e *CycleError) Unwrap() error {
	return ErrCycleDetected
}

// ConfigError 绑定配置错误，由 Binder 与 Describe 以 panic 抛出
type ConfigError struct {
	Err    error
	Target reflect.Type
	Detail string
}

func (e *ConfigError) Error() string {
	if e.Target == nil {
		return fmt.Sprintf("%v: %s", e.Err, e.Detail)
	}
	return fmt.Sprintf("%v: %v: %s", e.Err, e.Target, e.Detail)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// MemberInjectionError 注入方法执行失败
type MemberInjectionError struct {
	Type   reflect.Type
	Method string
	Err    error
}

func (e *MemberInjectionError) Error() string {
	return fmt.Sprintf("di: injection method %v.%s failed: %v", e.Type, e.Method, e.Err)
}

func (e *MemberInjectionError) Unwrap() []error {
	return []error{ErrMemberInjection, e.Err}
}

func configErrorf(kind error, target reflect.Type, format string, args ...any) *ConfigError {
	return &ConfigError{Err: kind, Target: target, Detail: fmt.Sprintf(format, args...)}
}
