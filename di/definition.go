package di

import (
	"fmt"
	"reflect"
)

// Lifetime 定义了绑定实例的生命周期。
type Lifetime int

const (
	// LazySingleton 首次解析时创建，之后复用（默认）。
	LazySingleton Lifetime = iota
	// EagerSingleton 在 CreateEagerInstances 时创建，之后复用。
	EagerSingleton
	// Transient 每次解析都创建新实例，不缓存。
	Transient
)

// String 返回生命周期的字符串表示
func (l Lifetime) String() string {
	switch l {
	case LazySingleton:
		return "lazy-singleton"
	case EagerSingleton:
		return "eager-singleton"
	case Transient:
		return "transient"
	default:
		return fmt.Sprintf("lifetime(%d)", int(l))
	}
}

func (l Lifetime) singleton() bool {
	return l != Transient
}

// Factory 自定义实例创建函数
type Factory func(ctx *InjectContext) (any, error)

// Argument 一次构建调用携带的额外参数，优先级低于注册表中的绑定。
type Argument struct {
	Name  string
	Value any
}

// Arg 创建一个无名参数
func Arg(value any) Argument {
	return Argument{Value: value}
}

// NamedArg 创建一个具名参数，只有同名的注入参数会优先选中它
func NamedArg(name string, value any) Argument {
	return Argument{Name: name, Value: value}
}

func toArguments(values []any) []Argument {
	args := make([]Argument, 0, len(values))
	for _, v := range values {
		if a, ok := v.(Argument); ok {
			args = append(args, a)
			continue
		}
		args = append(args, Arg(v))
	}
	return args
}

// InjectContext 传给 Factory 的创建上下文
type InjectContext struct {
	Registry *Registry
	Binding  *Binding
	// Consumer 请求该依赖的类型，直接 GetInstance 时为 nil
	Consumer reflect.Type
	Args     []Argument
}

// Binding 一条注册的绑定
type Binding struct {
	target           reflect.Type
	impl             reflect.Type
	factory          Factory
	instance         any
	hasInstance      bool
	id               string
	whenInjectedInto reflect.Type
	lifetime         Lifetime
	args             []Argument

	cached    any
	resolved  bool
	resolving bool
	pending   any // 已构造、成员注入尚未完成的单例

	ctorSig     []param
	ctorSigDone bool
}

// Target 返回绑定的请求类型
func (b *Binding) Target() reflect.Type { return b.target }

// Implementation 返回绑定的实现类型
func (b *Binding) Implementation() reflect.Type { return b.impl }

// ID 返回绑定的标识
func (b *Binding) ID() string { return b.id }

// Lifetime 返回绑定的生命周期
func (b *Binding) Lifetime() Lifetime { return b.lifetime }

// Resolved 单例是否已创建并缓存
func (b *Binding) Resolved() bool { return b.resolved }

func (b *Binding) source() string {
	switch {
	case b.hasInstance:
		return "instance"
	case b.factory != nil:
		return "factory"
	default:
		return "type"
	}
}

// matches 判断绑定能否满足参数 p，返回特异度分数。
// 标识匹配计 2 分，消费者限定匹配计 1 分。
func (b *Binding) matches(p param, consumer reflect.Type) (int, bool) {
	if b.target != p.Type {
		return 0, false
	}
	score := 0
	if b.whenInjectedInto != nil {
		if consumer == nil || !sameType(b.whenInjectedInto, consumer) {
			return 0, false
		}
		score++
	}
	if b.id != "" {
		if b.id != p.Name {
			return 0, false
		}
		score += 2
	}
	return score, true
}

// constructorSignature 返回实现类型的构造参数列表（缓存）。
// 预设实例与工厂绑定不调用构造函数，返回空。
func (b *Binding) constructorSignature() []param {
	if b.ctorSigDone {
		return b.ctorSig
	}
	b.ctorSigDone = true
	if b.hasInstance || b.factory != nil {
		return nil
	}
	if info := lookupType(b.impl); info != nil && info.ctor != nil {
		b.ctorSig = info.ctor.params
	}
	return b.ctorSig
}

func (b *Binding) info() BindingInfo {
	bi := BindingInfo{
		Target:   typeName(b.target),
		ID:       b.id,
		Lifetime: b.lifetime.String(),
		Resolved: b.resolved,
		Source:   b.source(),
	}
	if b.impl != nil {
		bi.Implementation = typeName(b.impl)
	}
	if b.whenInjectedInto != nil {
		bi.WhenInjectedInto = typeName(b.whenInjectedInto)
	}
	return bi
}

// BindingInfo 绑定的只读快照，用于诊断输出
type BindingInfo struct {
	Target           string `json:"target"`
	Implementation   string `json:"implementation"`
	ID               string `json:"id,omitempty"`
	WhenInjectedInto string `json:"whenInjectedInto,omitempty"`
	Lifetime         string `json:"lifetime"`
	Resolved         bool   `json:"resolved"`
	Source           string `json:"source"`
}

func sameType(a, b reflect.Type) bool {
	if a == b {
		return true
	}
	return deref(a) == deref(b)
}

func deref(t reflect.Type) reflect.Type {
	if t != nil && t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

func typeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	return t.String()
}
