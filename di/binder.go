package di

import (
	"reflect"
)

// Binder 绑定的流式配置器，由 Registry.Bind 返回。
// 配置错误属于编程错误，以 *ConfigError panic。
type Binder struct {
	registry *Registry
	binding  *Binding
}

// Binding 返回正在配置的绑定
func (b *Binder) Binding() *Binding {
	return b.binding
}

// To 设置实现类型，实现类型必须与请求类型互相可赋值
func (b *Binder) To(impl reflect.Type) *Binder {
	target := b.binding.target
	if impl == nil || !(impl == target || impl.AssignableTo(target) || target.AssignableTo(impl)) {
		panic(configErrorf(ErrIncompatibleImplementation, target, "%v is not assignable to %v", impl, target))
	}
	b.binding.impl = impl
	return b
}

// WhenInjectedInto 限定绑定只对指定消费者类型生效。
// 受限绑定只参与注入解析，GetInstance 与集合解析不会选中它。
func (b *Binder) WhenInjectedInto(consumer reflect.Type) *Binder {
	b.binding.whenInjectedInto = consumer
	return b
}

// FromInstance 使用预设实例，首次解析时对它执行一次成员注入
func (b *Binder) FromInstance(instance any) *Binder {
	target := b.binding.target
	if !assignable(instance, target) {
		panic(configErrorf(ErrIncompatibleInstance, target, "%T is not assignable to %v", instance, target))
	}
	b.binding.instance = instance
	b.binding.hasInstance = true
	b.binding.impl = reflect.TypeOf(instance)
	return b
}

// FromMethod 使用工厂函数创建实例
func (b *Binder) FromMethod(factory Factory) *Binder {
	if factory == nil {
		panic(configErrorf(ErrIncompatibleImplementation, b.binding.target, "nil factory"))
	}
	b.binding.factory = factory
	return b
}

// WithID 设置绑定标识，只有同名的注入参数或 GetInstance(t, id) 能选中它
func (b *Binder) WithID(id string) *Binder {
	b.binding.id = id
	return b
}

// NonLazy 改为 EagerSingleton
func (b *Binder) NonLazy() *Binder {
	b.binding.lifetime = EagerSingleton
	return b
}

// AsTransient 改为 Transient
func (b *Binder) AsTransient() *Binder {
	b.binding.lifetime = Transient
	return b
}

// AsSingleton 改回 LazySingleton
func (b *Binder) AsSingleton() *Binder {
	b.binding.lifetime = LazySingleton
	return b
}

// WithArguments 追加构建参数，值可以是 Argument 或普通值
func (b *Binder) WithArguments(values ...any) *Binder {
	b.binding.args = append(b.binding.args, toArguments(values)...)
	return b
}
