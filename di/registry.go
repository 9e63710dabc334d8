package di

import (
	"fmt"
	"io"
	"reflect"

	"github.com/gocrud/gitplugin/logging"
	"go.uber.org/multierr"
)

var registryType = reflect.TypeOf((*Registry)(nil))

// Registry 依赖注入注册表。
// 注册表不加锁，只应在宿主主线程上构建和使用，跨 goroutine 访问需要调用方串行化。
type Registry struct {
	bindings    []*Binding
	parent      *Registry
	logger      logging.Logger
	hostFactory HostObjectFactory
	disposed    bool
}

// RegistryOption 注册表选项
type RegistryOption func(*Registry)

// WithLogger 设置注册表日志，诊断信息（歧义绑定、成员注入失败）写到这里
func WithLogger(logger logging.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithParent 设置父注册表，本地解析失败时回退到父注册表
func WithParent(parent *Registry) RegistryOption {
	return func(r *Registry) {
		r.parent = parent
	}
}

// WithHostFactory 设置宿主对象工厂
func WithHostFactory(factory HostObjectFactory) RegistryOption {
	return func(r *Registry) {
		r.hostFactory = factory
	}
}

// NewRegistry 创建注册表，注册表自身以 *Registry 绑定。
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{}
	for _, opt := range opts {
		opt(r)
	}
	if r.parent != nil {
		if r.logger == nil {
			r.logger = r.parent.logger
		}
		if r.hostFactory == nil {
			r.hostFactory = r.parent.hostFactory
		}
	}
	if r.logger == nil {
		r.logger = logging.NewLogger().WithCategory("di")
	}
	r.Bind(registryType).FromInstance(r)
	return r
}

// SetLogger 替换注册表日志
func (r *Registry) SetLogger(logger logging.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// SetHostFactory 替换宿主对象工厂，已创建的子注册表不受影响
func (r *Registry) SetHostFactory(factory HostObjectFactory) {
	r.hostFactory = factory
}

// Logger 返回注册表日志
func (r *Registry) Logger() logging.Logger {
	return r.logger
}

// Parent 返回父注册表，根注册表返回 nil
func (r *Registry) Parent() *Registry {
	return r.parent
}

// CreateChild 创建以当前注册表为父的子注册表
func (r *Registry) CreateChild(opts ...RegistryOption) *Registry {
	return NewRegistry(append([]RegistryOption{WithParent(r)}, opts...)...)
}

// Bind 为类型 t 追加一条绑定，默认实现类型为 t 本身、生命周期为 LazySingleton。
func (r *Registry) Bind(t reflect.Type) *Binder {
	if t == nil {
		panic(configErrorf(ErrIncompatibleImplementation, nil, "cannot bind nil type"))
	}
	b := &Binding{target: t, impl: t, lifetime: LazySingleton}
	r.bindings = append(r.bindings, b)
	return &Binder{registry: r, binding: b}
}

// Unbind 删除请求类型或实现类型为 t 的全部绑定
func (r *Registry) Unbind(t reflect.Type) {
	kept := r.bindings[:0]
	for _, b := range r.bindings {
		if b.target == t || b.impl == t {
			continue
		}
		kept = append(kept, b)
	}
	for i := len(kept); i < len(r.bindings); i++ {
		r.bindings[i] = nil
	}
	r.bindings = kept
}

// Bindings 返回本注册表的绑定快照（不含父注册表）
func (r *Registry) Bindings() []BindingInfo {
	infos := make([]BindingInfo, 0, len(r.bindings))
	for _, b := range r.bindings {
		infos = append(infos, b.info())
	}
	return infos
}

// GetInstance 解析类型 t 的实例。
// 本地与父注册表都没有匹配绑定时返回 t 的零值且不报错。
// 只考虑没有消费者限定的绑定。
func (r *Registry) GetInstance(t reflect.Type, id ...string) (any, error) {
	if r.disposed {
		return nil, ErrRegistryDisposed
	}
	if t == nil {
		return nil, nil
	}
	p := param{Type: t}
	if len(id) > 0 {
		p.Name = id[0]
	}
	for reg := r; reg != nil; reg = reg.parent {
		if b := reg.match(p, nil); b != nil {
			return reg.instantiate(b, nil)
		}
	}
	return reflect.Zero(t).Interface(), nil
}

// GetInstances 解析类型 t 的全部无标识、无限定绑定，按注册顺序返回。
// 本地没有时回退到父注册表。
func (r *Registry) GetInstances(t reflect.Type) ([]any, error) {
	if r.disposed {
		return nil, ErrRegistryDisposed
	}
	for reg := r; reg != nil; reg = reg.parent {
		bs := reg.collection(t)
		if len(bs) == 0 {
			continue
		}
		out := make([]any, 0, len(bs))
		for _, b := range bs {
			inst, err := reg.instantiate(b, nil)
			if err != nil {
				return nil, err
			}
			out = append(out, inst)
		}
		return out, nil
	}
	return []any{}, nil
}

// CreateEagerInstances 创建全部 EagerSingleton 绑定的实例，遇到第一个错误即返回。
func (r *Registry) CreateEagerInstances() error {
	if r.disposed {
		return ErrRegistryDisposed
	}
	for _, b := range append([]*Binding(nil), r.bindings...) {
		if b.lifetime != EagerSingleton {
			continue
		}
		if _, err := r.instantiate(b, nil); err != nil {
			return fmt.Errorf("di: eager instantiation of %v failed: %w", b.target, err)
		}
	}
	return nil
}

// Inject 对已存在的对象执行成员注入，obj 必须是非 nil 指针
func (r *Registry) Inject(obj any) error {
	if r.disposed {
		return ErrRegistryDisposed
	}
	v := reflect.ValueOf(obj)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Errorf("di: Inject requires a non-nil pointer, got %T", obj)
	}
	return r.injectMembers(v, nil)
}

// InjectStatic 调用类型 t（含嵌入链）声明的静态注入函数。
// 某个函数失败时记录错误并停止后续函数，不返回错误。
func (r *Registry) InjectStatic(t reflect.Type) error {
	if r.disposed {
		return ErrRegistryDisposed
	}
	for _, fn := range planMembers(t).statics {
		vals, err := r.resolveParams(fn.params, t, nil)
		if err != nil {
			return err
		}
		if err := callInjection(fn.fn, vals); err != nil {
			r.logger.Error("static injection failed",
				logging.Field{Key: "type", Value: typeName(t)},
				logging.Field{Key: "function", Value: fn.name},
				logging.Field{Key: "error", Value: err})
			break
		}
	}
	return nil
}

// CreateInstance 直接构造类型 t 的新实例，不查找也不缓存绑定。
// args 可以是 Argument 或普通值，作为最低优先级的参数来源。
func (r *Registry) CreateInstance(t reflect.Type, args ...any) (any, error) {
	if r.disposed {
		return nil, ErrRegistryDisposed
	}
	return r.construct(t, toArguments(args), nil)
}

// Dispose 按注册的逆序释放已缓存的单例，然后使注册表失效。
// 同一实例只释放一次，注册表自身跳过。释放错误合并返回。
func (r *Registry) Dispose() error {
	if r.disposed {
		return nil
	}
	r.disposed = true

	var err error
	seen := make(map[any]struct{})
	for i := len(r.bindings) - 1; i >= 0; i-- {
		b := r.bindings[i]
		if !b.resolved {
			continue
		}
		inst := b.cached
		b.cached, b.resolved = nil, false
		if inst == nil {
			continue
		}
		if reg, ok := inst.(*Registry); ok && reg == r {
			continue
		}
		if reflect.ValueOf(inst).Kind() == reflect.Pointer {
			if _, dup := seen[inst]; dup {
				continue
			}
			seen[inst] = struct{}{}
		}
		err = multierr.Append(err, disposeInstance(inst))
	}
	r.bindings = nil
	return err
}

// Disposed 注册表是否已释放
func (r *Registry) Disposed() bool {
	return r.disposed
}

// Disposable 释放时被调用的实例。也支持 Dispose() error 与 io.Closer。
type Disposable interface {
	Dispose()
}

func disposeInstance(inst any) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("di: disposing %T panicked: %v", inst, rec)
		}
	}()

	switch d := inst.(type) {
	case interface{ Dispose() error }:
		return d.Dispose()
	case Disposable:
		d.Dispose()
	case io.Closer:
		return d.Close()
	}
	return nil
}
