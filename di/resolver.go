package di

import (
	"fmt"
	"reflect"

	"github.com/gocrud/gitplugin/logging"
)

// match 在本注册表中为参数 p 选出最特异的绑定。
// 同分的多个候选记录 Warn 并取最后注册的一个。
func (r *Registry) match(p param, consumer reflect.Type) *Binding {
	var best []*Binding
	bestScore := -1
	for _, b := range r.bindings {
		score, ok := b.matches(p, consumer)
		if !ok {
			continue
		}
		switch {
		case score > bestScore:
			best = append(best[:0], b)
			bestScore = score
		case score == bestScore:
			best = append(best, b)
		}
	}
	if len(best) == 0 {
		return nil
	}
	if len(best) > 1 {
		r.logger.Warn("ambiguous binding, using the last registered candidate",
			logging.Field{Key: "type", Value: typeName(p.Type)},
			logging.Field{Key: "name", Value: p.Name},
			logging.Field{Key: "consumer", Value: typeName(consumer)},
			logging.Field{Key: "candidates", Value: len(best)},
			logging.Field{Key: "error", Value: ErrAmbiguousBinding})
	}
	return best[len(best)-1]
}

// collection 返回元素类型为 elem 的无标识、无限定绑定
func (r *Registry) collection(elem reflect.Type) []*Binding {
	var out []*Binding
	for _, b := range r.bindings {
		if b.target == elem && b.id == "" && b.whenInjectedInto == nil {
			out = append(out, b)
		}
	}
	return out
}

// instantiate 返回绑定的实例，单例创建后缓存
func (r *Registry) instantiate(b *Binding, consumer reflect.Type) (any, error) {
	if b.lifetime.singleton() && consumer != nil {
		if err := checkCycle(b, consumer); err != nil {
			return nil, err
		}
	}
	if b.lifetime.singleton() && b.resolved {
		return b.cached, nil
	}
	if b.resolving {
		if b.lifetime.singleton() && b.pending != nil {
			return b.pending, nil
		}
		if consumer == nil {
			consumer = b.impl
		}
		return nil, &CycleError{Dependency: b.impl, Consumer: consumer}
	}

	b.resolving = true
	inst, err := func() (any, error) {
		defer func() { b.resolving, b.pending = false, nil }()
		return r.create(b, consumer)
	}()
	if err != nil {
		return nil, err
	}
	if b.lifetime.singleton() {
		b.cached, b.resolved = inst, true
	}
	return inst, nil
}

// checkCycle 浅层循环检测：依赖实现类型的构造参数中出现与消费者兼容的类型即视为循环。
// 只检查一层，不做完整的图遍历。
func checkCycle(b *Binding, consumer reflect.Type) error {
	for _, p := range b.constructorSignature() {
		if p.Type == consumer || p.Type.AssignableTo(consumer) || consumer.AssignableTo(p.Type) {
			return &CycleError{Dependency: b.impl, Consumer: consumer}
		}
	}
	return nil
}

func (r *Registry) create(b *Binding, consumer reflect.Type) (any, error) {
	switch {
	case b.hasInstance:
		b.pending = b.instance
		if err := r.injectInstance(b.instance, b.args); err != nil {
			return nil, err
		}
		return b.instance, nil

	case b.factory != nil:
		ctx := &InjectContext{Registry: r, Binding: b, Consumer: consumer, Args: b.args}
		inst, err := callFactory(b.factory, ctx)
		if err != nil {
			return nil, fmt.Errorf("di: factory for %v failed: %w", b.target, err)
		}
		if inst == nil {
			return nil, fmt.Errorf("di: factory for %v returned nil", b.target)
		}
		if !assignable(inst, b.target) {
			return nil, configErrorf(ErrIncompatibleImplementation, b.target, "factory returned %T", inst)
		}
		b.pending = inst
		if err := r.injectInstance(inst, b.args); err != nil {
			return nil, err
		}
		return inst, nil

	default:
		inst, err := r.construct(b.impl, b.args, func(inst any) { b.pending = inst })
		if err != nil {
			return nil, err
		}
		if inst != nil && !assignable(inst, b.target) {
			return nil, configErrorf(ErrIncompatibleImplementation, b.target, "constructed %T", inst)
		}
		return inst, nil
	}
}

// construct 按以下顺序创建类型 t 的实例：宿主对象工厂、声明的构造函数、reflect.New。
// 之后执行成员注入；built 不为 nil 时在成员注入前收到新实例。
func (r *Registry) construct(t reflect.Type, args []Argument, built func(any)) (any, error) {
	if built == nil {
		built = func(any) {}
	}
	if r.hostFactory != nil && r.hostFactory.CanConstruct(t) {
		inst, err := r.hostFactory.Construct(t)
		if err != nil {
			return nil, fmt.Errorf("di: host factory failed to construct %v: %w", t, err)
		}
		built(inst)
		if err := r.injectInstance(inst, args); err != nil {
			return nil, err
		}
		return inst, nil
	}

	if info := lookupType(t); info != nil && info.ctor != nil {
		vals, err := r.resolveParams(info.ctor.params, t, args)
		if err != nil {
			return nil, fmt.Errorf("di: failed to construct %v: %w", t, err)
		}
		inst, err := callConstructor(info.ctor.fn, vals)
		if err != nil {
			return nil, fmt.Errorf("di: constructor %s of %v failed: %w", info.ctor.name, t, err)
		}
		built(inst)
		if err := r.injectInstance(inst, args); err != nil {
			return nil, err
		}
		return inst, nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		v := reflect.New(t.Elem())
		built(v.Interface())
		if err := r.injectMembers(v, args); err != nil {
			return nil, fmt.Errorf("di: failed to construct %v: %w", t, err)
		}
		return v.Interface(), nil
	case reflect.Struct:
		v := reflect.New(t)
		if err := r.injectMembers(v, args); err != nil {
			return nil, fmt.Errorf("di: failed to construct %v: %w", t, err)
		}
		return v.Elem().Interface(), nil
	case reflect.Interface:
		return nil, fmt.Errorf("%w: %v is an interface with no implementation bound", ErrNotConstructible, t)
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return nil, fmt.Errorf("%w: %v", ErrNotConstructible, t)
	default:
		return reflect.Zero(t).Interface(), nil
	}
}

// injectInstance 对工厂或预设实例执行成员注入，非结构体指针直接跳过
func (r *Registry) injectInstance(inst any, args []Argument) error {
	v := reflect.ValueOf(inst)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return nil
	}
	if planMembers(v.Type()).empty() {
		return nil
	}
	return r.injectMembers(v, args)
}

// injectMembers 先注入字段，再调用注入方法，两者都按基类到派生类的顺序。
// 已有非零值的字段不覆盖。注入方法失败只记录日志并放弃剩余方法，实例仍然可用。
func (r *Registry) injectMembers(v reflect.Value, args []Argument) error {
	consumer := v.Type()
	plan := planMembers(consumer)

	for _, step := range plan.fields {
		holder, ok := valueAt(v, step.path)
		if !ok {
			continue
		}
		fv := reflect.Indirect(holder).Field(step.index)
		if !fv.CanSet() || !fv.IsZero() {
			continue
		}
		val, err := r.resolveParam(step.param, consumer, args)
		if err != nil {
			return fmt.Errorf("di: field %s of %v: %w", step.name, consumer, err)
		}
		fv.Set(val)
	}

	for _, step := range plan.methods {
		holder, ok := valueAt(v, step.path)
		if !ok {
			continue
		}
		m := methodValue(holder, step.method.name)
		if !m.IsValid() {
			continue
		}
		vals, err := r.resolveParams(step.method.params, consumer, args)
		if err != nil {
			return fmt.Errorf("di: method %s of %v: %w", step.method.name, consumer, err)
		}
		if err := callInjection(m, vals); err != nil {
			failure := &MemberInjectionError{Type: consumer, Method: step.method.name, Err: err}
			r.logger.Error("member injection failed, skipping remaining injection methods",
				logging.Field{Key: "type", Value: typeName(consumer)},
				logging.Field{Key: "method", Value: step.method.name},
				logging.Field{Key: "error", Value: failure})
			break
		}
	}
	return nil
}

func (r *Registry) resolveParams(params []param, consumer reflect.Type, args []Argument) ([]reflect.Value, error) {
	vals := make([]reflect.Value, 0, len(params))
	for _, p := range params {
		v, err := r.resolveParam(p, consumer, args)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

// resolveParam 逐级（本地、父注册表）查找参数 p 的值：先绑定，后调用参数。
// 都找不到时集合参数得到空切片，可选参数得到零值，其余报 UnresolvedParameterError。
func (r *Registry) resolveParam(p param, consumer reflect.Type, args []Argument) (reflect.Value, error) {
	for reg := r; reg != nil; reg = reg.parent {
		v, ok, err := reg.resolveLocal(p, consumer, args)
		if err != nil {
			return reflect.Value{}, err
		}
		if ok {
			return v, nil
		}
	}
	if isCollection(p.Type) {
		return reflect.MakeSlice(p.Type, 0, 0), nil
	}
	if p.Optional {
		return reflect.Zero(p.Type), nil
	}
	return reflect.Value{}, &UnresolvedParameterError{Name: p.Name, Type: p.Type, Consumer: consumer}
}

// resolveLocal 集合参数先收集元素绑定，没有元素绑定时按切片类型本身匹配
func (r *Registry) resolveLocal(p param, consumer reflect.Type, args []Argument) (reflect.Value, bool, error) {
	if isCollection(p.Type) {
		if bs := r.collection(p.Type.Elem()); len(bs) > 0 {
			out := reflect.MakeSlice(p.Type, 0, len(bs))
			for _, b := range bs {
				inst, err := r.instantiate(b, consumer)
				if err != nil {
					return reflect.Value{}, false, err
				}
				out = reflect.Append(out, valueOf(inst, p.Type.Elem()))
			}
			return out, true, nil
		}
	}
	if b := r.match(p, consumer); b != nil {
		inst, err := r.instantiate(b, consumer)
		if err != nil {
			return reflect.Value{}, false, err
		}
		return valueOf(inst, p.Type), true, nil
	}

	if v, ok := matchArgument(p, args); ok {
		return v, true, nil
	}
	return reflect.Value{}, false, nil
}

// matchArgument 同名且类型兼容的参数优先，其次是任意类型兼容的参数
func matchArgument(p param, args []Argument) (reflect.Value, bool) {
	if p.Name != "" {
		for _, a := range args {
			if a.Name == p.Name && assignable(a.Value, p.Type) {
				return reflect.ValueOf(a.Value), true
			}
		}
	}
	for _, a := range args {
		if assignable(a.Value, p.Type) {
			return reflect.ValueOf(a.Value), true
		}
	}
	return reflect.Value{}, false
}
