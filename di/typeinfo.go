package di

import (
	"reflect"
	"runtime"
	"strings"
	"sync"
)

// param 一个注入点：构造参数、方法参数或字段
type param struct {
	Name     string
	Type     reflect.Type
	Optional bool
}

// injectFunc 可注入的函数：构造函数、注入方法或静态注入函数
type injectFunc struct {
	name   string
	fn     reflect.Value // 方法为零值，调用时按实例取
	params []param
}

// typeInfo 一个类型声明的注入元数据
type typeInfo struct {
	ctor    *injectFunc
	methods []*injectFunc
	statics []*injectFunc
}

// Member 类型描述项，见 Constructor、Method、Static
type Member func(t reflect.Type, info *typeInfo)

var typeTable = struct {
	sync.RWMutex
	infos map[reflect.Type]*typeInfo
}{infos: make(map[reflect.Type]*typeInfo)}

// Describe 为类型 T 声明注入元数据。
// Go 运行时拿不到参数名，具名注入需要在这里以字符串声明。
//
//	di.Describe[*StatusService](
//		di.Constructor(NewStatusService, "repo", "logger,?"),
//		di.Method("Inject", "clock"),
//	)
func Describe[T any](members ...Member) {
	DescribeType(TypeOf[T](), members...)
}

// DescribeType Describe 的非泛型版本
func DescribeType(t reflect.Type, members ...Member) {
	if t == nil {
		panic(configErrorf(ErrInvalidDescriptor, nil, "cannot describe nil type"))
	}
	typeTable.Lock()
	defer typeTable.Unlock()
	defer planCache.Clear()

	info, ok := typeTable.infos[t]
	if !ok {
		info = &typeInfo{}
		typeTable.infos[t] = info
	}
	for _, m := range members {
		m(t, info)
	}
}

// Constructor 声明注入构造函数。
// fn 返回 T 或 (T, error)；params 按顺序为每个参数给出 "name"、"name,?" 或 "?"。
func Constructor(fn any, params ...string) Member {
	return func(t reflect.Type, info *typeInfo) {
		fv := checkFunc(t, fn)
		ft := fv.Type()
		if ft.NumOut() == 0 || ft.NumOut() > 2 || (ft.NumOut() == 2 && ft.Out(1) != errorType) {
			panic(configErrorf(ErrInvalidDescriptor, t, "constructor %s must return T or (T, error)", funcName(fv)))
		}
		if !ft.Out(0).AssignableTo(t) {
			panic(configErrorf(ErrInvalidDescriptor, t, "constructor %s returns %v", funcName(fv), ft.Out(0)))
		}
		if info.ctor != nil {
			panic(configErrorf(ErrInvalidDescriptor, t, "constructor already declared"))
		}
		info.ctor = &injectFunc{name: funcName(fv), fn: fv, params: funcParams(t, ft, 0, params)}
	}
}

// Method 声明注入方法，实例创建后按基类到派生类的顺序调用。
// 方法可以没有返回值或只返回 error。
func Method(name string, params ...string) Member {
	return func(t reflect.Type, info *typeInfo) {
		if t.Kind() == reflect.Interface {
			panic(configErrorf(ErrInvalidDescriptor, t, "injection methods cannot be declared on interfaces"))
		}
		pt := t
		if pt.Kind() != reflect.Pointer {
			pt = reflect.PointerTo(t)
		}
		m, ok := pt.MethodByName(name)
		if !ok {
			panic(configErrorf(ErrInvalidDescriptor, t, "method %s not found", name))
		}
		checkInjectionResults(t, m.Type, name)
		for _, existing := range info.methods {
			if existing.name == name {
				panic(configErrorf(ErrInvalidDescriptor, t, "method %s already declared", name))
			}
		}
		info.methods = append(info.methods, &injectFunc{name: name, params: funcParams(t, m.Type, 1, params)})
	}
}

// Static 声明静态注入函数，由 Registry.InjectStatic 调用。
func Static(fn any, params ...string) Member {
	return func(t reflect.Type, info *typeInfo) {
		fv := checkFunc(t, fn)
		checkInjectionResults(t, fv.Type(), funcName(fv))
		info.statics = append(info.statics, &injectFunc{name: funcName(fv), fn: fv, params: funcParams(t, fv.Type(), 0, params)})
	}
}

func checkFunc(t reflect.Type, fn any) reflect.Value {
	fv := reflect.ValueOf(fn)
	if !fv.IsValid() || fv.Kind() != reflect.Func || fv.IsNil() {
		panic(configErrorf(ErrInvalidDescriptor, t, "expected a function, got %T", fn))
	}
	if fv.Type().IsVariadic() {
		panic(configErrorf(ErrInvalidDescriptor, t, "variadic function %s is not injectable", funcName(fv)))
	}
	return fv
}

func checkInjectionResults(t reflect.Type, ft reflect.Type, name string) {
	switch {
	case ft.NumOut() == 0:
	case ft.NumOut() == 1 && ft.Out(0) == errorType:
	default:
		panic(configErrorf(ErrInvalidDescriptor, t, "%s must return nothing or error", name))
	}
}

func funcParams(t reflect.Type, ft reflect.Type, skip int, tags []string) []param {
	n := ft.NumIn() - skip
	if len(tags) > n {
		panic(configErrorf(ErrInvalidDescriptor, t, "%d parameter tags given for %d parameters", len(tags), n))
	}
	params := make([]param, 0, n)
	for i := 0; i < n; i++ {
		p := param{Type: ft.In(i + skip)}
		if i < len(tags) {
			p.Name, p.Optional = parseParamTag(tags[i])
		}
		params = append(params, p)
	}
	return params
}

// parseParamTag 解析 "name"、"name,?"、",?"、"?" 形式的参数声明，
// "optional" 与 "?" 等价
func parseParamTag(tag string) (name string, optional bool) {
	parts := strings.Split(tag, ",")
	name = strings.TrimSpace(parts[0])
	if name == "?" || name == "optional" {
		return "", true
	}
	for _, part := range parts[1:] {
		switch strings.TrimSpace(part) {
		case "?", "optional":
			optional = true
		}
	}
	return name, optional
}

func funcName(fv reflect.Value) string {
	if f := runtime.FuncForPC(fv.Pointer()); f != nil {
		name := f.Name()
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
		return name
	}
	return fv.Type().String()
}

func lookupType(t reflect.Type) *typeInfo {
	typeTable.RLock()
	defer typeTable.RUnlock()
	return typeTable.infos[t]
}

// declaredOn 返回结构体类型 st 自身（含 *st）声明的注入方法与静态函数
func declaredOn(st reflect.Type) (methods, statics []*injectFunc) {
	typeTable.RLock()
	defer typeTable.RUnlock()
	for _, t := range []reflect.Type{st, reflect.PointerTo(st)} {
		if info := typeTable.infos[t]; info != nil {
			methods = append(methods, info.methods...)
			statics = append(statics, info.statics...)
		}
	}
	return methods, statics
}

// fieldStep 字段注入步骤
type fieldStep struct {
	path  []int
	index int
	name  string
	param param
}

// methodStep 方法注入步骤
type methodStep struct {
	path   []int
	method *injectFunc
}

// memberPlan 一个类型完整的成员注入计划
type memberPlan struct {
	fields  []fieldStep
	methods []methodStep
	statics []*injectFunc
}

func (p *memberPlan) empty() bool {
	return len(p.fields) == 0 && len(p.methods) == 0
}

var planCache sync.Map // reflect.Type -> *memberPlan

// planMembers 沿嵌入链从最内层（基类）到最外层收集注入成员。
// 外层重新声明的同名方法覆盖内层的声明。
func planMembers(t reflect.Type) *memberPlan {
	if cached, ok := planCache.Load(t); ok {
		return cached.(*memberPlan)
	}

	plan := &memberPlan{}
	onPath := make(map[reflect.Type]bool)

	var walk func(st reflect.Type, path []int)
	walk = func(st reflect.Type, path []int) {
		st = deref(st)
		if st.Kind() != reflect.Struct || onPath[st] {
			return
		}
		onPath[st] = true
		defer delete(onPath, st)

		for i := 0; i < st.NumField(); i++ {
			f := st.Field(i)
			if f.Anonymous && deref(f.Type).Kind() == reflect.Struct {
				walk(f.Type, appendPath(path, i))
			}
		}
		for i := 0; i < st.NumField(); i++ {
			f := st.Field(i)
			tag, ok := f.Tag.Lookup("di")
			if !ok || f.Anonymous || !f.IsExported() {
				continue
			}
			name, optional := parseParamTag(tag)
			if name == "" {
				name = f.Name
			}
			plan.fields = append(plan.fields, fieldStep{
				path:  path,
				index: i,
				name:  f.Name,
				param: param{Name: name, Type: f.Type, Optional: optional},
			})
		}

		methods, statics := declaredOn(st)
		for _, m := range methods {
			plan.methods = append(plan.methods, methodStep{path: path, method: m})
		}
		plan.statics = append(plan.statics, statics...)
	}
	walk(t, nil)

	kept := make([]methodStep, 0, len(plan.methods))
	for i, step := range plan.methods {
		overridden := false
		for _, later := range plan.methods[i+1:] {
			if later.method.name == step.method.name && hasPrefix(step.path, later.path) {
				overridden = true
				break
			}
		}
		if !overridden {
			kept = append(kept, step)
		}
	}
	plan.methods = kept

	actual, _ := planCache.LoadOrStore(t, plan)
	return actual.(*memberPlan)
}

func appendPath(path []int, i int) []int {
	out := make([]int, len(path)+1)
	copy(out, path)
	out[len(path)] = i
	return out
}

func hasPrefix(path, prefix []int) bool {
	if len(prefix) > len(path) {
		return false
	}
	for i := range prefix {
		if path[i] != prefix[i] {
			return false
		}
	}
	return true
}
