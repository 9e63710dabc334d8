// Package host 模拟插件所在的宿主应用对象模型：窗口、部件与主线程。
package host

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/gocrud/gitplugin/di"
)

func init() {
	di.Describe[*Panel](di.Method("Attach", "window,?"))
}

// Window 宿主窗口，每个打开的窗口拥有一个子注册表
type Window struct {
	ID    string
	Title string
}

// Widget 宿主拥有的 UI 部件，只能由宿主分配
type Widget interface {
	WidgetID() string
}

// Panel 部件的公共基类，具体部件通过嵌入获得 ID 与窗口关联
type Panel struct {
	id     string
	window *Window
}

// WidgetID 返回宿主分配的部件 ID
func (p *Panel) WidgetID() string { return p.id }

// Window 返回部件所在窗口，未挂载时为 nil
func (p *Panel) Window() *Window { return p.window }

// Attach 注入方法：把部件挂到当前作用域的窗口上
func (p *Panel) Attach(window *Window) {
	p.window = window
}

// Allocator 宿主分配部件的函数，id 由工厂生成
type Allocator func(id string) (Widget, error)

// WidgetFactory 宿主部件工厂，实现 di.HostObjectFactory。
// 注册表构造部件类型时改为调用这里登记的分配函数。
type WidgetFactory struct {
	mu         sync.Mutex
	allocators map[reflect.Type]Allocator
	next       int
}

// NewWidgetFactory 创建部件工厂
func NewWidgetFactory() *WidgetFactory {
	return &WidgetFactory{allocators: make(map[reflect.Type]Allocator)}
}

// Register 为部件类型 t 登记分配函数
func (f *WidgetFactory) Register(t reflect.Type, alloc Allocator) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allocators[t] = alloc
}

// RegisterWidget 泛型登记，alloc 接收宿主分配的 id
func RegisterWidget[T Widget](f *WidgetFactory, alloc func(id string) T) {
	f.Register(reflect.TypeOf((*T)(nil)).Elem(), func(id string) (Widget, error) {
		return alloc(id), nil
	})
}

// CanConstruct 是否登记了 t 的分配函数
func (f *WidgetFactory) CanConstruct(t reflect.Type) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.allocators[t]
	return ok
}

// Construct 分配一个 t 类型的部件
func (f *WidgetFactory) Construct(t reflect.Type) (any, error) {
	f.mu.Lock()
	alloc, ok := f.allocators[t]
	f.next++
	id := fmt.Sprintf("widget-%d", f.next)
	f.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("host: no allocator registered for %v", t)
	}
	w, err := alloc(id)
	if err != nil {
		return nil, fmt.Errorf("host: allocating %v: %w", t, err)
	}
	return w, nil
}

// NewPanel 创建带 ID 的面板基类，供分配函数使用
func NewPanel(id string) Panel {
	return Panel{id: id}
}

// MainThread 宿主主线程。注册表不是并发安全的，
// 后台 goroutine（定时任务、诊断接口）必须经由 Do 串行访问。
type MainThread struct {
	mu sync.Mutex
}

// NewMainThread 创建主线程调度器
func NewMainThread() *MainThread {
	return &MainThread{}
}

// Do 在主线程上执行 fn，不可重入
func (m *MainThread) Do(fn func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn()
}
