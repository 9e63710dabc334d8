package core

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
)

// Hook 生命周期钩子
type Hook func(ctx context.Context) error

// LifecycleEvents 启动与停止钩子。
// 停止钩子只执行一次，钩子中的 panic 转为错误返回，不会带崩宿主进程。
type LifecycleEvents struct {
	mu       sync.Mutex
	onStart  []Hook
	onStop   []Hook
	stopOnce sync.Once
}

// NewLifecycle 创建生命周期钩子集合
func NewLifecycle() *LifecycleEvents {
	return &LifecycleEvents{}
}

// OnStart 追加启动钩子
func (l *LifecycleEvents) OnStart(fn Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onStart = append(l.onStart, fn)
}

// OnStop 追加停止钩子
func (l *LifecycleEvents) OnStop(fn Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onStop = append(l.onStop, fn)
}

// Start 按注册顺序执行启动钩子，遇到错误即返回
func (l *LifecycleEvents) Start(ctx context.Context) error {
	for _, fn := range l.snapshot(&l.onStart) {
		if err := runHook(ctx, fn); err != nil {
			return err
		}
	}
	return nil
}

// Stop 倒序执行停止钩子，错误合并返回，不中断其余钩子
func (l *LifecycleEvents) Stop(ctx context.Context) error {
	var err error
	l.stopOnce.Do(func() {
		hooks := l.snapshot(&l.onStop)
		for i := len(hooks) - 1; i >= 0; i-- {
			err = multierr.Append(err, runHook(ctx, hooks[i]))
		}
	})
	return err
}

func (l *LifecycleEvents) snapshot(hooks *[]Hook) []Hook {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Hook(nil), (*hooks)...)
}

func runHook(ctx context.Context, fn Hook) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("core: lifecycle hook panicked: %v", r)
		}
	}()
	return fn(ctx)
}
