package gitplugin

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gocrud/gitplugin/core"
)

// ShutdownTimeout 优雅关闭的超时时间
const ShutdownTimeout = 5 * time.Second

// Start 应用全部选项并启动运行时，启动失败时释放已创建的资源
func Start(ctx context.Context, opts ...core.Option) (*core.Runtime, error) {
	rt := core.NewRuntime()

	// 1. Bootstrap (应用所有选项)
	if err := rt.Apply(opts...); err != nil {
		return nil, err
	}

	// 2. 创建预先实例化的单例、执行启动钩子、启动托管服务
	if err := rt.Start(ctx); err != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if stopErr := rt.Stop(stopCtx); stopErr != nil {
			return nil, fmt.Errorf("%w (cleanup: %v)", err, stopErr)
		}
		return nil, err
	}
	return rt, nil
}

// RunContext 启动运行时并阻塞，直到 ctx 取消或运行时请求退出，然后优雅关闭
func RunContext(ctx context.Context, opts ...core.Option) error {
	rt, err := Start(ctx, opts...)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-rt.Done():
		// 运行时内部请求退出 (例如托管服务崩溃)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return rt.Stop(shutdownCtx)
}

// Run 启动插件并在收到 SIGINT/SIGTERM 时退出
func Run(opts ...core.Option) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return RunContext(ctx, opts...)
}
