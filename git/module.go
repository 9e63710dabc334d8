package git

import (
	"context"

	"github.com/gocrud/gitplugin/core"
	"github.com/gocrud/gitplugin/cron"
	"github.com/gocrud/gitplugin/di"
	"github.com/gocrud/gitplugin/host"
	"github.com/gocrud/gitplugin/logging"
	"github.com/gocrud/gitplugin/web"
)

// WindowID 状态窗口的 ID
const WindowID = "git"

// Module 以 path 处的仓库启用 Git 模块，schedule 为带秒的 cron 表达式
func Module(path, schedule string) core.Option {
	return func(rt *core.Runtime) error {
		repo, err := NewCommandRepository(path)
		if err != nil {
			return err
		}
		return ModuleWith(repo, schedule)(rt)
	}
}

// ModuleWith 以给定仓库启用 Git 模块：
// 状态服务、刷新任务、诊断路由，以及带状态面板的窗口。
func ModuleWith(repo Repository, schedule string) core.Option {
	return func(rt *core.Runtime) error {
		di.BindInstance[Repository](rt.Registry, repo)
		di.Bind[*StatusService](rt.Registry)

		factory, created := core.EnsureFeature(rt, host.NewWidgetFactory)
		if created {
			di.BindInstance(rt.Registry, factory)
			if err := core.UseHostFactory(factory)(rt); err != nil {
				return err
			}
		}
		host.RegisterWidget(factory, NewStatusPanel)

		return rt.Apply(
			cron.New(cron.WithSeconds(), cron.AddJobOf[*RefreshJob](schedule, RefreshJobName)),
			web.Register(web.AddController[*StatusController]()),
			core.OnStart(func(ctx context.Context) error {
				initialRefresh(ctx, rt)
				return nil
			}),
			core.WithWindow(WindowID, "Git", InstallWindow),
		)
	}
}

// InstallWindow 窗口级绑定：每个窗口一个状态面板
func InstallWindow(r *di.Registry) {
	di.Bind[*StatusPanel](r).NonLazy()
}

// initialRefresh 启动时先刷新一次，失败只记录警告
func initialRefresh(ctx context.Context, rt *core.Runtime) {
	status, err := di.Resolve[*StatusService](rt.Registry)
	if err != nil {
		rt.Logger.Warn("Git status service unavailable", logging.Field{Key: "error", Value: err})
		return
	}
	if _, err := status.Refresh(ctx); err != nil {
		rt.Logger.Warn("Initial git refresh failed", logging.Field{Key: "error", Value: err})
	}
}
