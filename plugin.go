// Package gitplugin 组装 Git 插件：配置、日志、设置存储、Git 模块与诊断接口。
package gitplugin

import (
	"github.com/gocrud/gitplugin/config"
	"github.com/gocrud/gitplugin/core"
	"github.com/gocrud/gitplugin/git"
	"github.com/gocrud/gitplugin/logging"
	"github.com/gocrud/gitplugin/settings"
	"github.com/gocrud/gitplugin/web"
)

// LogCapacity 诊断接口保留的最近日志条数
const LogCapacity = 512

// Configure 按插件配置组装全部模块
func Configure(cfg config.Configuration, opts *config.PluginOptions) []core.Option {
	logs := logging.NewMemoryLoggerProvider(LogCapacity)
	logger := logging.NewLoggingBuilder().
		SetMinimumLevel(logging.ParseLevel(opts.Log.Level)).
		AddConsole(opts.Log.Format).
		AddMemory(logs).
		Build().
		CreateLogger("gitplugin")

	options := []core.Option{
		core.UseLogger(logger),
		core.Instance(logs),
		config.Provide(cfg, opts),
		settings.Module(opts.Settings.DSN),
		git.Module(opts.Repository.Path, opts.Refresh.Schedule),
	}
	if opts.Diagnostics.Enabled {
		options = append(options, web.New(web.WithAddress(opts.Diagnostics.Address)))
	}
	return options
}

// Load 读取配置文件并返回组装好的选项
func Load(path string, opts ...config.LoadOption) ([]core.Option, error) {
	cfg, plugin, err := config.Build(path, opts...)
	if err != nil {
		return nil, err
	}
	return Configure(cfg, plugin), nil
}
