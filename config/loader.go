package config

import (
	"fmt"

	"github.com/gocrud/gitplugin/core"
	"github.com/gocrud/gitplugin/di"
)

// DefaultEnvPrefix 环境变量与 .env 的默认前缀
const DefaultEnvPrefix = "GITPLUGIN_"

// LoadOptions 配置加载选项
type LoadOptions struct {
	Optional  bool
	DotEnv    []string
	EnvPrefix string
	Etcd      *EtcdOptions
	Overrides map[string]any
}

// LoadOption 配置加载选项函数
type LoadOption func(*LoadOptions)

// Optional 配置文件不存在时不报错
func Optional() LoadOption {
	return func(o *LoadOptions) {
		o.Optional = true
	}
}

// WithDotEnv 追加 .env 文件，文件不存在时忽略
func WithDotEnv(paths ...string) LoadOption {
	return func(o *LoadOptions) {
		o.DotEnv = append(o.DotEnv, paths...)
	}
}

// WithEnvPrefix 设置环境变量前缀
func WithEnvPrefix(prefix string) LoadOption {
	return func(o *LoadOptions) {
		o.EnvPrefix = prefix
	}
}

// WithEtcd 追加 etcd 配置源，优先级高于文件与环境变量
func WithEtcd(opts EtcdOptions) LoadOption {
	return func(o *LoadOptions) {
		o.Etcd = &opts
	}
}

// WithOverrides 追加优先级最高的内存配置
func WithOverrides(data map[string]any) LoadOption {
	return func(o *LoadOptions) {
		o.Overrides = data
	}
}

// Build 按 YAML 文件、.env、环境变量、etcd、内存覆盖的顺序构建配置，
// 并把结果绑定到带默认值的 PluginOptions。
func Build(path string, opts ...LoadOption) (*ReloadableConfiguration, *PluginOptions, error) {
	options := &LoadOptions{EnvPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(options)
	}

	builder := NewConfigurationBuilder()
	if path != "" {
		builder.AddYamlFile(path, options.Optional)
	}
	for _, p := range options.DotEnv {
		builder.AddDotEnv(p, options.EnvPrefix, true)
	}
	builder.AddEnvironmentVariables(options.EnvPrefix)
	if options.Etcd != nil {
		builder.AddEtcd(*options.Etcd)
	}
	if options.Overrides != nil {
		builder.AddInMemory(options.Overrides)
	}

	cfg, err := builder.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}

	plugin := DefaultPluginOptions()
	if err := cfg.Bind("", plugin); err != nil {
		return nil, nil, fmt.Errorf("config: failed to bind plugin options: %w", err)
	}
	if err := plugin.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, plugin, nil
}

// Load 加载配置并注册到运行时
func Load(path string, opts ...LoadOption) core.Option {
	return func(rt *core.Runtime) error {
		cfg, plugin, err := Build(path, opts...)
		if err != nil {
			return err
		}
		return Provide(cfg, plugin)(rt)
	}
}

// Provide 把已构建的配置绑定到全局注册表，并登记为运行时特性
func Provide(cfg Configuration, plugin *PluginOptions) core.Option {
	return func(rt *core.Runtime) error {
		di.BindInstance[Configuration](rt.Registry, cfg)
		di.BindInstance(rt.Registry, plugin)
		rt.Features.Set(plugin)
		return core.UseEnvironment(plugin.Environment)(rt)
	}
}
