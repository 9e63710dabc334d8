package config

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// PluginOptions 插件的类型化配置
type PluginOptions struct {
	Environment string            `json:"environment" yaml:"environment"`
	Log         LogOptions        `json:"log" yaml:"log"`
	Repository  RepositoryOptions `json:"repository" yaml:"repository"`
	Refresh     RefreshOptions    `json:"refresh" yaml:"refresh"`
	Diagnostics DiagnosticOptions `json:"diagnostics" yaml:"diagnostics"`
	Settings    SettingsOptions   `json:"settings" yaml:"settings"`
}

// LogOptions 日志配置
type LogOptions struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // text | json
}

// RepositoryOptions 仓库配置
type RepositoryOptions struct {
	Path string `json:"path" yaml:"path"`
}

// RefreshOptions 状态刷新任务配置
type RefreshOptions struct {
	// Schedule 带秒的 cron 表达式
	Schedule string `json:"schedule" yaml:"schedule"`
}

// DiagnosticOptions 诊断接口配置
type DiagnosticOptions struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Address string `json:"address" yaml:"address"`
}

// SettingsOptions 设置存储配置，DSN 为空时使用内存存储
type SettingsOptions struct {
	DSN string `json:"dsn" yaml:"dsn"`
}

// DefaultPluginOptions 返回默认配置
func DefaultPluginOptions() *PluginOptions {
	return &PluginOptions{
		Environment: "development",
		Log:         LogOptions{Level: "info", Format: "text"},
		Repository:  RepositoryOptions{Path: "."},
		Refresh:     RefreshOptions{Schedule: "*/30 * * * * *"},
		Diagnostics: DiagnosticOptions{Enabled: false, Address: "127.0.0.1:7070"},
	}
}

var (
	validLevels  = []string{"trace", "debug", "info", "warn", "warning", "error", "none", "off"}
	validFormats = []string{"text", "json"}
)

// Validate 校验配置，返回全部问题
func (o *PluginOptions) Validate() error {
	var err error
	if !contains(validLevels, o.Log.Level) {
		err = multierr.Append(err, fmt.Errorf("log.level: unknown level %q", o.Log.Level))
	}
	if !contains(validFormats, o.Log.Format) {
		err = multierr.Append(err, fmt.Errorf("log.format: must be text or json, got %q", o.Log.Format))
	}
	if strings.TrimSpace(o.Repository.Path) == "" {
		err = multierr.Append(err, errors.New("repository.path: required"))
	}
	if o.Diagnostics.Enabled && o.Diagnostics.Address == "" {
		err = multierr.Append(err, errors.New("diagnostics.address: required when diagnostics are enabled"))
	}
	if err != nil {
		return fmt.Errorf("config: invalid plugin options: %w", err)
	}
	return nil
}

func contains(values []string, v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
