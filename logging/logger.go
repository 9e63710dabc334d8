package logging

import (
	"strings"
	"sync"
)

// LogLevel 日志级别
type LogLevel int

const (
	LogLevelTrace LogLevel = iota
	LogLevelDebug
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	// LogLevelNone 关闭日志
	LogLevelNone
)

// String 返回日志级别的字符串表示
func (l LogLevel) String() string {
	switch l {
	case LogLevelTrace:
		return "TRACE"
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelNone:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}

// MarshalText 序列化为级别名称
func (l LogLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// ParseLevel 解析日志级别名称，不区分大小写，未知名称返回 LogLevelInfo
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LogLevelTrace
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	case "none", "off":
		return LogLevelNone
	default:
		return LogLevelInfo
	}
}

// Field 日志字段
type Field struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Logger 日志接口。
// 插件运行在宿主进程内，不提供 Fatal。
type Logger interface {
	Trace(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Log(level LogLevel, msg string, fields ...Field)
	WithFields(fields ...Field) Logger
	WithCategory(category string) Logger
}

// LoggerFactory 日志工厂接口
type LoggerFactory interface {
	CreateLogger(category string) Logger
	AddProvider(provider LoggerProvider)
	SetMinimumLevel(level LogLevel)
}

// LoggerProvider 日志提供者接口
type LoggerProvider interface {
	CreateLogger(category string) Logger
	SetMinimumLevel(level LogLevel)
}

// loggerFactory 日志工厂实现
type loggerFactory struct {
	providers    []LoggerProvider
	minimumLevel LogLevel
	mu           sync.RWMutex
}

func (f *loggerFactory) CreateLogger(category string) Logger {
	f.mu.RLock()
	defer f.mu.RUnlock()

	loggers := make([]Logger, 0, len(f.providers))
	for _, provider := range f.providers {
		loggers = append(loggers, provider.CreateLogger(category))
	}

	return &compositeLogger{
		loggers:      loggers,
		minimumLevel: f.minimumLevel,
		category:     category,
	}
}

func (f *loggerFactory) AddProvider(provider LoggerProvider) {
	f.mu.Lock()
	defer f.mu.Unlock()
	provider.SetMinimumLevel(f.minimumLevel)
	f.providers = append(f.providers, provider)
}

func (f *loggerFactory) SetMinimumLevel(level LogLevel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.minimumLevel = level
	for _, provider := range f.providers {
		provider.SetMinimumLevel(level)
	}
}

// compositeLogger 组合日志记录器（将日志发送到多个提供者）
type compositeLogger struct {
	loggers      []Logger
	minimumLevel LogLevel
	category     string
	fields       []Field
}

// NewCompositeLogger 创建组合日志记录器
func NewCompositeLogger(loggers []Logger, minimumLevel LogLevel, category string) Logger {
	return &compositeLogger{
		loggers:      loggers,
		minimumLevel: minimumLevel,
		category:     category,
	}
}

func (l *compositeLogger) Trace(msg string, fields ...Field) {
	l.Log(LogLevelTrace, msg, fields...)
}

func (l *compositeLogger) Debug(msg string, fields ...Field) {
	l.Log(LogLevelDebug, msg, fields...)
}

func (l *compositeLogger) Info(msg string, fields ...Field) {
	l.Log(LogLevelInfo, msg, fields...)
}

func (l *compositeLogger) Warn(msg string, fields ...Field) {
	l.Log(LogLevelWarn, msg, fields...)
}

func (l *compositeLogger) Error(msg string, fields ...Field) {
	l.Log(LogLevelError, msg, fields...)
}

func (l *compositeLogger) Log(level LogLevel, msg string, fields ...Field) {
	if level < l.minimumLevel {
		return
	}
	all := mergeFields(l.fields, fields)
	for _, logger := range l.loggers {
		logger.Log(level, msg, all...)
	}
}

func (l *compositeLogger) WithFields(fields ...Field) Logger {
	return &compositeLogger{
		loggers:      l.loggers,
		minimumLevel: l.minimumLevel,
		category:     l.category,
		fields:       mergeFields(l.fields, fields),
	}
}

// WithCategory 子记录器同样切换类别
func (l *compositeLogger) WithCategory(category string) Logger {
	loggers := make([]Logger, 0, len(l.loggers))
	for _, logger := range l.loggers {
		loggers = append(loggers, logger.WithCategory(category))
	}
	return &compositeLogger{
		loggers:      loggers,
		minimumLevel: l.minimumLevel,
		category:     category,
		fields:       l.fields,
	}
}

// mergeFields 返回新切片，避免多个记录器共享底层数组
func mergeFields(base, extra []Field) []Field {
	if len(extra) == 0 {
		return base
	}
	out := make([]Field, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}

// nopLogger 丢弃全部日志
type nopLogger struct{}

func (nopLogger) Trace(string, ...Field) {}
func (nopLogger) Debug(string, ...Field) {}
func (nopLogger) Info(string, ...Field) {}
func (nopLogger) Warn(string, ...Field) {}
func (nopLogger) Error(string, ...Field) {}
func (nopLogger) Log(LogLevel, string, ...Field) {}
func (n nopLogger) WithFields(...Field) Logger { return n }
func (n nopLogger) WithCategory(string) Logger { return n }
