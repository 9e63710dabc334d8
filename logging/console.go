package logging

import (
	"io"
	"os"
	"sync"
	"time"
)

// ConsoleLoggerOptions 控制台日志选项
type ConsoleLoggerOptions struct {
	// Formatter 为 nil 时使用 TextFormatter
	Formatter Formatter
	Output    io.Writer
}

// ConsoleLoggerProvider 控制台日志提供者
type ConsoleLoggerProvider struct {
	options      ConsoleLoggerOptions
	minimumLevel LogLevel
	writeMu      sync.Mutex
	mu           sync.RWMutex
}

// NewConsoleLoggerProvider 创建控制台日志提供者
func NewConsoleLoggerProvider(options ConsoleLoggerOptions) *ConsoleLoggerProvider {
	if options.Output == nil {
		options.Output = os.Stdout
	}
	if options.Formatter == nil {
		options.Formatter = NewTextFormatter()
	}
	return &ConsoleLoggerProvider{
		options:      options,
		minimumLevel: LogLevelInfo,
	}
}

func (p *ConsoleLoggerProvider) CreateLogger(category string) Logger {
	return &consoleLogger{provider: p, category: category}
}

func (p *ConsoleLoggerProvider) SetMinimumLevel(level LogLevel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.minimumLevel = level
}

func (p *ConsoleLoggerProvider) enabled(level LogLevel) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return level >= p.minimumLevel
}

func (p *ConsoleLoggerProvider) write(entry *LogEntry) {
	data, err := p.options.Formatter.Format(entry)
	if err != nil {
		return
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	_, _ = p.options.Output.Write(data)
}

// consoleLogger 控制台日志实现
type consoleLogger struct {
	provider *ConsoleLoggerProvider
	category string
	fields   []Field
}

func (l *consoleLogger) Trace(msg string, fields ...Field) {
	l.Log(LogLevelTrace, msg, fields...)
}

func (l *consoleLogger) Debug(msg string, fields ...Field) {
	l.Log(LogLevelDebug, msg, fields...)
}

func (l *consoleLogger) Info(msg string, fields ...Field) {
	l.Log(LogLevelInfo, msg, fields...)
}

func (l *consoleLogger) Warn(msg string, fields ...Field) {
	l.Log(LogLevelWarn, msg, fields...)
}

func (l *consoleLogger) Error(msg string, fields ...Field) {
	l.Log(LogLevelError, msg, fields...)
}

func (l *consoleLogger) Log(level LogLevel, msg string, fields ...Field) {
	if !l.provider.enabled(level) {
		return
	}
	l.provider.write(&LogEntry{
		Time:     time.Now(),
		Level:    level,
		Category: l.category,
		Message:  msg,
		Fields:   mergeFields(l.fields, fields),
	})
}

func (l *consoleLogger) WithFields(fields ...Field) Logger {
	return &consoleLogger{
		provider: l.provider,
		category: l.category,
		fields:   mergeFields(l.fields, fields),
	}
}

func (l *consoleLogger) WithCategory(category string) Logger {
	return &consoleLogger{
		provider: l.provider,
		category: category,
		fields:   l.fields,
	}
}

// colorize 为日志级别添加颜色
func colorize(level LogLevel, text string) string {
	const (
		reset  = "\033[0m"
		gray   = "\033[90m"
		cyan   = "\033[36m"
		green  = "\033[32m"
		yellow = "\033[33m"
		red    = "\033[31m"
	)

	switch level {
	case LogLevelTrace:
		return gray + text + reset
	case LogLevelDebug:
		return cyan + text + reset
	case LogLevelInfo:
		return green + text + reset
	case LogLevelWarn:
		return yellow + text + reset
	case LogLevelError:
		return red + text + reset
	default:
		return text
	}
}
