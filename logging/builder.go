package logging

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// LoggingBuilder 组装日志提供者，Build 之后不再修改
type LoggingBuilder struct {
	providers    []LoggerProvider
	minimumLevel LogLevel
}

// NewLoggingBuilder 创建日志构建器，默认级别 Info
func NewLoggingBuilder() *LoggingBuilder {
	return &LoggingBuilder{minimumLevel: LogLevelInfo}
}

// SetMinimumLevel 设置最小日志级别
func (b *LoggingBuilder) SetMinimumLevel(level LogLevel) *LoggingBuilder {
	b.minimumLevel = level
	return b
}

// AddProvider 添加日志提供者
func (b *LoggingBuilder) AddProvider(provider LoggerProvider) *LoggingBuilder {
	b.providers = append(b.providers, provider)
	return b
}

// AddConsole 输出到标准错误。format 为 "json" 时输出 JSON 行，
// 否则输出文本，仅在终端上着色
func (b *LoggingBuilder) AddConsole(format ...string) *LoggingBuilder {
	f := ""
	if len(format) > 0 {
		f = format[0]
	}
	return b.AddWriter(os.Stderr, f)
}

// AddWriter 输出到任意 io.Writer
func (b *LoggingBuilder) AddWriter(w io.Writer, format string) *LoggingBuilder {
	opts := ConsoleLoggerOptions{Output: w}
	if format == "json" {
		opts.Formatter = NewJsonFormatter()
	} else {
		tf := NewTextFormatter()
		tf.ColorOutput = isTerminal(w)
		opts.Formatter = tf
	}
	return b.AddProvider(NewConsoleLoggerProvider(opts))
}

// AddMemory 添加内存日志
func (b *LoggingBuilder) AddMemory(provider *MemoryLoggerProvider) *LoggingBuilder {
	return b.AddProvider(provider)
}

// Build 构建日志工厂
func (b *LoggingBuilder) Build() LoggerFactory {
	factory := &loggerFactory{minimumLevel: b.minimumLevel}
	for _, provider := range b.providers {
		factory.AddProvider(provider)
	}
	return factory
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
