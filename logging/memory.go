package logging

import (
	"sync"
	"time"
)

// MemoryLoggerProvider 把日志保存在固定容量的环形缓冲区里，供诊断接口与测试读取
type MemoryLoggerProvider struct {
	capacity     int
	entries      []LogEntry
	next         int
	full         bool
	minimumLevel LogLevel
	mu           sync.RWMutex
}

// NewMemoryLoggerProvider 创建内存日志提供者，capacity <= 0 时取 256
func NewMemoryLoggerProvider(capacity int) *MemoryLoggerProvider {
	if capacity <= 0 {
		capacity = 256
	}
	return &MemoryLoggerProvider{
		capacity:     capacity,
		entries:      make([]LogEntry, capacity),
		minimumLevel: LogLevelTrace,
	}
}

func (p *MemoryLoggerProvider) CreateLogger(category string) Logger {
	return &memoryLogger{provider: p, category: category}
}

func (p *MemoryLoggerProvider) SetMinimumLevel(level LogLevel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.minimumLevel = level
}

// Entries 按时间顺序返回缓冲区中的日志
func (p *MemoryLoggerProvider) Entries() []LogEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.full {
		return append([]LogEntry(nil), p.entries[:p.next]...)
	}
	out := make([]LogEntry, 0, p.capacity)
	out = append(out, p.entries[p.next:]...)
	return append(out, p.entries[:p.next]...)
}

// Filter 返回级别不低于 level 的日志
func (p *MemoryLoggerProvider) Filter(level LogLevel) []LogEntry {
	var out []LogEntry
	for _, e := range p.Entries() {
		if e.Level >= level {
			out = append(out, e)
		}
	}
	return out
}

// Reset 清空缓冲区
func (p *MemoryLoggerProvider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = make([]LogEntry, p.capacity)
	p.next = 0
	p.full = false
}

func (p *MemoryLoggerProvider) append(entry LogEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if entry.Level < p.minimumLevel {
		return
	}
	p.entries[p.next] = entry
	p.next = (p.next + 1) % p.capacity
	if p.next == 0 {
		p.full = true
	}
}

// memoryLogger 内存日志实现
type memoryLogger struct {
	provider *MemoryLoggerProvider
	category string
	fields   []Field
}

func (l *memoryLogger) Trace(msg string, fields ...Field) {
	l.Log(LogLevelTrace, msg, fields...)
}

func (l *memoryLogger) Debug(msg string, fields ...Field) {
	l.Log(LogLevelDebug, msg, fields...)
}

func (l *memoryLogger) Info(msg string, fields ...Field) {
	l.Log(LogLevelInfo, msg, fields...)
}

func (l *memoryLogger) Warn(msg string, fields ...Field) {
	l.Log(LogLevelWarn, msg, fields...)
}

func (l *memoryLogger) Error(msg string, fields ...Field) {
	l.Log(LogLevelError, msg, fields...)
}

func (l *memoryLogger) Log(level LogLevel, msg string, fields ...Field) {
	l.provider.append(LogEntry{
		Time:     time.Now(),
		Level:    level,
		Category: l.category,
		Message:  msg,
		Fields:   mergeFields(l.fields, fields),
	})
}

func (l *memoryLogger) WithFields(fields ...Field) Logger {
	return &memoryLogger{provider: l.provider, category: l.category, fields: mergeFields(l.fields, fields)}
}

func (l *memoryLogger) WithCategory(category string) Logger {
	return &memoryLogger{provider: l.provider, category: category, fields: l.fields}
}
