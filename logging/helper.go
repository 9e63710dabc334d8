package logging

// NewLogger 创建一个默认的控制台 Logger（便于测试使用）
func NewLogger() Logger {
	builder := NewLoggingBuilder()
	builder.AddConsole()
	factory := builder.Build()
	return factory.CreateLogger("default")
}

// NewNopLogger 创建丢弃全部输出的 Logger
func NewNopLogger() Logger {
	return nopLogger{}
}

// NewMemoryLogger 创建写入内存缓冲区的 Logger，返回 Logger 与读取用的提供者
func NewMemoryLogger(category string) (Logger, *MemoryLoggerProvider) {
	provider := NewMemoryLoggerProvider(0)
	factory := NewLoggingBuilder().
		SetMinimumLevel(LogLevelTrace).
		AddMemory(provider).
		Build()
	return factory.CreateLogger(category), provider
}
