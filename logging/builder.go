package logging

import "io"

// LoggingBuilder 日志构建器
type LoggingBuilder struct {
	providers    []LoggerProvider
	minimumLevel LogLevel
}

// NewLoggingBuilder 创建日志构建器，默认级别为 Info
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

// AddConsole 添加带颜色的控制台输出
func (b *LoggingBuilder) AddConsole() *LoggingBuilder {
	return b.AddProvider(NewConsoleProvider(true))
}

// AddWriter 以文本格式写入 w
func (b *LoggingBuilder) AddWriter(w io.Writer) *LoggingBuilder {
	return b.AddProvider(NewWriterProvider(w, NewTextFormatter()))
}

// AddJson 以 JSON 格式写入 w
func (b *LoggingBuilder) AddJson(w io.Writer) *LoggingBuilder {
	return b.AddProvider(NewWriterProvider(w, NewJsonFormatter()))
}

// Build 构建日志工厂
func (b *LoggingBuilder) Build() LoggerFactory {
	f := &loggerFactory{
		providers:    append([]LoggerProvider(nil), b.providers...),
		minimumLevel: b.minimumLevel,
	}
	for _, p := range f.providers {
		p.SetMinimumLevel(b.minimumLevel)
	}
	return f
}

// NewLogger 创建输出到控制台的默认 Logger
func NewLogger() Logger {
	return NewLoggingBuilder().AddConsole().Build().CreateLogger("default")
}
