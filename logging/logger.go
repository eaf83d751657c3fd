package logging

import (
	"os"
	"sync"
	"time"
)

// Field 日志字段
type Field struct {
	Key   string
	Value any
}

// Logger 日志接口
type Logger interface {
	Trace(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)
	Log(level LogLevel, msg string, fields ...Field)
	Enabled(level LogLevel) bool
	WithFields(fields ...Field) Logger
	WithCategory(category string) Logger
}

// LoggerFactory 按类别创建 Logger
type LoggerFactory interface {
	CreateLogger(category string) Logger
	SetMinimumLevel(level LogLevel)
}

// LoggerProvider 日志提供者，每个提供者对应一个输出目标
type LoggerProvider interface {
	Write(entry *LogEntry)
	SetMinimumLevel(level LogLevel)
	MinimumLevel() LogLevel
}

// loggerFactory 日志工厂实现
type loggerFactory struct {
	mu           sync.RWMutex
	providers    []LoggerProvider
	minimumLevel LogLevel
}

func (f *loggerFactory) CreateLogger(category string) Logger {
	return &logger{factory: f, category: category}
}

func (f *loggerFactory) SetMinimumLevel(level LogLevel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.minimumLevel = level
	for _, p := range f.providers {
		p.SetMinimumLevel(level)
	}
}

func (f *loggerFactory) snapshot() ([]LoggerProvider, LogLevel) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.providers, f.minimumLevel
}

// logger 把日志条目分发给工厂的全部提供者
type logger struct {
	factory  *loggerFactory
	category string
	fields   []Field
}

func (l *logger) Trace(msg string, fields ...Field) { l.Log(LogLevelTrace, msg, fields...) }
func (l *logger) Debug(msg string, fields ...Field) { l.Log(LogLevelDebug, msg, fields...) }
func (l *logger) Info(msg string, fields ...Field)  { l.Log(LogLevelInfo, msg, fields...) }
func (l *logger) Warn(msg string, fields ...Field)  { l.Log(LogLevelWarn, msg, fields...) }
func (l *logger) Error(msg string, fields ...Field) { l.Log(LogLevelError, msg, fields...) }

func (l *logger) Fatal(msg string, fields ...Field) {
	l.Log(LogLevelFatal, msg, fields...)
	os.Exit(1)
}

func (l *logger) Enabled(level LogLevel) bool {
	_, min := l.factory.snapshot()
	return level >= min && level < LogLevelNone
}

func (l *logger) Log(level LogLevel, msg string, fields ...Field) {
	providers, min := l.factory.snapshot()
	if level < min || level >= LogLevelNone {
		return
	}
	entry := &LogEntry{
		Time:     time.Now(),
		Level:    level,
		Category: l.category,
		Message:  msg,
		Fields:   mergeFields(l.fields, fields),
	}
	for _, p := range providers {
		if level >= p.MinimumLevel() {
			p.Write(entry)
		}
	}
}

func (l *logger) WithFields(fields ...Field) Logger {
	return &logger{factory: l.factory, category: l.category, fields: mergeFields(l.fields, fields)}
}

func (l *logger) WithCategory(category string) Logger {
	return &logger{factory: l.factory, category: category, fields: l.fields}
}

// mergeFields 返回新切片，避免 append 共享底层数组
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

// NewNopLogger 返回不输出任何内容的 Logger
func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) Trace(string, ...Field)           {}
func (nopLogger) Debug(string, ...Field)           {}
func (nopLogger) Info(string, ...Field)            {}
func (nopLogger) Warn(string, ...Field)            {}
func (nopLogger) Error(string, ...Field)           {}
func (nopLogger) Fatal(string, ...Field)           { os.Exit(1) }
func (nopLogger) Log(LogLevel, string, ...Field)   {}
func (nopLogger) Enabled(LogLevel) bool            { return false }
func (n nopLogger) WithFields(...Field) Logger     { return n }
func (n nopLogger) WithCategory(string) Logger     { return n }
