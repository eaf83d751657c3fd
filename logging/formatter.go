package logging

import "time"

// Formatter 日志格式化接口
type Formatter interface {
	Format(entry *LogEntry) ([]byte, error)
}

// LogEntry 日志条目
type LogEntry struct {
	Time     time.Time
	Level    LogLevel
	Category string
	Message  string
	Fields   []Field
}

// colorize 为日志级别添加终端颜色
func colorize(level LogLevel, text string) string {
	const reset = "\033[0m"
	var color string
	switch level {
	case LogLevelTrace:
		color = "\033[90m"
	case LogLevelDebug:
		color = "\033[36m"
	case LogLevelInfo:
		color = "\033[32m"
	case LogLevelWarn:
		color = "\033[33m"
	case LogLevelError:
		color = "\033[31m"
	case LogLevelFatal:
		color = "\033[35m"
	default:
		return text
	}
	return color + text + reset
}
