package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// WriterProvider 使用 Formatter 把日志写入 io.Writer
type WriterProvider struct {
	mu           sync.Mutex
	writer       io.Writer
	formatter    Formatter
	minimumLevel atomic.Int32
}

// NewWriterProvider 创建写入 w 的提供者
func NewWriterProvider(w io.Writer, formatter Formatter) *WriterProvider {
	p := &WriterProvider{writer: w, formatter: formatter}
	p.minimumLevel.Store(int32(LogLevelInfo))
	return p
}

// NewConsoleProvider 输出到标准输出的文本提供者
func NewConsoleProvider(color bool) *WriterProvider {
	f := NewTextFormatter()
	f.ColorOutput = color
	return NewWriterProvider(os.Stdout, f)
}

func (p *WriterProvider) Write(entry *LogEntry) {
	data, err := p.formatter.Format(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: format error: %v\n", err)
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.writer.Write(terminate(data)); err != nil {
		fmt.Fprintf(os.Stderr, "logging: write error: %v\n", err)
	}
}

func (p *WriterProvider) SetMinimumLevel(level LogLevel) { p.minimumLevel.Store(int32(level)) }
func (p *WriterProvider) MinimumLevel() LogLevel         { return LogLevel(p.minimumLevel.Load()) }

// terminate 确保每条日志以换行结尾
func terminate(data []byte) []byte {
	if len(data) > 0 && data[len(data)-1] != '\n' {
		return append(data, '\n')
	}
	return data
}
