package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// AsyncWriter 在后台 goroutine 中格式化并写入日志，适合慢速输出目标。
// 它本身是一个 LoggerProvider；Close 会等待队列中的日志写完。
type AsyncWriter struct {
	writer       io.Writer
	formatter    Formatter
	entryCh      chan *LogEntry
	wg           sync.WaitGroup
	mu           sync.RWMutex
	closed       bool
	minimumLevel atomic.Int32
	errHandler   func(error)
}

// NewAsyncWriter 创建异步写入器，bufferSize 为队列长度
func NewAsyncWriter(writer io.Writer, formatter Formatter, bufferSize int) *AsyncWriter {
	w := &AsyncWriter{
		writer:    writer,
		formatter: formatter,
		entryCh:   make(chan *LogEntry, bufferSize),
	}
	w.minimumLevel.Store(int32(LogLevelInfo))

	w.wg.Add(1)
	go w.process()
	return w
}

// Write 把条目放入队列；队列满时阻塞，不丢日志。关闭后的写入被忽略
func (w *AsyncWriter) Write(entry *LogEntry) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return
	}
	w.entryCh <- entry
}

func (w *AsyncWriter) SetMinimumLevel(level LogLevel) { w.minimumLevel.Store(int32(level)) }
func (w *AsyncWriter) MinimumLevel() LogLevel         { return LogLevel(w.minimumLevel.Load()) }

// SetErrorHandler 设置格式化或写入失败时的回调，默认输出到标准错误
func (w *AsyncWriter) SetErrorHandler(handler func(error)) {
	w.errHandler = handler
}

// Close 停止接收并等待队列写完
func (w *AsyncWriter) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.entryCh)
	}
	w.mu.Unlock()
	w.wg.Wait()
	return nil
}

func (w *AsyncWriter) process() {
	defer w.wg.Done()
	for entry := range w.entryCh {
		data, err := w.formatter.Format(entry)
		if err != nil {
			w.fail(err)
			continue
		}
		if _, err := w.writer.Write(terminate(data)); err != nil {
			w.fail(err)
		}
	}
}

func (w *AsyncWriter) fail(err error) {
	if w.errHandler != nil {
		w.errHandler(err)
		return
	}
	fmt.Fprintf(os.Stderr, "logging: async writer: %v\n", err)
}
