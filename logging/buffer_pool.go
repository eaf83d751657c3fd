package logging

import (
	"bytes"
	"sync"
)

// maxPooledBuffer 超过该容量的 buffer 不再放回池中
const maxPooledBuffer = 64 << 10

// BufferPool 复用格式化时的字节缓冲
type BufferPool struct {
	pool sync.Pool
}

// NewBufferPool 创建缓冲池
func NewBufferPool() *BufferPool {
	return &BufferPool{
		pool: sync.Pool{New: func() any { return new(bytes.Buffer) }},
	}
}

func (p *BufferPool) Get() *bytes.Buffer {
	return p.pool.Get().(*bytes.Buffer)
}

func (p *BufferPool) Put(b *bytes.Buffer) {
	if b.Cap() > maxPooledBuffer {
		return
	}
	b.Reset()
	p.pool.Put(b)
}

// GlobalBufferPool 全局缓冲池
var GlobalBufferPool = NewBufferPool()
