package config

import (
	"encoding/json"
	"sync"
)

// Option 静态配置：容器中只绑定一次，之后不再变化
type Option[T any] interface {
	Value() T
}

// OptionSnapshot 快照配置：每次解析得到当时配置的独立副本
type OptionSnapshot[T any] interface {
	Value() T
}

// OptionMonitor 监听配置：Value 总是返回最新加载的配置
type OptionMonitor[T any] interface {
	Value() T
	OnChange(fn func(T))
}

// OptionsCache 保存配置节的当前值，并在 Reload 后更新
type OptionsCache[T any] struct {
	config  Configuration
	section string

	mu        sync.RWMutex
	current   T
	listeners []func(T)
}

// NewOptionsCache 创建配置缓存；配置节不存在时为 T 的零值
func NewOptionsCache[T any](config Configuration, section string) *OptionsCache[T] {
	cache := &OptionsCache[T]{config: config, section: section}
	_ = cache.reload()

	if rc, ok := config.(Reloadable); ok {
		rc.OnReload(func() {
			_ = cache.reload()
		})
	}
	return cache
}

func (c *OptionsCache[T]) reload() error {
	var next T
	if err := c.config.Bind(c.section, &next); err != nil {
		return err
	}
	c.mu.Lock()
	c.current = next
	listeners := append([]func(T){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
	return nil
}

// Get 返回当前配置值
func (c *OptionsCache[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Snapshot 返回当前配置的深拷贝
func (c *OptionsCache[T]) Snapshot() T {
	current := c.Get()
	data, err := json.Marshal(current)
	if err != nil {
		return current
	}
	var snapshot T
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return current
	}
	return snapshot
}

func (c *OptionsCache[T]) onChange(fn func(T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

type option[T any] struct {
	value T
}

func (o *option[T]) Value() T { return o.value }

// NewOption 创建静态配置
func NewOption[T any](value T) Option[T] {
	return &option[T]{value: value}
}

type optionSnapshot[T any] struct {
	snapshot T
}

func (o *optionSnapshot[T]) Value() T { return o.snapshot }

// NewOptionSnapshot 创建快照配置
func NewOptionSnapshot[T any](snapshot T) OptionSnapshot[T] {
	return &optionSnapshot[T]{snapshot: snapshot}
}

type optionMonitor[T any] struct {
	cache *OptionsCache[T]
}

func (o *optionMonitor[T]) Value() T            { return o.cache.Get() }
func (o *optionMonitor[T]) OnChange(fn func(T)) { o.cache.onChange(fn) }

// NewOptionMonitor 创建监听配置
func NewOptionMonitor[T any](cache *OptionsCache[T]) OptionMonitor[T] {
	return &optionMonitor[T]{cache: cache}
}
