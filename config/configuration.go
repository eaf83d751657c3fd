package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
)

// Configuration 分层配置，键以 ":" 或 "." 分隔
type Configuration interface {
	// Get 获取配置值，不存在时返回空字符串
	Get(key string) string
	// GetWithDefault 获取配置值，如果不存在则返回默认值
	GetWithDefault(key, defaultValue string) string
	// GetInt 获取整数配置值
	GetInt(key string) (int, error)
	// GetBool 获取布尔配置值
	GetBool(key string) (bool, error)
	// GetSection 获取配置节
	GetSection(key string) Configuration
	// Bind 绑定配置到结构体，key 为空时绑定全部配置
	Bind(key string, target any) error
	// GetAll 获取所有配置的副本
	GetAll() map[string]any
}

// Reloadable 由可以重新加载配置源的 Configuration 实现
type Reloadable interface {
	Reload() error
	OnReload(fn func())
}

// ConfigurationBuilder 配置构建器
type ConfigurationBuilder struct {
	sources []ConfigurationSource
}

// NewConfigurationBuilder 创建配置构建器
func NewConfigurationBuilder() *ConfigurationBuilder {
	return &ConfigurationBuilder{}
}

// Add 添加配置源，后添加的源覆盖先添加的
func (b *ConfigurationBuilder) Add(source ConfigurationSource) *ConfigurationBuilder {
	b.sources = append(b.sources, source)
	return b
}

// AddJsonFile 添加 JSON 文件配置源
func (b *ConfigurationBuilder) AddJsonFile(path string, optional ...bool) *ConfigurationBuilder {
	return b.Add(&JsonFileSource{Path: path, Optional: len(optional) > 0 && optional[0]})
}

// AddYamlFile 添加 YAML 文件配置源
func (b *ConfigurationBuilder) AddYamlFile(path string, optional ...bool) *ConfigurationBuilder {
	return b.Add(&YamlFileSource{Path: path, Optional: len(optional) > 0 && optional[0]})
}

// AddEnvironmentVariables 添加环境变量配置源
func (b *ConfigurationBuilder) AddEnvironmentVariables(prefix string) *ConfigurationBuilder {
	return b.Add(&EnvironmentVariableSource{Prefix: prefix})
}

// AddInMemory 添加内存配置源
func (b *ConfigurationBuilder) AddInMemory(data map[string]any) *ConfigurationBuilder {
	return b.Add(&InMemorySource{Data: data})
}

// AddEtcd 添加 etcd 配置源
func (b *ConfigurationBuilder) AddEtcd(opts EtcdOptions) *ConfigurationBuilder {
	return b.Add(&EtcdSource{Options: opts.withDefaults()})
}

// Build 按顺序加载全部配置源
func (b *ConfigurationBuilder) Build() (Configuration, error) {
	return b.BuildReloadable()
}

// BuildReloadable 与 Build 相同，返回的配置可以调用 Reload 重新加载
func (b *ConfigurationBuilder) BuildReloadable() (*ReloadableConfiguration, error) {
	c := &ReloadableConfiguration{
		sources: append([]ConfigurationSource(nil), b.sources...),
	}
	c.store = NewValueStore()
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

func loadSources(sources []ConfigurationSource) (map[string]any, error) {
	data := make(map[string]any)
	for _, source := range sources {
		d, err := source.Load()
		if err != nil {
			return nil, fmt.Errorf("config: load source %s: %w", source.Name(), err)
		}
		mergeMaps(data, d)
	}
	return data, nil
}

// ReloadableConfiguration 的读取是无锁的，Reload 原子替换整份数据
type ReloadableConfiguration struct {
	view
	sources []ConfigurationSource

	mu        sync.Mutex
	callbacks []func()
}

// Reload 重新加载全部配置源，成功后通知 OnReload 回调
func (c *ReloadableConfiguration) Reload() error {
	data, err := loadSources(c.sources)
	if err != nil {
		return err
	}
	c.store.Store(data)

	c.mu.Lock()
	callbacks := append([]func(){}, c.callbacks...)
	c.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
	return nil
}

// OnReload 注册重新加载后的回调
func (c *ReloadableConfiguration) OnReload(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, fn)
}

// view 在 ValueStore 的快照上实现 Configuration
type view struct {
	store *ValueStore
	// prefix 为配置节在根上的路径，根视图为空
	prefix string
}

func (v view) root() any {
	data := v.store.Load()
	if v.prefix == "" {
		return data
	}
	return getByPath(data, v.prefix)
}

func (v view) lookup(key string) any {
	if key == "" {
		return v.root()
	}
	m, ok := v.root().(map[string]any)
	if !ok {
		return nil
	}
	return getByPath(m, key)
}

func (v view) Get(key string) string {
	switch val := v.lookup(key).(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func (v view) GetWithDefault(key, defaultValue string) string {
	if value := v.Get(key); value != "" {
		return value
	}
	return defaultValue
}

func (v view) GetInt(key string) (int, error) {
	switch val := v.lookup(key).(type) {
	case nil:
		return 0, fmt.Errorf("config: key %s not found", key)
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case uint64:
		return int(val), nil
	case float64:
		return int(val), nil
	case string:
		return strconv.Atoi(val)
	default:
		return 0, fmt.Errorf("config: cannot convert %v to int", val)
	}
}

func (v view) GetBool(key string) (bool, error) {
	switch val := v.lookup(key).(type) {
	case nil:
		return false, fmt.Errorf("config: key %s not found", key)
	case bool:
		return val, nil
	case string:
		return strconv.ParseBool(val)
	default:
		return false, fmt.Errorf("config: cannot convert %v to bool", val)
	}
}

// GetSection 返回的配置节跟随 Reload 更新
func (v view) GetSection(key string) Configuration {
	if key == "" {
		return v
	}
	if v.prefix != "" {
		key = v.prefix + ":" + key
	}
	return view{store: v.store, prefix: key}
}

func (v view) Bind(key string, target any) error {
	data := v.lookup(key)
	if data == nil {
		return fmt.Errorf("config: key %s not found", key)
	}
	// 通过 JSON 往返绑定，字段名匹配 json 标签
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("config: marshal %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("config: bind %s: %w", key, err)
	}
	return nil
}

func (v view) GetAll() map[string]any {
	result := make(map[string]any)
	if m, ok := v.root().(map[string]any); ok {
		mergeMaps(result, m)
	}
	return result
}

// getByPath 通过路径获取值（支持 "a:b:c" 或 "a.b.c"）
func getByPath(data map[string]any, path string) any {
	current := any(data)
	for _, part := range globalPathCache.GetPathSegments(path) {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[part]
	}
	return current
}

// mergeMaps 把 src 深度合并进 dst，src 中的 map 会被复制
func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		if dstMap, ok := dst[k].(map[string]any); ok && srcIsMap {
			mergeMaps(dstMap, srcMap)
			continue
		}
		if srcIsMap {
			cp := make(map[string]any, len(srcMap))
			mergeMaps(cp, srcMap)
			dst[k] = cp
			continue
		}
		dst[k] = v
	}
}
