// Package configure 收集各个客户端集成共用的注册逻辑。
//
// 每个子包（database、redis、mongodb、etcd）把客户端注册为以名称为索引的共享绑定：
// 客户端在第一次解析时创建，构造失败时回滚，容器关闭时按相反顺序释放。
package configure

import (
	"fmt"
	"sort"

	"github.com/gocrud/inject/config"
	"github.com/gocrud/inject/di"
	"go.uber.org/multierr"
)

// DefaultName 默认客户端的名称，它同时以无索引的键注册
const DefaultName = "default"

// Clients 按名称收集客户端配置，配置错误延迟到 Build 时统一返回
type Clients[O any] struct {
	kind     string
	defaults func(name string) *O
	validate func(*O) error

	names   []string
	configs map[string]*O
	errs    error
}

// NewClients 创建配置集合；defaults 返回名称对应的默认配置
func NewClients[O any](kind string, defaults func(name string) *O, validate func(*O) error) *Clients[O] {
	return &Clients[O]{
		kind:     kind,
		defaults: defaults,
		validate: validate,
		configs:  make(map[string]*O),
	}
}

// Add 添加一个客户端配置
func (b *Clients[O]) Add(name string, configure func(*O)) *Clients[O] {
	if _, exists := b.configs[name]; exists {
		b.errs = multierr.Append(b.errs, fmt.Errorf("%s client '%s' already configured", b.kind, name))
		return b
	}
	opts := b.defaults(name)
	if configure != nil {
		configure(opts)
	}
	if err := b.validate(opts); err != nil {
		b.errs = multierr.Append(b.errs, fmt.Errorf("invalid %s configuration for '%s': %w", b.kind, name, err))
		return b
	}
	b.names = append(b.names, name)
	b.configs[name] = opts
	return b
}

// AddFromConfig 从配置节读取客户端，配置节的每个子节是一个客户端，子节名即客户端名称。
// 子节的值覆盖默认配置。
func (b *Clients[O]) AddFromConfig(cfg config.Configuration, section string) *Clients[O] {
	all := cfg.GetSection(section).GetAll()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		var bindErr error
		b.Add(name, func(o *O) {
			bindErr = cfg.GetSection(section).Bind(name, o)
		})
		if bindErr != nil {
			b.errs = multierr.Append(b.errs, bindErr)
		}
	}
	return b
}

// Build 返回按添加顺序排列的配置
func (b *Clients[O]) Build() ([]O, error) {
	if b.errs != nil {
		return nil, fmt.Errorf("%s configuration errors: %w", b.kind, b.errs)
	}
	out := make([]O, 0, len(b.names))
	for _, name := range b.names {
		out = append(out, *b.configs[name])
	}
	return out, nil
}

// RegisterNamed 以 name 为索引注册共享的 T，build 在第一次解析时调用。
// name 为 DefaultName 时，无索引的 T 解析到同一个实例。
func RegisterNamed[T any](c *di.Container, name string, build func(*di.Injector) (T, error), dispose func(T) error) error {
	opts := []di.Option{di.WithName(name), di.Provide(build)}
	if dispose != nil {
		opts = append(opts, di.OnDispose(dispose))
	}
	if err := di.Register[T](c, opts...); err != nil {
		return err
	}
	if name != DefaultName {
		return nil
	}
	// 别名不持有实例，释放由带索引的绑定负责
	return di.Register[T](c,
		di.WithUnique(),
		di.Provide(func(i *di.Injector) (T, error) {
			return di.ResolveNamed[T](i, name)
		}),
		di.OnDispose(func(T) error { return nil }),
	)
}
