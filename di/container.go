package di

import (
	"reflect"
	"slices"

	"github.com/gocrud/inject/logging"
	"go.uber.org/multierr"
)

// Resolver 是可以解析依赖的对象：*Container 开启一次新的解析调用，
// *Injector 在工厂内部复用当前调用。
type Resolver interface {
	resolving(fn func(*resolvingContext) (reflect.Value, error)) (reflect.Value, error)
	nested() bool
}

// Container 保存绑定与共享实例。
// Container 不是并发安全的：注册、解析与关闭应在同一个 goroutine 中进行，
// 或由调用方自行加锁。
type Container struct {
	parent   *Container
	registry *registry
	// live 按构造完成的顺序记录持有共享实例的绑定，Close 时逆序释放
	live []*binding

	logger   logging.Logger
	capacity int
	backend  IndexBackend
	closed   bool
}

// ContainerOption 配置容器
type ContainerOption func(*Container)

// WithLogger 设置容器日志
func WithLogger(l logging.Logger) ContainerOption {
	return func(c *Container) {
		if l != nil {
			c.logger = l.WithCategory("di")
		}
	}
}

// WithContextCapacity 设置单次解析调用中各类记录的上限
func WithContextCapacity(n int) ContainerOption {
	return func(c *Container) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithDefaultIndexBackend 设置未显式指定 WithIndexBackend 时使用的索引实现
func WithDefaultIndexBackend(b IndexBackend) ContainerOption {
	return func(c *Container) {
		if b != nil {
			c.backend = b
		}
	}
}

// New 创建一个空容器
func New(opts ...ContainerOption) *Container {
	c := &Container{
		registry: newRegistry(),
		logger:   logging.NewNopLogger(),
		capacity: DefaultContextCapacity,
		backend:  HashIndex(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Child 创建子容器。子容器可以覆盖父容器的绑定，找不到的键会继续在父容器中查找；
// 父容器的共享实例由父容器持有。
func (c *Container) Child(opts ...ContainerOption) *Container {
	child := &Container{
		parent:   c,
		registry: newRegistry(),
		logger:   c.logger,
		capacity: c.capacity,
		backend:  c.backend,
	}
	for _, opt := range opts {
		opt(child)
	}
	return child
}

// Parent 返回父容器，根容器返回 nil
func (c *Container) Parent() *Container {
	return c.parent
}

// Logger 返回容器日志，分类为 "di"
func (c *Container) Logger() logging.Logger {
	return c.logger
}

func (c *Container) register(key Key, opts []Option) error {
	if c.closed {
		return newError(ErrClosed, key, nil)
	}
	reg := &registration{scope: ScopeShared}
	for _, opt := range opts {
		opt(reg)
	}
	b, err := newBinding(key, reg)
	if err != nil {
		return err
	}
	if err := c.precheck(b); err != nil {
		return err
	}
	backend := reg.backend
	if backend == nil {
		backend = c.backend
	}
	if err := c.registry.add(b, backend); err != nil {
		return err
	}
	b.owner = c

	fields := []logging.Field{
		{Key: "key", Value: key.String()},
		{Key: "scope", Value: b.scope.String()},
	}
	if b.hasIndex {
		fields = append(fields, logging.Field{Key: "index", Value: b.index})
	}
	c.logger.Debug("binding registered", fields...)
	return nil
}

// lookup 沿容器链查找绑定
func (c *Container) lookup(key Key, index any, hasIndex bool) (*binding, error) {
	for cur := c; cur != nil; cur = cur.parent {
		b, found, err := cur.registry.lookup(key, index, hasIndex)
		if err != nil {
			return nil, err
		}
		if found {
			return b, nil
		}
	}
	if hasIndex {
		return nil, newIndexError(ErrNotFound, key, index)
	}
	return nil, newError(ErrNotFound, key, nil)
}

// lookupAll 返回键在容器链上的全部绑定，父容器的在前
func (c *Container) lookupAll(key Key) []*binding {
	if c.parent == nil {
		return c.registry.all(key)
	}
	return append(c.parent.lookupAll(key), c.registry.all(key)...)
}

// precheck 对已注册的依赖提前校验转换，其余依赖在解析时校验
func (c *Container) precheck(b *binding) error {
	for _, dep := range b.Dependencies() {
		key, shape := c.request(dep.Type)
		if !c.has(key) {
			continue
		}
		target, err := c.lookup(key, dep.Index, dep.HasIndex)
		if err != nil {
			continue
		}
		if err := checkConversion(target, key, shape, true); err != nil {
			return err
		}
	}
	return nil
}

// request 推断类型 t 对应的键与形态：
// Ref[X] / *Handle[X] 为对应形态；已注册的类型为值；未注册的 *X 在 X 已注册时为指针。
func (c *Container) request(t reflect.Type) (Key, Shape) {
	if car, ok := carrierFor(t); ok {
		return KeyFor(car.carrierElem()), car.carrierShape()
	}
	if t.Kind() == reflect.Pointer && !c.has(KeyFor(t)) && c.has(KeyFor(t.Elem())) {
		return KeyFor(t.Elem()), ShapePointer
	}
	return KeyFor(t), ShapeValue
}

func (c *Container) has(key Key) bool {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.registry.has(key) {
			return true
		}
	}
	return false
}

// track 记录新构造的共享实例，由绑定所属的容器负责释放
func (c *Container) track(b *binding) {
	owner := b.owner
	if slices.Contains(owner.live, b) {
		return
	}
	owner.live = append(owner.live, b)
	owner.logger.Debug("instance constructed",
		logging.Field{Key: "key", Value: b.key.String()},
		logging.Field{Key: "scope", Value: b.scope.String()})
}

func (c *Container) resolving(fn func(*resolvingContext) (reflect.Value, error)) (reflect.Value, error) {
	if c.closed {
		return reflect.Value{}, newError(ErrClosed, Key{}, nil)
	}
	ctx := newResolvingContext(c)
	defer func() {
		// panic 展开时同样回滚
		if !ctx.settled {
			ctx.abort()
		}
	}()
	v, err := fn(ctx)
	if err = ctx.settle(err); err != nil {
		return reflect.Value{}, err
	}
	return v, nil
}

func (c *Container) nested() bool { return false }

// reset 释放绑定持有的共享实例，下次解析时重新构造
func (c *Container) reset(key Key, index any, hasIndex bool) error {
	b, err := c.lookup(key, index, hasIndex)
	if err != nil {
		return err
	}
	owner := b.owner
	owner.live = slices.DeleteFunc(owner.live, func(x *binding) bool { return x == b })
	return b.storage.reset()
}

// Close 按构造的相反顺序释放本容器持有的共享实例。
// external 实例不会被释放。关闭后容器不能再注册或解析。
func (c *Container) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.logger.Debug("closing container", logging.Field{Key: "instances", Value: len(c.live)})
	var errs error
	for i := len(c.live) - 1; i >= 0; i-- {
		b := c.live[i]
		if err := b.storage.reset(); err != nil {
			c.logger.Error("dispose failed", logging.Field{Key: "key", Value: b.key.String()}, logging.Field{Key: "error", Value: err})
			errs = multierr.Append(errs, err)
		}
	}
	c.live = nil
	return errs
}
