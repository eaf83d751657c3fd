package di

import (
	"fmt"
	"reflect"

	"github.com/gocrud/inject/logging"
)

// DefaultContextCapacity 是单次解析中临时对象、可回滚存储和延迟构造各自的默认上限
const DefaultContextCapacity = 32

// resolvingContext 贯穿一次顶层解析调用。
// 它记录本次调用中借出的临时对象、新构造的共享实例和待执行的延迟构造，
// 调用成功时提交，失败时按相反顺序回滚。
type resolvingContext struct {
	container *Container
	capacity  int

	temporaries []*cell
	resettables []*binding
	deferred    []func(*resolvingContext) error

	// depth 在进入绑定时加一，仅在成功退出时减一；结束时非零表示构造失败
	depth int
	// path 为当前依赖链，用于错误信息
	path []Key
	// active 为正在构造的绑定，用于检测递归
	active map[*binding]struct{}

	settled bool
}

func newResolvingContext(c *Container) *resolvingContext {
	return &resolvingContext{
		container: c,
		capacity:  c.capacity,
		active:    make(map[*binding]struct{}),
	}
}

func (ctx *resolvingContext) overflow(what string) error {
	return &ResolveError{Kind: ErrContextOverflow, Cause: fmt.Errorf("more than %d %s", ctx.capacity, what)}
}

func (ctx *resolvingContext) addTemporary(c *cell) error {
	if len(ctx.temporaries) >= ctx.capacity {
		return ctx.overflow("temporaries")
	}
	ctx.temporaries = append(ctx.temporaries, c)
	return nil
}

func (ctx *resolvingContext) addResettable(b *binding) error {
	if len(ctx.resettables) >= ctx.capacity {
		return ctx.overflow("resettable storages")
	}
	ctx.resettables = append(ctx.resettables, b)
	return nil
}

func (ctx *resolvingContext) deferConstruct(fn func(*resolvingContext) error) error {
	if len(ctx.deferred) >= ctx.capacity {
		return ctx.overflow("deferred constructions")
	}
	ctx.deferred = append(ctx.deferred, fn)
	return nil
}

func (ctx *resolvingContext) push(k Key) {
	ctx.depth++
	ctx.path = append(ctx.path, k)
}

func (ctx *resolvingContext) pop() {
	ctx.depth--
	ctx.path = ctx.path[:len(ctx.path)-1]
}

// instance 取得绑定的实例槽位；非叶子绑定受递归检测保护
func (ctx *resolvingContext) instance(b *binding) (*cell, error) {
	if b.scope == ScopeExternal || b.scope == ScopeSharedCyclical {
		return b.storage.resolve(ctx, b)
	}
	if b.storage.ready() {
		return b.storage.resolve(ctx, b)
	}
	if !b.leaf {
		if _, busy := ctx.active[b]; busy {
			return nil, withPath(newError(ErrRecursionDetected, b.key, nil), append(ctx.path, b.key))
		}
		ctx.active[b] = struct{}{}
		defer delete(ctx.active, b)
	}
	ctx.push(b.key)
	c, err := b.storage.resolve(ctx, b)
	if err != nil {
		return nil, withPath(err, ctx.path)
	}
	ctx.pop()
	return c, nil
}

// resolveBinding 校验转换、取得实例并按形态输出
func (ctx *resolvingContext) resolveBinding(b *binding, key Key, shape Shape, target reflect.Type, nested bool) (reflect.Value, error) {
	if err := checkConversion(b, key, shape, nested); err != nil {
		return reflect.Value{}, withPath(err, ctx.path)
	}
	c, err := ctx.instance(b)
	if err != nil {
		return reflect.Value{}, err
	}
	return ctx.convert(b, c, key, shape, target, nested)
}

// resolveKey 按键（及可选索引）查找唯一绑定并解析
func (ctx *resolvingContext) resolveKey(key Key, index any, hasIndex bool, shape Shape, target reflect.Type, nested bool) (reflect.Value, error) {
	b, err := ctx.container.lookup(key, index, hasIndex)
	if err != nil {
		return reflect.Value{}, withPath(err, ctx.path)
	}
	return ctx.resolveBinding(b, key, shape, target, nested)
}

func (ctx *resolvingContext) request(t reflect.Type) (Key, Shape) {
	return ctx.container.request(t)
}

// resolveDependency 解析一个依赖声明。
// 未注册的 []X 在 X 有绑定时解析为 X 的全部绑定组成的集合。
func (ctx *resolvingContext) resolveDependency(dep Dependency, nested bool) (reflect.Value, error) {
	key, shape := ctx.request(dep.Type)
	if shape == ShapeValue && dep.Type.Kind() == reflect.Slice && !ctx.container.has(key) && !dep.HasIndex {
		elem := dep.Type.Elem()
		ekey, eshape := ctx.request(elem)
		if ctx.container.has(ekey) {
			items, err := ctx.resolveAll(ekey, eshape, elem, nested)
			if err != nil {
				return reflect.Value{}, err
			}
			out := reflect.MakeSlice(dep.Type, 0, len(items))
			return reflect.Append(out, items...), nil
		}
	}
	v, err := ctx.resolveKey(key, dep.Index, dep.HasIndex, shape, dep.Type, nested)
	if err != nil {
		if dep.Optional && isNotFound(err, key) {
			return reflect.Zero(dep.Type), nil
		}
		return reflect.Value{}, err
	}
	return v, nil
}

// resolveAll 按注册顺序（父容器在前）解析键的全部绑定
func (ctx *resolvingContext) resolveAll(key Key, shape Shape, target reflect.Type, nested bool) ([]reflect.Value, error) {
	bindings := ctx.container.lookupAll(key)
	out := make([]reflect.Value, 0, len(bindings))
	for _, b := range bindings {
		v, err := ctx.resolveBinding(b, key, shape, target, nested)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// drain 依次执行延迟构造，执行中新加入的构造排在队尾
func (ctx *resolvingContext) drain() error {
	for i := 0; i < len(ctx.deferred); i++ {
		if err := ctx.deferred[i](ctx); err != nil {
			return err
		}
	}
	ctx.deferred = ctx.deferred[:0]
	return nil
}

// settle 结束本次调用：成功则执行延迟构造并提交，否则回滚
func (ctx *resolvingContext) settle(err error) error {
	if err == nil && ctx.depth == 0 {
		err = ctx.drain()
	}
	if err != nil || ctx.depth != 0 {
		ctx.abort()
	} else {
		ctx.commit()
	}
	return err
}

func (ctx *resolvingContext) commit() {
	ctx.settled = true
	// resettables 按进入顺序排列，逆序登记使依赖总在依赖方之前
	for i := len(ctx.resettables) - 1; i >= 0; i-- {
		b := ctx.resettables[i]
		if b.storage.ready() {
			ctx.container.track(b)
		}
	}
	ctx.release()
}

// abort 按相反顺序回滚本次调用登记的存储，再释放临时对象。
// 已完成第二阶段的 shared-cyclical 实例保留下来，交由容器在关闭时释放。
func (ctx *resolvingContext) abort() {
	ctx.settled = true
	log := ctx.container.logger
	for i := len(ctx.resettables) - 1; i >= 0; i-- {
		b := ctx.resettables[i]
		if b.scope == ScopeSharedCyclical && b.storage.ready() {
			ctx.container.track(b)
			continue
		}
		if err := b.storage.rollback(); err != nil {
			log.Warn("rollback failed", logging.Field{Key: "key", Value: b.key.String()}, logging.Field{Key: "error", Value: err})
		}
	}
	if len(ctx.resettables) > 0 {
		log.Debug("resolving call rolled back", logging.Field{Key: "storages", Value: len(ctx.resettables)})
	}
	ctx.resettables = nil
	ctx.deferred = nil
	ctx.release()
}

func (ctx *resolvingContext) release() {
	for i := len(ctx.temporaries) - 1; i >= 0; i-- {
		c := ctx.temporaries[i]
		if err := c.destroy(); err != nil {
			ctx.container.logger.Warn("dispose temporary failed", logging.Field{Key: "key", Value: c.key.String()}, logging.Field{Key: "error", Value: err})
		}
	}
	ctx.temporaries = nil
}

// Injector 在工厂函数内部使用，复用当前的解析上下文。
// 它只在所属的解析调用期间有效。
type Injector struct {
	ctx *resolvingContext
}

// Container 返回所属容器
func (i *Injector) Container() *Container {
	return i.ctx.container
}

func (i *Injector) resolving(fn func(*resolvingContext) (reflect.Value, error)) (reflect.Value, error) {
	ctx := i.ctx
	if ctx.settled {
		return reflect.Value{}, newError(ErrClosed, Key{}, fmt.Errorf("injector used after its resolving call finished"))
	}
	depth, path := ctx.depth, len(ctx.path)
	v, err := fn(ctx)
	if err != nil {
		// 调用方可以处理该错误并继续，恢复到进入时的位置
		ctx.depth, ctx.path = depth, ctx.path[:path]
	}
	return v, err
}

func (i *Injector) nested() bool { return true }
