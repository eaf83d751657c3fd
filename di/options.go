package di

import (
	"fmt"
	"reflect"
)

// registration 收集注册选项
type registration struct {
	scope   Scope
	storeAs Storage

	impl      reflect.Type
	factory   any
	closure   func(*Injector) (reflect.Value, error)
	closureOf reflect.Type

	external  bool
	instance  reflect.Value
	reference reflect.Value
	handle    *handleCore

	interfaces []reflect.Type
	index      any
	hasIndex   bool
	backend    IndexBackend
	noCopy     bool
	dispose    func(reflect.Value) error
	disposeOf  reflect.Type

	err error
}

// Option 配置一次注册。
type Option func(*registration)

// WithScope 设置绑定的作用域。
func WithScope(scope Scope) Option {
	return func(r *registration) {
		r.scope = scope
	}
}

// WithShared 每个容器一个实例（默认）。
func WithShared() Option {
	return WithScope(ScopeShared)
}

// WithUnique 每次解析创建新实例。
func WithUnique() Option {
	return WithScope(ScopeUnique)
}

// WithSharedCyclical 允许循环依赖的共享实例。
// 依赖方在构造期间只能拿到 *T 或 Ref[T]，不能读取实例内容。
func WithSharedCyclical() Option {
	return WithScope(ScopeSharedCyclical)
}

// WithValue 注册一个已存在的实例（保存其副本），容器不会释放它。
func WithValue(v any) Option {
	return func(r *registration) {
		r.external = true
		r.instance = reflect.ValueOf(v)
		if !r.instance.IsValid() {
			r.err = fmt.Errorf("value must not be nil")
		}
	}
}

// WithReference 注册调用方持有的实例指针，解析 *T 时返回该指针本身。
func WithReference(ptr any) Option {
	return func(r *registration) {
		r.external = true
		r.reference = reflect.ValueOf(ptr)
		if r.reference.Kind() != reflect.Pointer || r.reference.IsNil() {
			r.err = fmt.Errorf("reference must be a non-nil pointer, got %T", ptr)
		}
	}
}

// WithHandle 注册调用方持有的句柄，容器与解析方共享其所有权。
func WithHandle[T any](h *Handle[T]) Option {
	return func(r *registration) {
		if h == nil || h.core == nil {
			r.err = fmt.Errorf("handle must not be nil")
			return
		}
		r.external = true
		r.handle = h.core
		r.storeAs = StoreHandle
	}
}

// WithFactory 使用构造函数创建实例，函数参数由容器注入。
// 函数签名为 func(deps...) T 或 func(deps...) (T, error)。
func WithFactory(fn any) Option {
	return func(r *registration) {
		r.factory = fn
	}
}

// Provide 使用闭包创建实例，闭包内通过 Injector 解析依赖。
func Provide[T any](fn func(*Injector) (T, error)) Option {
	return func(r *registration) {
		r.closureOf = TypeOf[T]()
		r.closure = func(i *Injector) (reflect.Value, error) {
			v, err := fn(i)
			if err != nil {
				return reflect.Value{}, err
			}
			out := reflect.New(TypeOf[T]()).Elem()
			out.Set(reflect.ValueOf(&v).Elem())
			return out, nil
		}
	}
}

// Use 指定实现类型，容器通过字段注入创建它。
func Use[T any]() Option {
	return func(r *registration) {
		r.impl = TypeOf[T]()
	}
}

// As 让绑定同时以接口 I 的键提供。同一接口可以有多个绑定，按集合解析。
func As[I any]() Option {
	return func(r *registration) {
		typ := TypeOf[I]()
		if typ.Kind() != reflect.Interface {
			r.err = fmt.Errorf("As requires an interface type, got %v", typ)
			return
		}
		r.interfaces = append(r.interfaces, typ)
	}
}

// WithIndex 为绑定设置索引，同一键下可以按索引区分多个绑定。
func WithIndex(index any) Option {
	return func(r *registration) {
		r.index = index
		r.hasIndex = true
	}
}

// WithName 以字符串作为索引，与 `di:"name"` 字段标签对应。
func WithName(name string) Option {
	return WithIndex(name)
}

// WithIndexBackend 指定该键索引表的实现，只在键的第一个带索引绑定上生效。
func WithIndexBackend(b IndexBackend) Option {
	return func(r *registration) {
		r.backend = b
	}
}

// WithHandleStorage 以引用计数句柄保存共享实例，解析方可以取得 *Handle[T]。
func WithHandleStorage() Option {
	return func(r *registration) {
		r.storeAs = StoreHandle
	}
}

// WithNoCopy 禁止以值的形式取得共享实例的副本。
func WithNoCopy() Option {
	return func(r *registration) {
		r.noCopy = true
	}
}

// OnDispose 设置实例释放时的回调，替代默认的 Disposer / io.Closer 检测。
func OnDispose[T any](fn func(T) error) Option {
	return func(r *registration) {
		r.disposeOf = TypeOf[T]()
		r.dispose = func(v reflect.Value) error {
			return fn(as[T](v))
		}
	}
}

// as 把反射值转换为 T，零值 reflect.Value 得到 T 的零值
func as[T any](v reflect.Value) T {
	var out T
	if v.IsValid() {
		reflect.ValueOf(&out).Elem().Set(v)
	}
	return out
}
