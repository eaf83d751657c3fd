package di

import (
	"fmt"
	"reflect"
)

// Register 注册类型 T 的绑定。
// 未指定构造方式时，T（或 Use 指定的实现类型）必须是结构体或结构体指针，
// 容器创建它并注入带 `di` 标签的字段。
func Register[T any](c *Container, opts ...Option) error {
	return c.register(KeyOf[T](), opts)
}

// MustRegister 与 Register 相同，失败时 panic
func MustRegister[T any](c *Container, opts ...Option) {
	if err := Register[T](c, opts...); err != nil {
		panic(err)
	}
}

// RegisterAuto 根据 target 推断注册方式并返回绑定的类型：
//   - func(...) (T, error?)：以 T 为键注册构造函数
//   - *Struct：注册该实例；若结构体含 di 标签字段，首次解析时注入这些字段
//   - reflect.Type：以该类型为键，通过字段注入创建
func RegisterAuto(c *Container, target any, opts ...Option) (reflect.Type, error) {
	if typ, ok := target.(reflect.Type); ok {
		return typ, c.register(KeyFor(typ), opts)
	}
	val := reflect.ValueOf(target)
	switch val.Kind() {
	case reflect.Func:
		typ, err := resultType(val.Type())
		if err != nil {
			return nil, newError(ErrInvalidBinding, Key{}, err)
		}
		return typ, c.register(KeyFor(typ), append([]Option{WithFactory(target)}, opts...))
	case reflect.Pointer:
		if val.IsNil() {
			break
		}
		typ := val.Type()
		if hasInjectTags(typ) {
			fields, err := analyzeStruct(typ)
			if err != nil {
				return nil, newError(ErrInvalidBinding, KeyFor(typ), err)
			}
			fill := func(r *registration) {
				r.closureOf = typ
				r.closure = func(i *Injector) (reflect.Value, error) {
					if err := injectFields(i.ctx, val.Elem(), fields); err != nil {
						return reflect.Value{}, err
					}
					return val, nil
				}
			}
			return typ, c.register(KeyFor(typ), append([]Option{fill}, opts...))
		}
		return typ, c.register(KeyFor(typ), append([]Option{WithValue(target)}, opts...))
	}
	return nil, newError(ErrInvalidBinding, Key{}, fmt.Errorf("unsupported auto-registration target %T", target))
}

// Has 报告容器链上是否存在 T 的绑定
func Has[T any](c *Container) bool {
	return c.has(KeyOf[T]())
}

// Resolve 解析 T。请求的类型决定结果形态：
//   - Ref[X]：对 X 实例的受检引用
//   - *Handle[X]：句柄
//   - *X 且 *X 未注册而 X 已注册：指向容器内 X 实例的指针
//   - []X 且 []X 未注册而 X 已注册：X 的全部绑定
//   - 其他：T 的值
func Resolve[T any](r Resolver) (T, error) {
	return resolveDependency[T](r, Dependency{Type: TypeOf[T]()})
}

// ResolveIndexed 按索引解析 T
func ResolveIndexed[T any](r Resolver, index any) (T, error) {
	return resolveDependency[T](r, Dependency{Type: TypeOf[T](), Index: index, HasIndex: true})
}

// ResolveNamed 以字符串索引解析 T
func ResolveNamed[T any](r Resolver, name string) (T, error) {
	return ResolveIndexed[T](r, name)
}

// ResolveOptional 解析 T，未注册时返回零值与 false
func ResolveOptional[T any](r Resolver) (T, bool, error) {
	v, err := Resolve[T](r)
	if err != nil {
		if isNotFound(err, KeyOf[T]()) {
			return v, false, nil
		}
		return v, false, err
	}
	return v, true, nil
}

// ResolveMove 取走一个新构造的 T，只对 unique 绑定有效
func ResolveMove[T any](r Resolver) (T, error) {
	t := TypeOf[T]()
	v, err := r.resolving(func(ctx *resolvingContext) (reflect.Value, error) {
		return ctx.resolveKey(KeyFor(t), nil, false, ShapeMove, t, r.nested())
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](v), nil
}

// ResolveRef 解析 T 实例的受检引用
func ResolveRef[T any](r Resolver) (Ref[T], error) {
	return Resolve[Ref[T]](r)
}

// ResolvePointer 解析指向容器内 T 实例的指针
func ResolvePointer[T any](r Resolver) (*T, error) {
	t := TypeOf[*T]()
	v, err := r.resolving(func(ctx *resolvingContext) (reflect.Value, error) {
		return ctx.resolveKey(KeyOf[T](), nil, false, ShapePointer, t, r.nested())
	})
	if err != nil {
		return nil, err
	}
	return as[*T](v), nil
}

// ResolveHandle 解析 T 的句柄
func ResolveHandle[T any](r Resolver) (*Handle[T], error) {
	return Resolve[*Handle[T]](r)
}

// MustResolve 与 Resolve 相同，失败时 panic
func MustResolve[T any](r Resolver) T {
	v, err := Resolve[T](r)
	if err != nil {
		panic(err)
	}
	return v
}

func resolveDependency[T any](r Resolver, dep Dependency) (T, error) {
	v, err := r.resolving(func(ctx *resolvingContext) (reflect.Value, error) {
		return ctx.resolveDependency(dep, r.nested())
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](v), nil
}

// Reset 释放 T 的共享实例，下次解析时重新构造
func Reset[T any](c *Container) error {
	return c.reset(KeyOf[T](), nil, false)
}

// ResetIndexed 释放指定索引的共享实例
func ResetIndexed[T any](c *Container, index any) error {
	return c.reset(KeyOf[T](), index, true)
}

// DependenciesOf 返回 T 的绑定声明的依赖，用于诊断
func DependenciesOf[T any](c *Container) ([]Dependency, error) {
	b, err := c.lookup(KeyOf[T](), nil, false)
	if err != nil {
		return nil, err
	}
	return b.Dependencies(), nil
}
