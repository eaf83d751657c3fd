package di

import (
	"fmt"
	"reflect"
	"sync"
)

var lockerType = TypeOf[sync.Locker]()

// copyable 报告类型的值能否安全复制：含有锁的结构体不可复制
func copyable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Struct:
		if reflect.PointerTo(t).Implements(lockerType) {
			return false
		}
		for i := 0; i < t.NumField(); i++ {
			if !copyable(t.Field(i).Type) {
				return false
			}
		}
	case reflect.Array:
		return copyable(t.Elem())
	}
	return true
}

// viewKind 描述从实例类型 S 到键类型 K 的转换方式
type viewKind int

const (
	viewNone viewKind = iota
	// viewSame K == S
	viewSame
	// viewCopy S 实现接口 K，接口值持有 S 的副本
	viewCopy
	// viewAlias *S 实现接口 K，接口值持有指向槽位的指针
	viewAlias
)

func viewOf(key, typ reflect.Type) viewKind {
	switch {
	case key == typ:
		return viewSame
	case key.Kind() != reflect.Interface:
		return viewNone
	case typ.Implements(key):
		return viewCopy
	case reflect.PointerTo(typ).Implements(key):
		return viewAlias
	}
	return viewNone
}

// checkConversion 按作用域与请求形态校验转换是否合法。
// nested 表示请求来自另一个实例的构造过程，此时 unique 实例可以作为调用期临时对象借出指针。
func checkConversion(b *binding, key Key, shape Shape, nested bool) error {
	fail := func(format string, args ...any) error {
		e := newError(ErrNotConvertible, key, fmt.Errorf(format, args...))
		return e
	}
	view := viewOf(key.typ, b.typ)
	if view == viewNone {
		return fail("%s is not assignable to %s", b.typ, key.typ)
	}
	// 副本需要类型可复制；共享实例的副本还需允许复制
	copyOK := func() bool {
		if b.scope == ScopeUnique {
			return true
		}
		return !b.noCopy && copyable(b.typ)
	}

	switch shape {
	case ShapeValue:
		switch view {
		case viewAlias:
			return nil
		default:
			if b.scope == ScopeSharedCyclical {
				return fail("%s scope cannot produce a value copy", b.scope)
			}
			if !copyOK() {
				return fail("%s is not copyable", b.typ)
			}
		}
	case ShapeMove:
		if b.scope != ScopeUnique {
			return fail("%s scope cannot be moved out", b.scope)
		}
	case ShapePointer, ShapeReference:
		if view != viewSame {
			return fail("%s of %s requires the concrete key %s", shape, key.typ, b.typ)
		}
		if b.scope == ScopeUnique && !nested {
			return fail("%s of a unique instance outlives the resolving call", shape)
		}
	case ShapeHandle:
		if b.scope == ScopeUnique {
			break
		}
		// 接口句柄持有指向槽位的指针，不复制实例
		if b.storeAs != StoreHandle {
			return fail("%s scope is not stored as handle", b.scope)
		}
	default:
		return fail("unknown shape %d", int(shape))
	}
	return nil
}

// viewValue 把槽位中的实例转换为 key 类型的值
func viewValue(key reflect.Type, c *cell) reflect.Value {
	out := reflect.New(key).Elem()
	switch viewOf(key, c.ptr.Type().Elem()) {
	case viewAlias:
		out.Set(c.ptr)
	default:
		out.Set(c.ptr.Elem())
	}
	return out
}

// convert 按请求形态产出结果，target 为调用方请求的 Go 类型
func (ctx *resolvingContext) convert(b *binding, c *cell, key Key, shape Shape, target reflect.Type, nested bool) (reflect.Value, error) {
	switch shape {
	case ShapeValue, ShapeMove:
		return viewValue(key.typ, c), nil

	case ShapePointer:
		if b.scope == ScopeUnique {
			if err := ctx.addTemporary(c); err != nil {
				return reflect.Value{}, err
			}
		}
		return c.ptr, nil

	case ShapeReference:
		if b.scope == ScopeUnique {
			if err := ctx.addTemporary(c); err != nil {
				return reflect.Value{}, err
			}
		}
		return bindCarrier(target, c, nil, c.ptr), nil

	case ShapeHandle:
		var core *handleCore
		if b.scope == ScopeUnique {
			core = newHandleCore(c)
		} else {
			core = b.storage.root()
			core.acquire()
		}
		view := c.ptr
		if key.typ != b.typ {
			view = reflect.New(key.typ)
			view.Elem().Set(c.ptr)
		}
		return bindCarrier(target, c, core, view), nil
	}
	return reflect.Value{}, newError(ErrNotConvertible, key, fmt.Errorf("unknown shape %d", int(shape)))
}

// bindCarrier 创建 target 类型的 Ref / Handle 并绑定实例
func bindCarrier(target reflect.Type, c *cell, core *handleCore, view reflect.Value) reflect.Value {
	if target.Kind() == reflect.Pointer {
		out := reflect.New(target.Elem())
		out.Interface().(carrier).bind(c, core, view)
		return out
	}
	out := reflect.New(target)
	out.Interface().(carrier).bind(c, core, view)
	return out.Elem()
}
