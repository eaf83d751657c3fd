package di

import (
	"fmt"
	"reflect"
)

// binding 是一次注册的结果：键、实例类型、作用域与构造方式。
type binding struct {
	id      int
	key     Key
	typ     reflect.Type
	scope   Scope
	storeAs Storage

	interfaces []Key
	index      any
	hasIndex   bool
	noCopy     bool

	factory factory
	dispose func(reflect.Value) error
	storage scopeStorage
	owner   *Container
	// leaf 为 true 表示绑定没有依赖，解析时无需递归检测
	leaf bool
}

func (b *binding) build(ctx *resolvingContext) (reflect.Value, error) {
	v, err := b.factory.build(ctx)
	if err != nil {
		return reflect.Value{}, wrapCause(ErrFactoryFailed, b.key, err)
	}
	return v, nil
}

// keys 返回绑定提供的全部键，主键在前
func (b *binding) keys() []Key {
	keys := make([]Key, 0, 1+len(b.interfaces))
	keys = append(keys, b.key)
	return append(keys, b.interfaces...)
}

// Dependencies 返回绑定声明的依赖
func (b *binding) Dependencies() []Dependency {
	if b.factory == nil {
		return nil
	}
	return b.factory.Dependencies()
}

func (b *binding) String() string {
	s := fmt.Sprintf("%s(%s, %s)", b.key, b.typ, b.scope)
	if b.hasIndex {
		s += fmt.Sprintf("[%v]", b.index)
	}
	return s
}

// newBinding 根据注册选项为键 key 创建绑定
func newBinding(key Key, reg *registration) (*binding, error) {
	invalid := func(format string, args ...any) error {
		return newError(ErrInvalidBinding, key, fmt.Errorf(format, args...))
	}
	if reg.err != nil {
		return nil, newError(ErrInvalidBinding, key, reg.err)
	}
	if reg.hasIndex && reg.index == nil {
		return nil, invalid("nil index")
	}

	b := &binding{
		key:      key,
		scope:    reg.scope,
		storeAs:  reg.storeAs,
		index:    reg.index,
		hasIndex: reg.hasIndex,
		noCopy:   reg.noCopy,
		dispose:  reg.dispose,
	}

	if reg.scope == ScopeExternal && !reg.external {
		return nil, invalid("%s scope requires WithValue, WithReference or WithHandle", ScopeExternal)
	}

	switch {
	case reg.external:
		b.scope = ScopeExternal
		b.leaf = true
		var c *cell
		switch {
		case reg.handle != nil:
			c = reg.handle.c
		case reg.reference.IsValid():
			c = &cell{key: key, ptr: reg.reference, state: cellConstructed}
		default:
			c = constructedCell(key, reg.instance)
		}
		b.typ = c.ptr.Type().Elem()
		b.storage = newExternalStorage(c, reg.handle)

	case reg.factory != nil:
		f, out, err := newFuncFactory(reg.factory)
		if err != nil {
			return nil, newError(ErrInvalidBinding, key, err)
		}
		b.typ, b.factory = out, f
		b.leaf = len(f.deps) == 0

	case reg.closure != nil:
		b.typ = reg.closureOf
		b.factory = &closureFactory{fn: reg.closure}

	default:
		typ := key.typ
		if reg.impl != nil {
			typ = reg.impl
		}
		if !isStructLike(typ) {
			return nil, invalid("%v has no factory; register it with WithFactory, Provide or WithValue", typ)
		}
		f, err := newStructFactory(typ)
		if err != nil {
			return nil, newError(ErrInvalidBinding, key, err)
		}
		b.typ, b.factory = typ, f
		b.leaf = len(f.fields) == 0
	}

	if viewOf(key.typ, b.typ) == viewNone {
		return nil, invalid("%v is not assignable to %v", b.typ, key.typ)
	}
	for _, it := range reg.interfaces {
		if viewOf(it, b.typ) == viewNone {
			return nil, invalid("%v does not implement %v", b.typ, it)
		}
		b.interfaces = append(b.interfaces, KeyFor(it))
	}
	if reg.disposeOf != nil && !b.typ.AssignableTo(reg.disposeOf) {
		return nil, invalid("dispose callback takes %v, instance is %v", reg.disposeOf, b.typ)
	}
	if b.scope == ScopeSharedCyclical {
		if k := b.typ.Kind(); k == reflect.Pointer || k == reflect.Interface {
			return nil, invalid("%s scope requires a non-pointer instance type, got %v", b.scope, b.typ)
		}
	}
	if b.scope < ScopeShared || b.scope > ScopeSharedCyclical {
		return nil, invalid("unknown scope %v", b.scope)
	}
	if b.storage == nil {
		b.storage = newStorage(b)
	}
	return b, nil
}

func isStructLike(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}
