package di

import (
	"cmp"
	"reflect"
)

// Key 是类型标识，作为注册表的键。
// Key 可比较（可直接用作 map 键），并通过 Compare 提供全序。
type Key struct {
	typ reflect.Type
}

// KeyOf 返回类型 T 的 Key
func KeyOf[T any]() Key {
	return Key{typ: TypeOf[T]()}
}

// KeyFor 返回给定 reflect.Type 的 Key
func KeyFor(typ reflect.Type) Key {
	return Key{typ: typ}
}

// TypeOf 获取类型 T 的 reflect.Type（泛型辅助函数）
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Type 返回 Key 对应的类型
func (k Key) Type() reflect.Type {
	return k.typ
}

// IsZero 报告 Key 是否未初始化
func (k Key) IsZero() bool {
	return k.typ == nil
}

func (k Key) String() string {
	if k.typ == nil {
		return "<nil>"
	}
	return k.typ.String()
}

// Compare 定义 Key 之间的全序：先按包路径和类型名，再按类型描述符地址区分同名类型。
func (k Key) Compare(other Key) int {
	if k.typ == other.typ {
		return 0
	}
	if k.typ == nil {
		return -1
	}
	if other.typ == nil {
		return 1
	}
	if c := cmp.Compare(k.typ.PkgPath(), other.typ.PkgPath()); c != 0 {
		return c
	}
	if c := cmp.Compare(k.typ.String(), other.typ.String()); c != 0 {
		return c
	}
	return cmp.Compare(typeAddr(k.typ), typeAddr(other.typ))
}

// Less 报告 k 是否排在 other 之前
func (k Key) Less(other Key) bool {
	return k.Compare(other) < 0
}

func typeAddr(t reflect.Type) uintptr {
	return reflect.ValueOf(t).Pointer()
}
