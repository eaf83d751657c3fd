package di

import (
	"io"
	"reflect"
)

type cellState uint8

const (
	cellReserved cellState = iota + 1
	cellConstructed
	cellExpired
)

func (s cellState) String() string {
	switch s {
	case cellReserved:
		return "reserved"
	case cellConstructed:
		return "constructed"
	case cellExpired:
		return "expired"
	}
	return "empty"
}

// cell 是一个实例槽位，ptr 的类型为 *T。
// 预留状态下槽位内存已分配但尚未构造，访问受 Ref 检查保护。
type cell struct {
	key     Key
	ptr     reflect.Value
	state   cellState
	dispose func(reflect.Value) error
}

func newCell(key Key, typ reflect.Type) *cell {
	return &cell{key: key, ptr: reflect.New(typ)}
}

func constructedCell(key Key, v reflect.Value) *cell {
	c := newCell(key, v.Type())
	c.ptr.Elem().Set(v)
	c.state = cellConstructed
	return c
}

func (c *cell) ready() bool {
	return c != nil && c.state == cellConstructed
}

// check 在访问前校验槽位状态
func (c *cell) check() error {
	if c.state != cellConstructed {
		return &ResolveError{Kind: ErrNotConstructed, Key: c.key, Cause: errState(c.state)}
	}
	return nil
}

// destroy 释放实例；仅已构造的实例会调用析构逻辑
func (c *cell) destroy() error {
	if c.state != cellConstructed {
		c.state = cellExpired
		return nil
	}
	c.state = cellExpired
	if c.dispose != nil {
		return c.dispose(c.ptr.Elem())
	}
	return disposeValue(c.ptr)
}

type errState cellState

func (e errState) Error() string {
	return "slot is " + cellState(e).String()
}

// Disposer 由需要在容器释放时清理资源的类型实现
type Disposer interface {
	Dispose() error
}

// disposeValue 依次尝试 Disposer 与 io.Closer，先检查值本身再检查其指针
func disposeValue(ptr reflect.Value) error {
	elem := ptr.Elem()
	if elem.Kind() == reflect.Interface || elem.Kind() == reflect.Pointer {
		if elem.IsNil() {
			return nil
		}
		if ok, err := callDispose(elem.Interface()); ok {
			return err
		}
	}
	if ok, err := callDispose(ptr.Interface()); ok {
		return err
	}
	return nil
}

func callDispose(v any) (bool, error) {
	switch d := v.(type) {
	case Disposer:
		return true, d.Dispose()
	case io.Closer:
		return true, d.Close()
	}
	return false, nil
}
