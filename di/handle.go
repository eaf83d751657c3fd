package di

import (
	"reflect"
	"sync/atomic"
)

// Shape 表示调用方请求的结果形态。
type Shape int

const (
	// ShapeValue 值（副本）
	ShapeValue Shape = iota
	// ShapePointer 指向容器内实例的指针 *T
	ShapePointer
	// ShapeReference 带状态检查的引用 Ref[T]
	ShapeReference
	// ShapeMove 取走一个新构造的值，仅 unique 作用域可用
	ShapeMove
	// ShapeHandle 拥有所有权的句柄 *Handle[T]
	ShapeHandle
)

func (s Shape) String() string {
	switch s {
	case ShapeValue:
		return "value"
	case ShapePointer:
		return "pointer"
	case ShapeReference:
		return "reference"
	case ShapeMove:
		return "move"
	case ShapeHandle:
		return "handle"
	}
	return "unknown"
}

// carrier 由 Ref 与 Handle 实现，解析时通过反射创建并绑定到实例槽位。
type carrier interface {
	carrierShape() Shape
	carrierElem() reflect.Type
	bind(c *cell, core *handleCore, view reflect.Value)
}

var carrierType = reflect.TypeOf((*carrier)(nil)).Elem()

// carrierFor 判断 t 是否为 Ref[X] / *Ref[X] / *Handle[X]
func carrierFor(t reflect.Type) (carrier, bool) {
	if t.Kind() == reflect.Pointer {
		if t.Implements(carrierType) {
			return reflect.New(t.Elem()).Interface().(carrier), true
		}
		return nil, false
	}
	if reflect.PointerTo(t).Implements(carrierType) {
		return reflect.New(t).Interface().(carrier), true
	}
	return nil, false
}

// Ref 是对容器内实例的受检引用。
// 对于 shared-cyclical 作用域，实例在第二阶段构造完成前处于预留状态，
// 此时 Get 会 panic，TryGet 返回 ErrNotConstructed。
type Ref[T any] struct {
	c *cell
}

// Get 返回实例指针；实例未构造或已失效时 panic
func (r Ref[T]) Get() *T {
	p, err := r.TryGet()
	if err != nil {
		panic(err)
	}
	return p
}

// TryGet 返回实例指针，实例不可访问时返回错误
func (r Ref[T]) TryGet() (*T, error) {
	if r.c == nil {
		return nil, &ResolveError{Kind: ErrNotConstructed, Key: KeyOf[T]()}
	}
	if err := r.c.check(); err != nil {
		return nil, err
	}
	return r.c.ptr.Interface().(*T), nil
}

// Ready 报告实例是否已构造完成
func (r Ref[T]) Ready() bool {
	return r.c.ready()
}

func (r *Ref[T]) carrierShape() Shape       { return ShapeReference }
func (r *Ref[T]) carrierElem() reflect.Type { return TypeOf[T]() }
func (r *Ref[T]) bind(c *cell, _ *handleCore, _ reflect.Value) {
	r.c = c
}

// handleCore 是句柄共享的引用计数，计数归零时释放实例
type handleCore struct {
	c    *cell
	refs atomic.Int32
}

func newHandleCore(c *cell) *handleCore {
	h := &handleCore{c: c}
	h.refs.Store(1)
	return h
}

func (h *handleCore) acquire() {
	h.refs.Add(1)
}

func (h *handleCore) release() error {
	if h.refs.Add(-1) == 0 {
		return h.c.destroy()
	}
	return nil
}

// Handle 是拥有所有权的句柄。
// unique 作用域每次得到新的句柄；以 StoreHandle 保存的共享实例返回共享同一实例的句柄，
// 最后一个持有者 Release 后实例才会被释放。
type Handle[T any] struct {
	core     *handleCore
	ptr      *T
	released atomic.Bool
}

// Get 返回实例指针；句柄已释放或实例未构造时 panic
func (h *Handle[T]) Get() *T {
	p, err := h.TryGet()
	if err != nil {
		panic(err)
	}
	return p
}

// TryGet 返回实例指针
func (h *Handle[T]) TryGet() (*T, error) {
	if h == nil || h.core == nil || h.released.Load() {
		return nil, &ResolveError{Kind: ErrNotConstructed, Key: KeyOf[T](), Cause: errState(cellExpired)}
	}
	if err := h.core.c.check(); err != nil {
		return nil, err
	}
	return h.ptr, nil
}

// Share 返回指向同一实例的新句柄
func (h *Handle[T]) Share() *Handle[T] {
	h.core.acquire()
	return &Handle[T]{core: h.core, ptr: h.ptr}
}

// Release 放弃所有权，重复调用无效果
func (h *Handle[T]) Release() error {
	if h.released.Swap(true) {
		return nil
	}
	return h.core.release()
}

// Refs 返回当前持有者数量
func (h *Handle[T]) Refs() int {
	return int(h.core.refs.Load())
}

func (h *Handle[T]) carrierShape() Shape       { return ShapeHandle }
func (h *Handle[T]) carrierElem() reflect.Type { return TypeOf[T]() }
func (h *Handle[T]) bind(_ *cell, core *handleCore, view reflect.Value) {
	h.core = core
	h.ptr = view.Interface().(*T)
}

// NewHandle 把调用方持有的实例包装为句柄，可通过 WithHandle 作为 external 绑定注册
func NewHandle[T any](v T) *Handle[T] {
	c := constructedCell(KeyOf[T](), reflect.ValueOf(&v).Elem())
	return &Handle[T]{core: newHandleCore(c), ptr: c.ptr.Interface().(*T)}
}
