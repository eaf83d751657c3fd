package di

import (
	"fmt"
	"reflect"
)

// Collector 接收集合解析的每个元素
type Collector[T any] interface {
	Add(item T) error
}

// SliceCollector 按注册顺序收集元素
type SliceCollector[T any] struct {
	Items []T
}

func (s *SliceCollector[T]) Add(item T) error {
	s.Items = append(s.Items, item)
	return nil
}

// SetCollector 收集去重后的元素
type SetCollector[T comparable] map[T]struct{}

func (s SetCollector[T]) Add(item T) error {
	s[item] = struct{}{}
	return nil
}

// MapCollector 以 KeyOf 计算的键收集元素，键重复时报错
type MapCollector[K comparable, T any] struct {
	Items map[K]T
	KeyOf func(T) K
}

func (m *MapCollector[K, T]) Add(item T) error {
	k := m.KeyOf(item)
	if m.Items == nil {
		m.Items = make(map[K]T)
	}
	if _, dup := m.Items[k]; dup {
		return fmt.Errorf("di: duplicate collection key %v", k)
	}
	m.Items[k] = item
	return nil
}

// Collect 解析 T 的全部绑定并逐个加入 target。
// T 的形态规则与 Resolve 相同，例如 Collect[*Handle[X]] 收集句柄。
func Collect[T any](r Resolver, target Collector[T]) error {
	t := TypeOf[T]()
	_, err := r.resolving(func(ctx *resolvingContext) (reflect.Value, error) {
		key, shape := ctx.request(t)
		items, err := ctx.resolveAll(key, shape, t, r.nested())
		if err != nil {
			return reflect.Value{}, err
		}
		for _, item := range items {
			if err := target.Add(as[T](item)); err != nil {
				return reflect.Value{}, wrapCause(ErrCollectorRejected, key, err)
			}
		}
		return reflect.Value{}, nil
	})
	return err
}

// ResolveAll 按注册顺序（父容器在前）解析 T 的全部绑定
func ResolveAll[T any](r Resolver) ([]T, error) {
	var items SliceCollector[T]
	if err := Collect[T](r, &items); err != nil {
		return nil, err
	}
	return items.Items, nil
}

// ResolveAllHandles 以句柄形式解析 T 的全部绑定
func ResolveAllHandles[T any](r Resolver) ([]*Handle[T], error) {
	return ResolveAll[*Handle[T]](r)
}
