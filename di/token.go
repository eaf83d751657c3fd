package di

import (
	"fmt"
	"reflect"
)

// Token 是带类型的索引，用于区分同一类型的多个绑定
//
// 示例：
//
//	var Primary = di.NewToken[*gorm.DB]("primary")
//
//	di.Register[*gorm.DB](c, di.WithFactory(openPrimary), Primary.Option())
//	db, err := di.ResolveToken(c, Primary)
type Token[T any] struct {
	index any
	typ   reflect.Type
}

// NewToken 创建以 index 为索引的 Token
func NewToken[T any](index any) *Token[T] {
	return &Token[T]{
		index: index,
		typ:   TypeOf[T](),
	}
}

// Index 返回 Token 的索引
func (t *Token[T]) Index() any {
	return t.index
}

// Key 返回 Token 对应的键
func (t *Token[T]) Key() Key {
	return KeyFor(t.typ)
}

// Option 返回把绑定登记到该索引的注册选项
func (t *Token[T]) Option() Option {
	return WithIndex(t.index)
}

// Register 以该 Token 注册绑定
func (t *Token[T]) Register(c *Container, opts ...Option) error {
	return Register[T](c, append(opts, t.Option())...)
}

func (t *Token[T]) String() string {
	return fmt.Sprintf("Token[%s](%v)", t.typ, t.index)
}

// ResolveToken 解析 Token 对应的绑定
func ResolveToken[T any](r Resolver, t *Token[T]) (T, error) {
	return ResolveIndexed[T](r, t.index)
}
