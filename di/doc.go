// Package di 实现基于反射的依赖注入容器。
//
// 绑定以类型为键注册，可选地带有索引。每个绑定有一个作用域：
//
//   - shared：每个容器一个实例，首次解析时构造（默认）
//   - unique：每次解析构造新实例
//   - external：调用方提供的实例，容器不构造也不释放
//   - shared-cyclical：允许循环依赖，先预留槽位，构造推迟到解析调用结束前
//
// 请求的 Go 类型决定得到的形态：T 为值，*T 为指向容器内实例的指针，
// Ref[T] 为受检引用，*Handle[T] 为引用计数句柄，[]T 为 T 的全部绑定。
// 形态与作用域不兼容时返回 ErrNotConvertible。
//
// 每次顶层 Resolve 是一个事务：任何一步失败，本次调用中新构造的共享实例都会被释放，
// 容器回到调用前的状态。
//
//	c := di.New()
//	di.Register[*Config](c, di.WithValue(&Config{DSN: "file::memory:"}))
//	di.Register[*Repository](c, di.WithFactory(NewRepository))
//	repo, err := di.Resolve[*Repository](c)
package di
