package di_test

import (
	"testing"

	"github.com/gocrud/inject/di"
)

// 基准测试接口和实现
type BenchLogger interface {
	Log(msg string)
}

type BenchConsoleLogger struct{}

func (l *BenchConsoleLogger) Log(msg string) {}

type BenchDatabase interface {
	Query(sql string) error
}

type BenchMySQLDB struct{}

func (db *BenchMySQLDB) Query(sql string) error { return nil }

type BenchCache interface {
	Get(key string) string
	Set(key, value string)
}

type BenchRedisCache struct{}

func (c *BenchRedisCache) Get(key string) string { return "" }
func (c *BenchRedisCache) Set(key, value string) {}

type BenchRepository struct {
	Database BenchDatabase `di:""`
	Cache    BenchCache    `di:""`
	Logger   BenchLogger   `di:""`
}

type BenchBusinessService struct {
	Repo   *BenchRepository `di:""`
	Logger BenchLogger      `di:""`
}

type BenchAPIService struct {
	Business *BenchBusinessService `di:""`
	Logger   BenchLogger           `di:""`
	Cache    BenchCache            `di:""`
}

func newBenchContainer(scope di.Scope) *di.Container {
	c := di.New()
	di.MustRegister[BenchLogger](c, di.Use[*BenchConsoleLogger]())
	di.MustRegister[BenchDatabase](c, di.Use[*BenchMySQLDB]())
	di.MustRegister[BenchCache](c, di.Use[*BenchRedisCache]())
	di.MustRegister[*BenchRepository](c, di.WithScope(scope))
	di.MustRegister[*BenchBusinessService](c, di.WithScope(scope))
	di.MustRegister[*BenchAPIService](c, di.WithScope(scope))
	return c
}

// 注册性能
func BenchmarkRegister(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		newBenchContainer(di.ScopeShared)
	}
}

// 已构造的共享实例
func BenchmarkResolve_Shared(b *testing.B) {
	c := newBenchContainer(di.ScopeShared)
	if _, err := di.Resolve[*BenchAPIService](c); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = di.Resolve[*BenchAPIService](c)
	}
}

// 每次构造完整的依赖树
func BenchmarkResolve_Unique(b *testing.B) {
	c := newBenchContainer(di.ScopeUnique)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := di.Resolve[*BenchAPIService](c); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkResolve_Parallel(b *testing.B) {
	c := newBenchContainer(di.ScopeShared)
	if _, err := di.Resolve[*BenchAPIService](c); err != nil {
		b.Fatal(err)
	}
	// 实例全部就绪后只读，可以并发解析
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = di.Resolve[*BenchAPIService](c)
		}
	})
}

func BenchmarkResolveIndexed(b *testing.B) {
	for _, backend := range []di.IndexBackend{di.HashIndex(), di.OrderedIndex(), di.ArrayIndex(16)} {
		b.Run(backend.String(), func(b *testing.B) {
			c := di.New(di.WithDefaultIndexBackend(backend))
			for i := 0; i < 16; i++ {
				di.MustRegister[*Counter](c, di.WithIndex(i), di.WithValue(&Counter{ID: i}))
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, _ = di.ResolveIndexed[*Counter](c, i%16)
			}
		})
	}
}

func BenchmarkResolveAll(b *testing.B) {
	c := di.New()
	for i := 0; i < 8; i++ {
		di.MustRegister[*Counter](c, di.WithIndex(i), di.WithValue(&Counter{ID: i}))
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = di.ResolveAll[*Counter](c)
	}
}
