package cron

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/hosting"
)

// Builder Cron 配置构建器
type Builder struct {
	enableSeconds    bool
	enableCronLogger bool
	location         string
	jobs             []Job
	errs             []error
}

// NewBuilder 创建 Cron 构建器
func NewBuilder() *Builder {
	return &Builder{location: "UTC"}
}

// WithSeconds 启用秒级精度
func (b *Builder) WithSeconds() *Builder {
	b.enableSeconds = true
	return b
}

// WithLocation 设置时区
func (b *Builder) WithLocation(location string) *Builder {
	b.location = location
	return b
}

// EnableCronLogger 启用 cron 库的内部调度日志
func (b *Builder) EnableCronLogger() *Builder {
	b.enableCronLogger = true
	return b
}

// AddJob 添加任务。handler 的参数在每次执行时由容器注入，
// 可以没有返回值或只返回 error，例如：
//
//	b.AddJob("*/5 * * * *", "sync-data", func(svc *DataService) error {
//	    return svc.Sync()
//	})
func (b *Builder) AddJob(spec, name string, handler any) *Builder {
	if handler == nil || reflect.TypeOf(handler).Kind() != reflect.Func {
		b.errs = append(b.errs, fmt.Errorf("cron job '%s': handler must be a function, got %T", name, handler))
		return b
	}
	b.jobs = append(b.jobs, &injectedJob{funcJob: funcJob{name: name, spec: spec}, handler: handler})
	return b
}

// injectedJob 执行时通过容器调用 handler。
// 容器不是并发安全的，同一次 Configure 注册的任务共用 mu，串行执行。
type injectedJob struct {
	funcJob
	handler   any
	container *di.Container
	mu        *sync.Mutex
}

func (j *injectedJob) Run(context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return di.Call(j.container, j.handler)
}

// RegisterJob 以 Job 注册任务实现 T，T 可以带 di 标签字段
func RegisterJob[T Job](c *di.Container, opts ...di.Option) error {
	return di.Register[T](c, append(opts, di.As[Job]())...)
}

// Configure 注册调度器托管服务。调度器在第一次解析时收集所有 Job 绑定，
// 包括 options 中添加的任务与通过 RegisterJob 注册的任务。
func Configure(c *di.Container, options func(*Builder)) error {
	builder := NewBuilder()
	if options != nil {
		options(builder)
	}
	if len(builder.errs) > 0 {
		return fmt.Errorf("cron configuration errors: %v", builder.errs)
	}
	loc, err := time.LoadLocation(builder.location)
	if err != nil {
		return fmt.Errorf("cron location %q: %w", builder.location, err)
	}

	calls := &sync.Mutex{}
	for _, job := range builder.jobs {
		if j, ok := job.(*injectedJob); ok {
			j.container, j.mu = c, calls
		}
		if err := di.Register[Job](c, di.WithName(job.Name()), di.WithValue(job)); err != nil {
			return err
		}
	}

	logger := c.Logger().WithCategory("cron")
	return hosting.AddHostedService[*Scheduler](c, di.Provide(func(i *di.Injector) (*Scheduler, error) {
		jobs, err := di.ResolveAll[Job](i)
		if err != nil {
			return nil, err
		}
		s := newScheduler(logger, schedulerOptions{
			location:         loc,
			enableSeconds:    builder.enableSeconds,
			enableCronLogger: builder.enableCronLogger,
		})
		for _, job := range jobs {
			if err := s.addJob(job); err != nil {
				return nil, err
			}
		}
		return s, nil
	}))
}
