// Package inject 组装容器、配置与托管服务，提供应用程序的统一入口。
//
//	err := inject.Run(
//		inject.WithConfiguration(cfg, "di"),
//		inject.Configure(func(c *di.Container) error {
//			return redis.Configure(c, func(b *redis.Builder) { b.AddFromConfig(cfg, "redis") })
//		}),
//	)
package inject

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gocrud/inject/config"
	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/hosting"
)

// DefaultStopTimeout 是优雅关闭的默认等待时间
const DefaultStopTimeout = 5 * time.Second

// Option 配置应用程序
type Option func(*App) error

// App 持有应用程序的容器与启动配置
type App struct {
	container   *di.Container
	lifecycle   *hosting.Lifecycle
	configures  []func(*di.Container) error
	stopTimeout time.Duration
}

// WithContainer 使用已创建的容器
func WithContainer(c *di.Container) Option {
	return func(a *App) error {
		a.container = c
		return nil
	}
}

// WithConfiguration 根据配置节 section 创建容器，并注册 cfg
func WithConfiguration(cfg config.Configuration, section string, opts ...di.ContainerOption) Option {
	return func(a *App) error {
		c, err := config.NewContainer(cfg, section, opts...)
		if err != nil {
			return err
		}
		a.container = c
		return nil
	}
}

// Configure 添加容器配置函数，按添加顺序在启动前执行
func Configure(fn func(*di.Container) error) Option {
	return func(a *App) error {
		a.configures = append(a.configures, fn)
		return nil
	}
}

// OnStart 注册启动钩子
func OnStart(fn func(context.Context) error) Option {
	return func(a *App) error {
		a.lifecycle.OnStart(fn)
		return nil
	}
}

// OnStop 注册停止钩子，钩子倒序执行
func OnStop(fn func(context.Context) error) Option {
	return func(a *App) error {
		a.lifecycle.OnStop(fn)
		return nil
	}
}

// WithStopTimeout 设置优雅关闭的等待时间
func WithStopTimeout(d time.Duration) Option {
	return func(a *App) error {
		if d > 0 {
			a.stopTimeout = d
		}
		return nil
	}
}

// New 应用全部选项并执行容器配置，返回可以运行的应用
func New(opts ...Option) (*App, error) {
	a := &App{
		lifecycle:   hosting.NewLifecycle(),
		stopTimeout: DefaultStopTimeout,
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	if a.container == nil {
		a.container = di.New()
	}

	// 生命周期钩子最先启动、最后停止
	if err := hosting.AddHostedService[*hosting.Lifecycle](a.container, di.WithValue(a.lifecycle)); err != nil {
		return nil, fmt.Errorf("inject: register lifecycle: %w", err)
	}
	for _, fn := range a.configures {
		if err := fn(a.container); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Container 返回应用的容器
func (a *App) Container() *di.Container {
	return a.container
}

// Run 运行全部托管服务，直到 ctx 结束或某个服务出错，然后关闭服务与容器
func (a *App) Run(ctx context.Context) error {
	return hosting.NewHost(a.container).Run(ctx, a.stopTimeout)
}

// Run 创建应用并运行，直到收到 SIGINT / SIGTERM
func Run(opts ...Option) error {
	a, err := New(opts...)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.Run(ctx)
}
