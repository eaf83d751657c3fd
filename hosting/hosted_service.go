package hosting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
	"go.uber.org/multierr"
)

// HostedService 托管服务接口
// Host 在独立的 goroutine 中调用 Start，服务无需自己启动 goroutine
type HostedService interface {
	// Start 启动服务。该方法应阻塞执行，直到 context 被取消或发生错误。
	Start(ctx context.Context) error

	// Stop 执行优雅关闭逻辑，Start 的 context 会在所有 Stop 返回后取消。
	Stop(ctx context.Context) error
}

// AddHostedService 注册 T 并把它加入托管服务集合
func AddHostedService[T HostedService](c *di.Container, opts ...di.Option) error {
	return di.Register[T](c, append(opts, di.As[HostedService]())...)
}

// Host 运行容器中注册的全部托管服务
type Host struct {
	container *di.Container
	logger    logging.Logger

	mu       sync.Mutex
	services []HostedService
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewHost 创建托管主机
func NewHost(c *di.Container) *Host {
	return &Host{
		container: c,
		logger:    c.Logger().WithCategory("hosting"),
	}
}

// Start 解析全部 HostedService 绑定并按注册顺序启动。
// 返回的通道接收服务运行期间的错误，context 取消导致的退出不算错误。
func (h *Host) Start(ctx context.Context) (<-chan error, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		return nil, fmt.Errorf("hosting: host already started")
	}

	services, err := di.ResolveAll[HostedService](h.container)
	if err != nil {
		return nil, fmt.Errorf("hosting: resolve hosted services: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	h.services = services
	h.cancel = cancel

	errCh := make(chan error, len(services))
	h.logger.Info(fmt.Sprintf("Starting %d hosted services", len(services)))
	for i, svc := range services {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			err := svc.Start(runCtx)
			switch {
			case err == nil:
				h.logger.Debug(fmt.Sprintf("Hosted service %d completed", i+1))
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				h.logger.Debug(fmt.Sprintf("Hosted service %d stopped (context done)", i+1))
			default:
				h.logger.Error(fmt.Sprintf("Hosted service %d error", i+1),
					logging.Field{Key: "error", Value: err.Error()})
				errCh <- err
			}
		}()
	}
	return errCh, nil
}

// Stop 按启动的相反顺序停止服务，然后等待所有 Start 返回。
// ctx 到期时不再等待，返回 ctx.Err()。
func (h *Host) Stop(ctx context.Context) error {
	h.mu.Lock()
	services, cancel := h.services, h.cancel
	h.services, h.cancel = nil, nil
	h.mu.Unlock()
	if cancel == nil {
		return nil
	}

	h.logger.Info(fmt.Sprintf("Stopping %d hosted services", len(services)))
	var errs error
	for i := len(services) - 1; i >= 0; i-- {
		if err := services[i].Stop(ctx); err != nil {
			h.logger.Error(fmt.Sprintf("Failed to stop hosted service %d", i+1),
				logging.Field{Key: "error", Value: err.Error()})
			errs = multierr.Append(errs, err)
		}
	}
	cancel()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		h.logger.Info("All hosted services stopped")
	case <-ctx.Done():
		errs = multierr.Append(errs, ctx.Err())
	}
	return errs
}

// Run 启动全部服务，直到 ctx 取消或某个服务出错，然后在 stopTimeout 内停止服务并关闭容器
func (h *Host) Run(ctx context.Context, stopTimeout time.Duration) error {
	errCh, err := h.Start(ctx)
	if err != nil {
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return multierr.Combine(runErr, h.Stop(stopCtx), h.container.Close())
}
