package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gocrud/inject/logging"
	"github.com/robfig/cron/v3"
)

// Scheduler Cron 定时任务托管服务
type Scheduler struct {
	cron   *cron.Cron
	logger logging.Logger
	mu     sync.RWMutex
	jobs   map[string]cron.EntryID // 任务名称到任务ID的映射
	ctx    context.Context
	cancel context.CancelFunc
}

type schedulerOptions struct {
	location         *time.Location
	enableSeconds    bool
	enableCronLogger bool
}

func newScheduler(logger logging.Logger, opts schedulerOptions) *Scheduler {
	cronOpts := []cron.Option{cron.WithLocation(opts.location)}
	// 只在启用时添加 cron 库的日志记录器
	if opts.enableCronLogger {
		cronOpts = append(cronOpts, cron.WithLogger(newCronLogger(logger)))
	}
	cronOpts = append(cronOpts, cron.WithChain(cron.Recover(newCronLogger(logger))))
	if opts.enableSeconds {
		cronOpts = append(cronOpts, cron.WithSeconds())
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cronOpts...),
		logger: logger,
		jobs:   make(map[string]cron.EntryID),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Scheduler) addJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("cron job '%s' already scheduled", name)
	}
	entryID, err := s.cron.AddFunc(job.Spec(), func() {
		s.logger.Debug(fmt.Sprintf("Cron job '%s' started", name))
		if err := job.Run(s.ctx); err != nil {
			s.logger.Error(fmt.Sprintf("Cron job '%s' failed", name),
				logging.Field{Key: "error", Value: err.Error()})
			return
		}
		s.logger.Debug(fmt.Sprintf("Cron job '%s' completed", name))
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job '%s': %w", name, err)
	}
	s.jobs[name] = entryID
	s.logger.Info(fmt.Sprintf("Cron job '%s' registered with spec '%s'", name, job.Spec()))
	return nil
}

// Jobs 返回已调度的任务名称
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}

// Start 启动调度并阻塞到 ctx 取消
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info(fmt.Sprintf("Scheduler starting with %d jobs", len(s.Jobs())))
	s.cron.Start()
	<-ctx.Done()
	return nil
}

// Stop 停止调度，等待正在执行的任务完成
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.Info("Scheduler stopping")
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		s.logger.Info("Scheduler stopped gracefully")
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timeout, forcing shutdown")
	}
	s.cancel()
	return nil
}

// Close 释放调度器，由容器关闭时调用
func (s *Scheduler) Close() error {
	s.cron.Stop()
	s.cancel()
	return nil
}

// cronLogger 把 logging.Logger 适配到 cron 的日志接口
type cronLogger struct {
	logger logging.Logger
}

func newCronLogger(logger logging.Logger) cron.Logger {
	return &cronLogger{logger: logger}
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, convertToFields(keysAndValues)...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := convertToFields(keysAndValues)
	fields = append(fields, logging.Field{Key: "error", Value: err.Error()})
	l.logger.Error(msg, fields...)
}

func convertToFields(keysAndValues []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, logging.Field{Key: fmt.Sprintf("%v", keysAndValues[i]), Value: keysAndValues[i+1]})
	}
	return fields
}
