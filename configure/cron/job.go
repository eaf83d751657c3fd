package cron

import "context"

// Job 定时任务。以 Job 注册的全部绑定由调度器统一调度。
type Job interface {
	// Name 任务名称，用于日志
	Name() string
	// Spec cron 表达式，如 "0 */5 * * * *"（启用秒级精度时）或 "*/5 * * * *"
	Spec() string
	Run(ctx context.Context) error
}

// funcJob 由函数构成的任务
type funcJob struct {
	name string
	spec string
	run  func(ctx context.Context) error
}

func (j *funcJob) Name() string                  { return j.name }
func (j *funcJob) Spec() string                  { return j.spec }
func (j *funcJob) Run(ctx context.Context) error { return j.run(ctx) }

// NewJob 用函数创建任务
func NewJob(name, spec string, run func(ctx context.Context) error) Job {
	return &funcJob{name: name, spec: spec, run: run}
}
