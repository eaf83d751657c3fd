package cron_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gocrud/inject/configure/cron"
	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/hosting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Counter struct {
	n atomic.Int32
}

// cleanupJob 以结构体形式注册的任务，依赖通过字段注入
type cleanupJob struct {
	Counter *Counter `di:""`
}

func (j *cleanupJob) Name() string { return "cleanup" }
func (j *cleanupJob) Spec() string { return "@every 1h" }
func (j *cleanupJob) Run(context.Context) error {
	j.Counter.n.Add(100)
	return nil
}

func TestSchedulerRunsInjectedJobs(t *testing.T) {
	counter := &Counter{}
	c := di.New()
	require.NoError(t, di.Register[*Counter](c, di.WithValue(counter)))
	require.NoError(t, cron.RegisterJob[*cleanupJob](c))
	require.NoError(t, cron.Configure(c, func(b *cron.Builder) {
		b.WithSeconds().AddJob("* * * * * *", "tick", func(c *Counter) {
			c.n.Add(1)
		})
	}))

	scheduler, err := di.Resolve[*cron.Scheduler](c)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tick", "cleanup"}, scheduler.Jobs())

	h := hosting.NewHost(c)
	_, err = h.Start(context.Background())
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return counter.n.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, h.Stop(ctx))
	assert.NoError(t, c.Close())
}

func TestConfigureRejectsBadJobs(t *testing.T) {
	err := cron.Configure(di.New(), func(b *cron.Builder) {
		b.AddJob("* * * * *", "bad", "not a function")
	})
	assert.Error(t, err)

	err = cron.Configure(di.New(), func(b *cron.Builder) {
		b.WithLocation("Nowhere/Invalid")
	})
	assert.Error(t, err)

	c := di.New()
	require.NoError(t, cron.Configure(c, func(b *cron.Builder) {
		b.AddJob("not a spec", "broken", func() {})
	}))
	_, err = di.Resolve[*cron.Scheduler](c)
	assert.ErrorContains(t, err, "failed to add cron job 'broken'")
}

func TestNewJob(t *testing.T) {
	ran := false
	job := cron.NewJob("once", "@daily", func(context.Context) error {
		ran = true
		return nil
	})
	assert.Equal(t, "once", job.Name())
	assert.Equal(t, "@daily", job.Spec())
	require.NoError(t, job.Run(context.Background()))
	assert.True(t, ran)
}

type Report struct {
	hits int
}

func TestInjectedJobsSerializeContainerAccess(t *testing.T) {
	builds := 0
	c := di.New()
	require.NoError(t, di.Register[*Report](c, di.WithFactory(func() *Report {
		builds++
		return &Report{}
	})))
	require.NoError(t, cron.Configure(c, func(b *cron.Builder) {
		b.AddJob("@every 1h", "first", func(r *Report) { r.hits++ })
		b.AddJob("@every 1h", "second", func(r *Report) { r.hits++ })
	}))

	jobs, err := di.ResolveAll[cron.Job](c)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		for _, job := range jobs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, job.Run(context.Background()))
			}()
		}
	}
	wg.Wait()

	r, err := di.Resolve[*Report](c)
	require.NoError(t, err)
	assert.Equal(t, 1, builds)
	assert.Equal(t, 16, r.hits)
}
