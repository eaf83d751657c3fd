package hosting

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gocrud/inject/di"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, s)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type blockingService struct {
	name    string
	journal *journal
	started chan struct{}
}

func newBlockingService(name string, j *journal) *blockingService {
	return &blockingService{name: name, journal: j, started: make(chan struct{})}
}

func (s *blockingService) Start(ctx context.Context) error {
	close(s.started)
	<-ctx.Done()
	return ctx.Err()
}

func (s *blockingService) Stop(context.Context) error {
	s.journal.add("stop " + s.name)
	return nil
}

type failingService struct{}

func (failingService) Start(context.Context) error { return errors.New("boom") }
func (failingService) Stop(context.Context) error  { return errors.New("stop failed") }

func TestHostStartsAndStopsInReverse(t *testing.T) {
	j := &journal{}
	a, b := newBlockingService("a", j), newBlockingService("b", j)

	c := di.New()
	require.NoError(t, AddHostedService[*blockingService](c, di.WithName("a"), di.WithValue(a)))
	require.NoError(t, AddHostedService[*blockingService](c, di.WithName("b"), di.WithValue(b)))

	h := NewHost(c)
	errCh, err := h.Start(context.Background())
	require.NoError(t, err)
	<-a.started
	<-b.started

	_, err = h.Start(context.Background())
	assert.Error(t, err, "second start is rejected")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, h.Stop(ctx))
	assert.Equal(t, []string{"stop b", "stop a"}, j.list())
	assert.Empty(t, errCh)

	// 重复 Stop 无操作
	assert.NoError(t, h.Stop(ctx))
}

func TestHostReportsServiceErrors(t *testing.T) {
	c := di.New()
	require.NoError(t, AddHostedService[failingService](c, di.WithValue(failingService{})))

	h := NewHost(c)
	errCh, err := h.Start(context.Background())
	require.NoError(t, err)
	assert.EqualError(t, <-errCh, "boom")

	err = h.Stop(context.Background())
	assert.EqualError(t, err, "stop failed")
}

func TestHostRunClosesContainer(t *testing.T) {
	j := &journal{}
	svc := newBlockingService("only", j)
	c := di.New()
	require.NoError(t, AddHostedService[*blockingService](c, di.WithValue(svc)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewHost(c).Run(ctx, time.Second) }()

	<-svc.started
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, []string{"stop only"}, j.list())

	_, err := di.Resolve[*blockingService](c)
	assert.ErrorIs(t, err, di.ErrClosed)
}

func TestHostWithoutServices(t *testing.T) {
	h := NewHost(di.New())
	_, err := h.Start(context.Background())
	require.NoError(t, err)
	assert.NoError(t, h.Stop(context.Background()))
}
