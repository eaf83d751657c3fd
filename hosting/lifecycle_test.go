package hosting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gocrud/inject/di"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleHooks(t *testing.T) {
	j := &journal{}
	l := NewLifecycle()
	l.OnStart(func(context.Context) error { j.add("start 1"); return nil })
	l.OnStart(func(context.Context) error { j.add("start 2"); return nil })
	l.OnStop(func(context.Context) error { j.add("stop 1"); return nil })
	l.OnStop(func(context.Context) error { j.add("stop 2"); return errors.New("stop 2 failed") })

	c := di.New()
	require.NoError(t, AddHostedService[*Lifecycle](c, di.WithValue(l)))

	h := NewHost(c)
	_, err := h.Start(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(j.list()) == 2 }, time.Second, 5*time.Millisecond)

	err = h.Stop(context.Background())
	assert.EqualError(t, err, "stop 2 failed")
	assert.Equal(t, []string{"start 1", "start 2", "stop 2", "stop 1"}, j.list())
}

func TestLifecycleStartFailure(t *testing.T) {
	l := NewLifecycle()
	l.OnStart(func(context.Context) error { return errors.New("bad start") })
	l.OnStart(func(context.Context) error {
		t.Error("later hooks must not run")
		return nil
	})

	assert.EqualError(t, l.Start(context.Background()), "bad start")
}
