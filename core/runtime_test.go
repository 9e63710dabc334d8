package core_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gocrud/gitplugin/core"
	"github.com/gocrud/gitplugin/di"
	"github.com/gocrud/gitplugin/host"
	"github.com/gocrud/gitplugin/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingService struct {
	started atomic.Bool
	stopped atomic.Bool
}

func (s *pingService) Start(ctx context.Context) error {
	s.started.Store(true)
	<-ctx.Done()
	return ctx.Err()
}

func (s *pingService) Stop(ctx context.Context) error {
	s.stopped.Store(true)
	return nil
}

type closer struct {
	closed bool
}

func (c *closer) Dispose() { c.closed = true }

func newRuntime(t *testing.T, opts ...core.Option) (*core.Runtime, *logging.MemoryLoggerProvider) {
	t.Helper()
	logger, logs := logging.NewMemoryLogger("test")
	rt := core.NewRuntime()
	require.NoError(t, rt.Apply(append([]core.Option{core.UseLogger(logger)}, opts...)...))
	return rt, logs
}

func TestLifecycleOrder(t *testing.T) {
	var calls []string
	lc := core.NewLifecycle()
	lc.OnStart(func(context.Context) error { calls = append(calls, "start-1"); return nil })
	lc.OnStart(func(context.Context) error { calls = append(calls, "start-2"); return nil })
	lc.OnStop(func(context.Context) error { calls = append(calls, "stop-1"); return errors.New("a") })
	lc.OnStop(func(context.Context) error { calls = append(calls, "stop-2"); return errors.New("b") })

	require.NoError(t, lc.Start(context.Background()))
	err := lc.Stop(context.Background())

	assert.Equal(t, []string{"start-1", "start-2", "stop-2", "stop-1"}, calls)
	assert.ErrorContains(t, err, "a")
	assert.ErrorContains(t, err, "b")
}

func TestLifecycleStartStopsAtFirstError(t *testing.T) {
	ran := false
	lc := core.NewLifecycle()
	lc.OnStart(func(context.Context) error { return errors.New("boom") })
	lc.OnStart(func(context.Context) error { ran = true; return nil })

	assert.EqualError(t, lc.Start(context.Background()), "boom")
	assert.False(t, ran)
}

func TestLifecycleRecoversPanicsAndStopsOnce(t *testing.T) {
	stops := 0
	lc := core.NewLifecycle()
	lc.OnStart(func(context.Context) error { panic("bad hook") })
	lc.OnStop(func(context.Context) error { stops++; return nil })

	assert.ErrorContains(t, lc.Start(context.Background()), "bad hook")
	require.NoError(t, lc.Stop(context.Background()))
	require.NoError(t, lc.Stop(context.Background()))
	assert.Equal(t, 1, stops)
}

func TestRuntimeBindsCoreServices(t *testing.T) {
	rt, _ := newRuntime(t, core.UseEnvironment("production"))

	assert.Same(t, rt, di.MustResolve[*core.Runtime](rt.Registry))
	assert.Same(t, rt.MainThread, di.MustResolve[*host.MainThread](rt.Registry))
	assert.Same(t, rt.Logger, di.MustResolve[logging.Logger](rt.Registry))

	env := di.MustResolve[core.Environment](rt.Registry)
	assert.Equal(t, "production", env.Name())
	assert.True(t, env.IsProduction())
}

func TestRuntimeRunsHostedServices(t *testing.T) {
	svc := &pingService{}
	rt, _ := newRuntime(t,
		core.Instance(svc),
		core.HostedService[*pingService](),
	)

	require.NoError(t, rt.Start(context.Background()))
	assert.Eventually(t, svc.started.Load, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rt.Stop(ctx))

	assert.True(t, svc.stopped.Load())
	assert.True(t, rt.Registry.Disposed())
}

func TestRuntimeShutsDownWhenWorkerFails(t *testing.T) {
	rt, logs := newRuntime(t, core.WithWorker("failing", func(ctx context.Context) error {
		return errors.New("worker crashed")
	}))

	require.NoError(t, rt.Start(context.Background()))

	select {
	case <-rt.Done():
	case <-time.After(time.Second):
		t.Fatal("runtime did not request shutdown")
	}
	assert.NotEmpty(t, logs.Filter(logging.LogLevelError))
	require.NoError(t, rt.Stop(context.Background()))
}

func TestRuntimeStartFailsOnEagerError(t *testing.T) {
	rt, _ := newRuntime(t, core.Install(func(r *di.Registry) {
		di.Bind[*closer](r).FromMethod(func(*di.InjectContext) (any, error) {
			return nil, errors.New("no resource")
		}).NonLazy()
	}))

	err := rt.Start(context.Background())
	assert.ErrorContains(t, err, "no resource")
}

func TestOpenWindowCreatesChildRegistry(t *testing.T) {
	rt, _ := newRuntime(t)

	child, err := rt.OpenWindow("main", "Main", func(r *di.Registry) {
		di.Bind[*closer](r)
	})
	require.NoError(t, err)

	win := di.MustResolve[*host.Window](child)
	assert.Equal(t, "main", win.ID)
	assert.Equal(t, "Main", win.Title)
	assert.Same(t, rt, di.MustResolve[*core.Runtime](child))

	got, ok := rt.Window("main")
	require.True(t, ok)
	assert.Same(t, child, got)
	assert.Equal(t, []string{"main"}, rt.Windows())

	_, err = rt.OpenWindow("main", "again")
	assert.Error(t, err)
}

func TestCloseWindowDisposesChild(t *testing.T) {
	rt, _ := newRuntime(t)
	child, err := rt.OpenWindow("w1", "One", func(r *di.Registry) {
		di.Bind[*closer](r)
	})
	require.NoError(t, err)
	c := di.MustResolve[*closer](child)

	require.NoError(t, rt.CloseWindow("w1"))

	assert.True(t, c.closed)
	assert.True(t, child.Disposed())
	assert.False(t, rt.Registry.Disposed())
	assert.Empty(t, rt.Windows())
	assert.Error(t, rt.CloseWindow("w1"))
}

func TestStopClosesOpenWindows(t *testing.T) {
	var stopped bool
	rt, _ := newRuntime(t,
		core.WithWindow("w1", "One", func(r *di.Registry) { di.Bind[*closer](r).NonLazy() }),
		core.OnStop(func(context.Context) error { stopped = true; return nil }),
	)
	require.NoError(t, rt.Start(context.Background()))

	child, ok := rt.Window("w1")
	require.True(t, ok)
	c := di.MustResolve[*closer](child)

	require.NoError(t, rt.Stop(context.Background()))
	assert.True(t, stopped)
	assert.True(t, c.closed)
	assert.True(t, child.Disposed())
}

func TestEnsureFeatureCreatesOnce(t *testing.T) {
	type counter struct{ n int }
	rt := core.NewRuntime()

	first, created := core.EnsureFeature(rt, func() *counter { return &counter{} })
	assert.True(t, created)
	first.n++

	second, created := core.EnsureFeature(rt, func() *counter { return &counter{} })
	assert.False(t, created)
	assert.Same(t, first, second)
	assert.Same(t, first, core.GetFeature[*counter](rt))
}

func TestWithHostedServiceRejectsNonService(t *testing.T) {
	rt := core.NewRuntime()
	err := rt.Apply(core.WithHostedService(di.TypeOf[*closer]()))
	assert.Error(t, err)
}
