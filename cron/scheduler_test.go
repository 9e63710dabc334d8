package cron_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gocrud/gitplugin/core"
	"github.com/gocrud/gitplugin/cron"
	"github.com/gocrud/gitplugin/di"
	"github.com/gocrud/gitplugin/host"
	"github.com/gocrud/gitplugin/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	runs      atomic.Int32
	instances atomic.Int32
}

type countingJob struct {
	counter *counter
}

func init() {
	di.Describe[*countingJob](di.Method("Inject", "counter"))
}

func (j *countingJob) Inject(c *counter) {
	j.counter = c
	c.instances.Add(1)
}

func (j *countingJob) Run(ctx context.Context) error {
	j.counter.runs.Add(1)
	return nil
}

type failingJob struct{}

func (failingJob) Run(ctx context.Context) error { return errors.New("job failed") }

type panickingJob struct{}

func (*panickingJob) Run(ctx context.Context) error { panic("boom") }

type notAJob struct{}

func newScheduler(t *testing.T, opts ...cron.Option) (*cron.Scheduler, *di.Registry, *counter) {
	t.Helper()
	r := di.NewRegistry(di.WithLogger(logging.NewNopLogger()))
	c := &counter{}
	di.BindInstance(r, c)

	options := &cron.Options{Location: "UTC", Seconds: true}
	for _, opt := range opts {
		opt(options)
	}
	s, err := cron.NewScheduler(r, logging.NewNopLogger(), host.NewMainThread(), options)
	require.NoError(t, err)
	return s, r, c
}

func TestRunNowBuildsFreshInstances(t *testing.T) {
	s, _, c := newScheduler(t, cron.AddJobOf[*countingJob]("@every 1h", "count"))

	require.NoError(t, s.RunNow(context.Background(), "count"))
	require.NoError(t, s.RunNow(context.Background(), "count"))

	assert.Equal(t, int32(2), c.runs.Load())
	assert.Equal(t, int32(2), c.instances.Load())
}

func TestRunNowErrors(t *testing.T) {
	s, _, _ := newScheduler(t,
		cron.AddJobOf[failingJob]("@every 1h", "fail"),
		cron.AddJobOf[*panickingJob]("@every 1h", "panic"),
	)

	assert.EqualError(t, s.RunNow(context.Background(), "fail"), "job failed")
	assert.ErrorContains(t, s.RunNow(context.Background(), "panic"), "panicked")
	assert.ErrorIs(t, s.RunNow(context.Background(), "missing"), cron.ErrUnknownJob)
}

func TestNewSchedulerRejectsBadDefinitions(t *testing.T) {
	r := di.NewRegistry()
	logger := logging.NewNopLogger()

	_, err := cron.NewScheduler(r, logger, host.NewMainThread(), &cron.Options{
		Location: "UTC",
		Jobs:     []cron.JobDefinition{{Spec: "not a spec", Name: "bad", Type: di.TypeOf[*countingJob]()}},
	})
	assert.Error(t, err)

	_, err = cron.NewScheduler(r, logger, host.NewMainThread(), &cron.Options{
		Location: "UTC",
		Jobs:     []cron.JobDefinition{{Spec: "@every 1h", Name: "bad", Type: di.TypeOf[*notAJob]()}},
	})
	assert.Error(t, err)

	_, err = cron.NewScheduler(r, logger, host.NewMainThread(), &cron.Options{Location: "Nowhere/City"})
	assert.Error(t, err)
}

func TestAddAndRemoveJob(t *testing.T) {
	s, _, _ := newScheduler(t)

	require.NoError(t, s.AddJob("0 */5 * * * *", "five", di.TypeOf[*countingJob]()))
	assert.Error(t, s.AddJob("@every 1m", "five", di.TypeOf[*countingJob]()))

	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "five", entries[0].Name)
	assert.Equal(t, "0 */5 * * * *", entries[0].Spec)

	assert.True(t, s.RemoveJob("five"))
	assert.False(t, s.RemoveJob("five"))
	assert.Empty(t, s.Entries())
}

func TestSchedulerRunsJobsUntilStopped(t *testing.T) {
	s, _, c := newScheduler(t, cron.AddJobOf[*countingJob]("* * * * * *", "tick"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	assert.Eventually(t, func() bool { return c.runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	require.NoError(t, s.Stop(context.Background()))
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestNewRegistersHostedScheduler(t *testing.T) {
	c := &counter{}
	logger, _ := logging.NewMemoryLogger("test")
	rt := core.NewRuntime()
	require.NoError(t, rt.Apply(
		core.UseLogger(logger),
		core.Instance(c),
		cron.New(cron.WithSeconds(), cron.WithLocation("UTC")),
		cron.New(cron.AddJobOf[*countingJob]("* * * * * *", "tick")),
	))

	options := core.GetFeature[*cron.Options](rt)
	require.NotNil(t, options)
	assert.True(t, options.Seconds)
	assert.Len(t, options.Jobs, 1)

	require.NoError(t, rt.Start(context.Background()))
	assert.Eventually(t, func() bool { return c.runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	scheduler := di.MustResolve[*cron.Scheduler](rt.Registry)
	assert.Len(t, scheduler.Entries(), 1)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, rt.Stop(ctx))
}
