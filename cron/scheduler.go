package cron

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/gocrud/gitplugin/di"
	"github.com/gocrud/gitplugin/host"
	"github.com/gocrud/gitplugin/logging"
	"github.com/robfig/cron/v3"
)

// ErrUnknownJob 按名称找不到任务
var ErrUnknownJob = errors.New("cron: unknown job")

// Scheduler 定时任务托管服务
type Scheduler struct {
	cron     *cron.Cron
	registry *di.Registry
	main     *host.MainThread
	logger   logging.Logger

	mu   sync.RWMutex
	jobs map[string]*scheduledJob
	ctx  context.Context
}

type scheduledJob struct {
	def   JobDefinition
	entry cron.EntryID
}

// EntryInfo 任务的调度快照
type EntryInfo struct {
	Name string    `json:"name"`
	Spec string    `json:"spec"`
	Type string    `json:"type"`
	Next time.Time `json:"next"`
	Prev time.Time `json:"prev"`
}

func init() {
	di.Describe[*Scheduler](di.Constructor(NewScheduler, "registry", "logger", "main", "options"))
}

// NewScheduler 创建调度器并登记 options 中的全部任务，表达式非法时返回错误
func NewScheduler(registry *di.Registry, logger logging.Logger, main *host.MainThread, options *Options) (*Scheduler, error) {
	logger = logger.WithCategory("cron")

	location, err := time.LoadLocation(options.Location)
	if err != nil {
		return nil, fmt.Errorf("cron: invalid location %q: %w", options.Location, err)
	}

	adapter := newCronLogger(logger)
	cronOpts := []cron.Option{
		cron.WithLocation(location),
		cron.WithChain(cron.Recover(adapter)),
	}
	if options.EnableCronLogger {
		cronOpts = append(cronOpts, cron.WithLogger(adapter))
	}
	if options.Seconds {
		cronOpts = append(cronOpts, cron.WithSeconds())
	}

	s := &Scheduler{
		cron:     cron.New(cronOpts...),
		registry: registry,
		main:     main,
		logger:   logger,
		jobs:     make(map[string]*scheduledJob),
		ctx:      context.Background(),
	}
	for _, def := range options.Jobs {
		if err := s.AddJob(def.Spec, def.Name, def.Type); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Name 服务名称
func (s *Scheduler) Name() string {
	return "cron"
}

// AddJob 添加定时任务
// spec: cron 表达式，如 "0 */5 * * * *" (启用秒级时每5分钟) 或 "@every 30s"
// jobType: 实现 Job 的类型，每次触发都会构造新实例
func (s *Scheduler) AddJob(spec, name string, jobType reflect.Type) error {
	if jobType == nil || !jobType.Implements(jobInterface) {
		return fmt.Errorf("cron: job '%s': %v does not implement cron.Job", name, jobType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("cron: job '%s' already registered", name)
	}
	def := JobDefinition{Spec: spec, Name: name, Type: jobType}
	entry, err := s.cron.AddFunc(spec, func() {
		s.mu.RLock()
		ctx := s.ctx
		s.mu.RUnlock()
		if err := s.execute(ctx, def); err != nil {
			s.logger.Error(fmt.Sprintf("Cron job '%s' failed", name), logging.Field{Key: "error", Value: err})
		}
	})
	if err != nil {
		return fmt.Errorf("cron: failed to add job '%s': %w", name, err)
	}

	s.jobs[name] = &scheduledJob{def: def, entry: entry}
	s.logger.Info(fmt.Sprintf("Cron job '%s' registered with spec '%s'", name, spec))
	return nil
}

// RemoveJob 移除定时任务
func (s *Scheduler) RemoveJob(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[name]
	if !exists {
		return false
	}
	s.cron.Remove(job.entry)
	delete(s.jobs, name)
	s.logger.Info(fmt.Sprintf("Cron job '%s' removed", name))
	return true
}

// RunNow 立即执行一次任务，任务中的 panic 转为错误返回
func (s *Scheduler) RunNow(ctx context.Context, name string) (err error) {
	s.mu.RLock()
	job, exists := s.jobs[name]
	s.mu.RUnlock()
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cron: job '%s' panicked: %v", name, r)
		}
	}()
	return s.execute(ctx, job.def)
}

// Entries 返回按名称排序的任务快照
func (s *Scheduler) Entries() []EntryInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]EntryInfo, 0, len(s.jobs))
	for name, job := range s.jobs {
		e := s.cron.Entry(job.entry)
		out = append(out, EntryInfo{
			Name: name,
			Spec: job.def.Spec,
			Type: job.def.Type.String(),
			Next: e.Next,
			Prev: e.Prev,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// execute 在主线程上构造任务实例，然后在当前 goroutine 中运行
func (s *Scheduler) execute(ctx context.Context, def JobDefinition) error {
	var job Job
	err := s.main.Do(func() error {
		inst, err := s.registry.CreateInstance(def.Type)
		if err != nil {
			return err
		}
		j, ok := inst.(Job)
		if !ok {
			return fmt.Errorf("cron: %T does not implement cron.Job", inst)
		}
		job = j
		return nil
	})
	if err != nil {
		return fmt.Errorf("cron: creating job '%s': %w", def.Name, err)
	}

	start := time.Now()
	s.logger.Debug(fmt.Sprintf("Cron job '%s' started", def.Name))
	if err := job.Run(ctx); err != nil {
		return err
	}
	s.logger.Debug(fmt.Sprintf("Cron job '%s' completed", def.Name),
		logging.Field{Key: "elapsed", Value: time.Since(start).String()})
	return nil
}

// Start 实现 HostedService.Start，阻塞直到 ctx 取消
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	count := len(s.jobs)
	s.mu.Unlock()

	s.logger.Info(fmt.Sprintf("Scheduler starting with %d jobs", count))
	s.cron.Start()

	<-ctx.Done()
	return ctx.Err()
}

// Stop 实现 HostedService.Stop，等待正在运行的任务结束
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.Info("Scheduler stopping")
	stopCtx := s.cron.Stop()

	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
