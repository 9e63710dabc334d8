package git

import (
	"context"

	"github.com/gocrud/gitplugin/di"
	"github.com/gocrud/gitplugin/logging"
)

// RefreshJobName 刷新任务在调度器中的名称
const RefreshJobName = "git-refresh"

// RefreshJob 定时刷新仓库状态，每次触发都是新实例
type RefreshJob struct {
	status *StatusService
	logger logging.Logger
}

func init() {
	di.Describe[*RefreshJob](di.Method("Inject", "status", "logger"))
}

// Inject 注入方法
func (j *RefreshJob) Inject(status *StatusService, logger logging.Logger) {
	j.status = status
	j.logger = logger.WithCategory("git")
}

// Run 实现 cron.Job
func (j *RefreshJob) Run(ctx context.Context) error {
	snap, err := j.status.Refresh(ctx)
	if err != nil {
		return err
	}
	j.logger.Debug("Refresh job finished", logging.Field{Key: "summary", Value: snap.Summary()})
	return nil
}
