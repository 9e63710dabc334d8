package git

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gocrud/gitplugin/di"
	"github.com/gocrud/gitplugin/logging"
)

// Snapshot 一次状态刷新的结果
type Snapshot struct {
	Root      string       `json:"root"`
	Branch    string       `json:"branch"`
	Files     []FileStatus `json:"files"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Clean 工作区是否干净
func (s Snapshot) Clean() bool {
	return len(s.Files) == 0
}

// Summary 单行摘要
func (s Snapshot) Summary() string {
	if s.UpdatedAt.IsZero() {
		return "not refreshed"
	}
	var staged, changed, untracked int
	for _, f := range s.Files {
		switch {
		case f.Untracked():
			untracked++
		case f.Staged():
			staged++
		default:
			changed++
		}
	}
	return fmt.Sprintf("%s: %d staged, %d changed, %d untracked", s.Branch, staged, changed, untracked)
}

// StatusService 缓存最近一次的仓库状态，可在任意 goroutine 读取
type StatusService struct {
	repo   Repository
	logger logging.Logger

	mu       sync.RWMutex
	snapshot Snapshot
	onChange []func(Snapshot)
}

func init() {
	di.Describe[*StatusService](di.Constructor(NewStatusService, "repository", "logger"))
}

// NewStatusService 创建状态服务，不会立即访问仓库
func NewStatusService(repo Repository, logger logging.Logger) *StatusService {
	return &StatusService{
		repo:     repo,
		logger:   logger.WithCategory("git"),
		snapshot: Snapshot{Root: repo.Root()},
	}
}

// Snapshot 返回最近一次的状态
func (s *StatusService) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.snapshot
	snap.Files = append([]FileStatus(nil), snap.Files...)
	return snap
}

// OnChange 注册刷新回调，回调在刷新的 goroutine 中执行
func (s *StatusService) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Refresh 读取分支与状态并替换缓存，失败时保留旧状态
func (s *StatusService) Refresh(ctx context.Context) (Snapshot, error) {
	branch, err := s.repo.CurrentBranch(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("git: reading branch: %w", err)
	}
	files, err := s.repo.Status(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("git: reading status: %w", err)
	}

	snap := Snapshot{
		Root:      s.repo.Root(),
		Branch:    branch,
		Files:     files,
		UpdatedAt: time.Now(),
	}

	s.mu.Lock()
	s.snapshot = snap
	callbacks := append([]func(Snapshot){}, s.onChange...)
	s.mu.Unlock()

	s.logger.Debug("Status refreshed",
		logging.Field{Key: "branch", Value: branch},
		logging.Field{Key: "files", Value: len(files)})
	for _, fn := range callbacks {
		fn(snap)
	}
	return snap, nil
}
