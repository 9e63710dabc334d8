// Package git 提供插件的 Git 协作者：仓库访问、状态缓存、刷新任务与状态面板。
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNotRepository 路径不在 Git 工作区内
var ErrNotRepository = errors.New("git: not a repository")

// FileStatus 单个文件的状态，Index 与 Worktree 为 porcelain 格式的状态字符
type FileStatus struct {
	Path     string `json:"path"`
	OrigPath string `json:"origPath,omitempty"`
	Index    string `json:"index"`
	Worktree string `json:"worktree"`
}

// Untracked 是否为未跟踪文件
func (f FileStatus) Untracked() bool {
	return f.Index == "?" && f.Worktree == "?"
}

// Staged 是否有已暂存的改动
func (f FileStatus) Staged() bool {
	return f.Index != " " && f.Index != "?" && f.Index != "!"
}

// Repository 仓库访问接口
type Repository interface {
	Root() string
	CurrentBranch(ctx context.Context) (string, error)
	Status(ctx context.Context) ([]FileStatus, error)
}

// CommandRepository 通过 git 可执行文件访问仓库
type CommandRepository struct {
	root string
	git  string
}

// NewCommandRepository 创建仓库访问器，path 转为绝对路径，不检查是否为仓库
func NewCommandRepository(path string) (*CommandRepository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("git: resolving %s: %w", path, err)
	}
	return &CommandRepository{root: abs, git: "git"}, nil
}

// Root 仓库路径
func (r *CommandRepository) Root() string {
	return r.root
}

// CurrentBranch 返回当前分支名，分离头指针时返回短提交号
func (r *CommandRepository) CurrentBranch(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "symbolic-ref", "--short", "-q", "HEAD")
	if err == nil {
		return strings.TrimSpace(string(out)), nil
	}
	if errors.Is(err, ErrNotRepository) {
		return "", err
	}
	out, err = r.run(ctx, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Status 返回工作区状态
func (r *CommandRepository) Status(ctx context.Context) ([]FileStatus, error) {
	out, err := r.run(ctx, "status", "--porcelain=v1", "-z", "--untracked-files=all")
	if err != nil {
		return nil, err
	}
	return parsePorcelain(out)
}

func (r *CommandRepository) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.git, append([]string{"-C", r.root}, args...)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if strings.Contains(msg, "not a git repository") {
			return nil, fmt.Errorf("%w: %s", ErrNotRepository, r.root)
		}
		if msg != "" {
			return nil, fmt.Errorf("git %s: %w: %s", args[0], err, msg)
		}
		return nil, fmt.Errorf("git %s: %w", args[0], err)
	}
	return out, nil
}

// parsePorcelain 解析 `git status --porcelain=v1 -z` 的输出。
// 重命名与复制条目后跟一个原路径字段。
func parsePorcelain(out []byte) ([]FileStatus, error) {
	fields := strings.Split(string(out), "\x00")
	files := make([]FileStatus, 0, len(fields))
	for i := 0; i < len(fields); i++ {
		entry := fields[i]
		if entry == "" {
			continue
		}
		if len(entry) < 4 || entry[2] != ' ' {
			return nil, fmt.Errorf("git: malformed status entry %q", entry)
		}
		fs := FileStatus{
			Index:    entry[0:1],
			Worktree: entry[1:2],
			Path:     entry[3:],
		}
		if fs.Index == "R" || fs.Index == "C" {
			if i+1 >= len(fields) || fields[i+1] == "" {
				return nil, fmt.Errorf("git: missing source path for %q", entry)
			}
			i++
			fs.OrigPath = fields[i]
		}
		files = append(files, fs)
	}
	return files, nil
}
