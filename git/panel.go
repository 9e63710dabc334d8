package git

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gocrud/gitplugin/host"
)

// StatusPanel 显示仓库状态的宿主部件。
// 由宿主部件工厂分配，状态服务通过字段注入，窗口通过 Panel.Attach 注入。
type StatusPanel struct {
	host.Panel

	Status *StatusService `di:"status"`

	mu    sync.Mutex
	lines []string
}

// NewStatusPanel 分配函数，交给 host.WidgetFactory
func NewStatusPanel(id string) *StatusPanel {
	return &StatusPanel{Panel: host.NewPanel(id)}
}

// Render 按当前状态重绘面板并返回内容
func (p *StatusPanel) Render() []string {
	snap := p.Status.Snapshot()
	lines := []string{snap.Summary()}
	for _, f := range snap.Files {
		line := fmt.Sprintf("%s%s %s", f.Index, f.Worktree, f.Path)
		if f.OrigPath != "" {
			line += " <- " + f.OrigPath
		}
		lines = append(lines, line)
	}

	p.mu.Lock()
	p.lines = lines
	p.mu.Unlock()
	return lines
}

// String 最近一次渲染的内容
func (p *StatusPanel) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return strings.Join(p.lines, "\n")
}
