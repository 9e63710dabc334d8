package git_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/gitplugin/core"
	"github.com/gocrud/gitplugin/cron"
	"github.com/gocrud/gitplugin/di"
	"github.com/gocrud/gitplugin/git"
	"github.com/gocrud/gitplugin/logging"
	"github.com/gocrud/gitplugin/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu     sync.Mutex
	branch string
	files  []git.FileStatus
	err    error
	calls  int
}

func (f *fakeRepo) Root() string { return "/fake" }

func (f *fakeRepo) CurrentBranch(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.branch, f.err
}

func (f *fakeRepo) Status(ctx context.Context) ([]git.FileStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.files, f.err
}

func (f *fakeRepo) set(branch string, files []git.FileStatus, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.branch, f.files, f.err = branch, files, err
}

func TestStatusServiceRefresh(t *testing.T) {
	repo := &fakeRepo{}
	repo.set("main", []git.FileStatus{
		{Path: "a.go", Index: "M", Worktree: " "},
		{Path: "b.go", Index: " ", Worktree: "M"},
		{Path: "c.go", Index: "?", Worktree: "?"},
	}, nil)
	svc := git.NewStatusService(repo, logging.NewNopLogger())

	assert.Equal(t, "not refreshed", svc.Snapshot().Summary())

	var notified git.Snapshot
	svc.OnChange(func(s git.Snapshot) { notified = s })

	snap, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "main: 1 staged, 1 changed, 1 untracked", snap.Summary())
	assert.Equal(t, "main", notified.Branch)
	assert.False(t, snap.Clean())

	repo.set("", nil, errors.New("disk gone"))
	_, err = svc.Refresh(context.Background())
	assert.ErrorContains(t, err, "disk gone")
	assert.Equal(t, "main", svc.Snapshot().Branch)
}

func newRuntime(t *testing.T, repo git.Repository, opts ...core.Option) *core.Runtime {
	t.Helper()
	rt := core.NewRuntime()
	require.NoError(t, rt.Apply(append([]core.Option{
		core.UseLogger(logging.NewNopLogger()),
		git.ModuleWith(repo, "@every 1h"),
	}, opts...)...))
	return rt
}

func TestModuleOpensWindowWithPanel(t *testing.T) {
	repo := &fakeRepo{}
	repo.set("feature", []git.FileStatus{{Path: "x.txt", Index: "?", Worktree: "?"}}, nil)
	rt := newRuntime(t, repo)

	require.NoError(t, rt.Start(context.Background()))
	defer rt.Stop(context.Background())

	child, ok := rt.Window(git.WindowID)
	require.True(t, ok)

	panel := di.MustResolve[*git.StatusPanel](child)
	assert.Equal(t, "widget-1", panel.WidgetID())
	require.NotNil(t, panel.Window())
	assert.Equal(t, git.WindowID, panel.Window().ID)

	lines := panel.Render()
	assert.Equal(t, []string{"feature: 0 staged, 0 changed, 1 untracked", "?? x.txt"}, lines)
	assert.Contains(t, panel.String(), "x.txt")
}

func TestRefreshJobRunsThroughScheduler(t *testing.T) {
	repo := &fakeRepo{}
	repo.set("main", nil, nil)
	rt := newRuntime(t, repo)
	require.NoError(t, rt.Start(context.Background()))
	defer rt.Stop(context.Background())

	scheduler := di.MustResolve[*cron.Scheduler](rt.Registry)
	repo.set("release", nil, nil)
	require.NoError(t, scheduler.RunNow(context.Background(), git.RefreshJobName))

	status := di.MustResolve[*git.StatusService](rt.Registry)
	assert.Equal(t, "release", status.Snapshot().Branch)
	assert.True(t, status.Snapshot().Clean())
}

func TestStartSurvivesFailingRepository(t *testing.T) {
	repo := &fakeRepo{}
	repo.set("", nil, errors.New("no git"))
	rt := newRuntime(t, repo)

	require.NoError(t, rt.Start(context.Background()))
	require.NoError(t, rt.Stop(context.Background()))
}

func TestStatusEndpoints(t *testing.T) {
	repo := &fakeRepo{}
	repo.set("main", nil, nil)
	rt := newRuntime(t, repo, web.New(web.WithMode(gin.TestMode)))
	srv := di.MustResolve[*web.Server](rt.Registry)

	repo.set("develop", []git.FileStatus{{Path: "m.go", Index: "M", Worktree: " "}}, nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/git/refresh", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/git/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var snap git.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, "develop", snap.Branch)
	require.Len(t, snap.Files, 1)
	assert.Equal(t, "m.go", snap.Files[0].Path)

	repo.set("", nil, errors.New("locked"))
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/git/refresh", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestCommandRepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git executable not available")
	}
	dir := t.TempDir()
	cmd := exec.Command("git", "init", dir)
	require.NoError(t, cmd.Run())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("hi"), 0o600))

	repo, err := git.NewCommandRepository(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	branch, err := repo.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, branch)

	files, err := repo.Status(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "new.txt", files[0].Path)
	assert.True(t, files[0].Untracked())

	notRepo, err := git.NewCommandRepository(t.TempDir())
	require.NoError(t, err)
	_, err = notRepo.Status(ctx)
	assert.ErrorIs(t, err, git.ErrNotRepository)
}
