package settings_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gocrud/gitplugin/core"
	"github.com/gocrud/gitplugin/database"
	"github.com/gocrud/gitplugin/di"
	"github.com/gocrud/gitplugin/logging"
	"github.com/gocrud/gitplugin/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func exerciseStore(t *testing.T, store settings.Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "theme")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "theme", "dark"))
	require.NoError(t, store.Set(ctx, "font", "mono"))
	require.NoError(t, store.Set(ctx, "theme", "light"))

	v, ok, err := store.Get(ctx, "theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "light", v)

	require.NoError(t, store.Delete(ctx, "font"))
	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"theme": "light"}, all)

	require.NoError(t, store.Delete(ctx, "missing"))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, settings.NewMemoryStore())
}

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "settings.db")), &gorm.Config{})
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestGormStore(t *testing.T) {
	store, err := settings.NewGormStore(openSQLite(t))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	exerciseStore(t, store)
}

func newRuntime(t *testing.T, opts ...core.Option) *core.Runtime {
	t.Helper()
	rt := core.NewRuntime()
	require.NoError(t, rt.Apply(append([]core.Option{core.UseLogger(logging.NewNopLogger())}, opts...)...))
	return rt
}

func TestModuleWithoutDSNUsesMemory(t *testing.T) {
	rt := newRuntime(t, settings.Module(""))

	store := di.MustResolve[settings.Store](rt.Registry)
	_, ok := store.(*settings.MemoryStore)
	assert.True(t, ok)
}

func TestModuleWithSQLite(t *testing.T) {
	openSQLite(t)
	dsn := filepath.Join(t.TempDir(), "plugin.db")
	rt := newRuntime(t, settings.Module(dsn))

	require.NoError(t, rt.Start(context.Background()))

	store := di.MustResolve[settings.Store](rt.Registry)
	_, ok := store.(*settings.GormStore)
	require.True(t, ok)
	require.NoError(t, store.Set(context.Background(), "k", "v"))

	factory := di.MustResolve[*database.DatabaseFactory](rt.Registry)
	assert.Equal(t, []string{settings.DatabaseName}, factory.Names())

	require.NoError(t, rt.Stop(context.Background()))
	assert.Empty(t, factory.Names())

	// 数据在重新打开后仍然存在
	rt = newRuntime(t, settings.Module(dsn))
	require.NoError(t, rt.Start(context.Background()))
	store = di.MustResolve[settings.Store](rt.Registry)
	v, ok, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
	require.NoError(t, rt.Stop(context.Background()))
}
