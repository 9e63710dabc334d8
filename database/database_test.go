package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gocrud/gitplugin/core"
	"github.com/gocrud/gitplugin/database"
	"github.com/gocrud/gitplugin/di"
	"github.com/gocrud/gitplugin/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Name string
}

type MockDBService struct {
	Master *gorm.DB `di:"master"`
	Slave  *gorm.DB `di:"slave,?"`
}

func newRuntime(t *testing.T, opts ...core.Option) *core.Runtime {
	t.Helper()
	rt := core.NewRuntime()
	require.NoError(t, rt.Apply(append([]core.Option{core.UseLogger(logging.NewNopLogger())}, opts...)...))
	return rt
}

func TestWithDatabase(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "master.db")
	rt := newRuntime(t, database.WithDatabase("master", sqlite.Open(dsn),
		database.WithAutoMigrate(&User{}),
		database.WithPool(1, 1, 0),
	))
	require.NoError(t, rt.Start(context.Background()))

	svc, err := di.Instantiate[*MockDBService](rt.Registry)
	require.NoError(t, err)
	require.NotNil(t, svc.Master)
	assert.Nil(t, svc.Slave)

	require.NoError(t, svc.Master.Create(&User{Name: "alice"}).Error)
	var count int64
	require.NoError(t, svc.Master.Model(&User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	factory := di.MustResolve[*database.DatabaseFactory](rt.Registry)
	assert.Equal(t, []string{"master"}, factory.Names())

	require.NoError(t, rt.Stop(context.Background()))
	assert.Empty(t, factory.Names())
}

func TestDefaultDatabaseIsUnnamed(t *testing.T) {
	rt := newRuntime(t, database.WithDatabase("default", sqlite.Open(filepath.Join(t.TempDir(), "d.db"))))
	require.NoError(t, rt.Start(context.Background()))
	defer rt.Stop(context.Background())

	db, err := di.Resolve[*gorm.DB](rt.Registry)
	require.NoError(t, err)
	assert.NotNil(t, db)
}

func TestWithDatabaseErrors(t *testing.T) {
	rt := core.NewRuntime()
	err := rt.Apply(core.UseLogger(logging.NewNopLogger()), database.WithDatabase("", nil))
	assert.ErrorContains(t, err, "database name is required")

	dsn := filepath.Join(t.TempDir(), "dup.db")
	rt = newRuntime(t, database.WithDatabase("main", sqlite.Open(dsn)))
	defer rt.Stop(context.Background())
	err = rt.Apply(database.WithDatabase("main", sqlite.Open(dsn)))
	assert.ErrorContains(t, err, "already registered")
}
