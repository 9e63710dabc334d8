package settings

import (
	"github.com/gocrud/gitplugin/core"
	"github.com/gocrud/gitplugin/database"
	"github.com/gocrud/gitplugin/di"
	"gorm.io/driver/sqlite"
)

// DatabaseName 设置库在数据库工厂中的名称
const DatabaseName = "settings"

// Module 注册设置存储。dsn 为空时使用内存存储，否则使用 sqlite。
func Module(dsn string) core.Option {
	return func(rt *core.Runtime) error {
		if dsn == "" {
			di.BindInstance[Store](rt.Registry, NewMemoryStore())
			return nil
		}
		if err := database.WithDatabase(DatabaseName, sqlite.Open(dsn))(rt); err != nil {
			return err
		}
		di.BindTo[Store, *GormStore](rt.Registry).NonLazy()
		return nil
	}
}
