package database

import (
	"time"

	"github.com/gocrud/gitplugin/core"
	"github.com/gocrud/gitplugin/di"
	"github.com/gocrud/gitplugin/logging"
	"gorm.io/gorm"
)

// Option 调整单个数据库的配置
type Option func(*DatabaseOptions)

// WithAutoMigrate 打开后自动迁移的模型
func WithAutoMigrate(models ...any) Option {
	return func(o *DatabaseOptions) {
		o.AutoMigrate = append(o.AutoMigrate, models...)
	}
}

// WithPool 设置连接池
func WithPool(maxIdle, maxOpen int, lifetime time.Duration) Option {
	return func(o *DatabaseOptions) {
		o.MaxIdleConns = maxIdle
		o.MaxOpenConns = maxOpen
		o.MaxLifetime = lifetime
	}
}

// WithDatabase 打开数据库并注册到全局注册表。
// 连接以 *gorm.DB 绑定，标识为 name；name 为 "default" 时同时作为无标识绑定。
// 工厂在启动时创建，注册表释放时关闭全部连接。
func WithDatabase(name string, dialector gorm.Dialector, opts ...Option) core.Option {
	return func(rt *core.Runtime) error {
		options := NewDefaultOptions(name, dialector)
		for _, opt := range opts {
			opt(options)
		}
		if err := options.Validate(); err != nil {
			return err
		}

		factory, created := core.EnsureFeature(rt, NewDatabaseFactory)
		if created {
			di.BindInstance(rt.Registry, factory).NonLazy()
		}

		db, err := factory.Register(*options)
		if err != nil {
			return err
		}
		di.BindInstance(rt.Registry, db).WithID(name)
		if name == "default" {
			di.BindInstance(rt.Registry, db)
		}

		rt.Logger.Info("Database registered",
			logging.Field{Key: "name", Value: name},
			logging.Field{Key: "dialector", Value: dialector.Name()})
		return nil
	}
}
