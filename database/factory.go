package database

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DatabaseOptions 数据库配置选项
type DatabaseOptions struct {
	Name         string
	Dialector    gorm.Dialector
	GormConfig   *gorm.Config
	MaxIdleConns int
	MaxOpenConns int
	MaxLifetime  time.Duration
	AutoMigrate  []any // 需要自动迁移的模型
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name string, dialector gorm.Dialector) *DatabaseOptions {
	return &DatabaseOptions{
		Name:         name,
		Dialector:    dialector,
		GormConfig:   &gorm.Config{Logger: logger.Discard},
		MaxIdleConns: 2,
		MaxOpenConns: 4,
		MaxLifetime:  time.Hour,
		AutoMigrate:  make([]any, 0),
	}
}

// Validate 验证配置
func (o *DatabaseOptions) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if o.Dialector == nil {
		return fmt.Errorf("database dialector is required")
	}
	return nil
}

// DatabaseFactory 数据库连接工厂，随注册表释放时关闭全部连接
type DatabaseFactory struct {
	dbs map[string]*gorm.DB
	mu  sync.RWMutex
}

// NewDatabaseFactory 创建数据库工厂
func NewDatabaseFactory() *DatabaseFactory {
	return &DatabaseFactory{
		dbs: make(map[string]*gorm.DB),
	}
}

// Register 打开并登记数据库连接
func (f *DatabaseFactory) Register(opts DatabaseOptions) (*gorm.DB, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.dbs[opts.Name]; exists {
		return nil, fmt.Errorf("database '%s' already registered", opts.Name)
	}

	db, err := gorm.Open(opts.Dialector, opts.GormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open database '%s': %w", opts.Name, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB for '%s': %w", opts.Name, err)
	}
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(opts.MaxLifetime)

	if len(opts.AutoMigrate) > 0 {
		if err := db.AutoMigrate(opts.AutoMigrate...); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("auto migrate failed for '%s': %w", opts.Name, err)
		}
	}

	f.dbs[opts.Name] = db
	return db, nil
}

// Get 按名称获取连接
func (f *DatabaseFactory) Get(name string) (*gorm.DB, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	db, ok := f.dbs[name]
	return db, ok
}

// Names 返回已登记的连接名称
func (f *DatabaseFactory) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.dbs))
	for name := range f.dbs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close 关闭所有数据库连接
func (f *DatabaseFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var err error
	for name, db := range f.dbs {
		sqlDB, dbErr := db.DB()
		if dbErr != nil {
			err = multierr.Append(err, fmt.Errorf("failed to get sql.DB for '%s': %w", name, dbErr))
			continue
		}
		if closeErr := sqlDB.Close(); closeErr != nil {
			err = multierr.Append(err, fmt.Errorf("failed to close database '%s': %w", name, closeErr))
		}
	}
	f.dbs = make(map[string]*gorm.DB)
	return err
}
