package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocrud/gitplugin/di"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Setting 设置表的行
type Setting struct {
	Name      string `gorm:"primaryKey;size:191"`
	Value     string
	UpdatedAt time.Time
}

// TableName 表名
func (Setting) TableName() string {
	return "plugin_settings"
}

// GormStore 基于 gorm 的设置存储
type GormStore struct {
	db *gorm.DB
}

func init() {
	di.Describe[*GormStore](di.Constructor(NewGormStore, "settings"))
}

// NewGormStore 创建存储并迁移设置表
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Setting{}); err != nil {
		return nil, fmt.Errorf("settings: migrating table: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Get(ctx context.Context, name string) (string, bool, error) {
	var row Setting
	err := s.db.WithContext(ctx).Where("name = ?", name).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("settings: reading %s: %w", name, err)
	}
	return row.Value, true, nil
}

func (s *GormStore) Set(ctx context.Context, name, value string) error {
	row := Setting{Name: name, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("settings: writing %s: %w", name, err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, name string) error {
	if err := s.db.WithContext(ctx).Delete(&Setting{Name: name}).Error; err != nil {
		return fmt.Errorf("settings: deleting %s: %w", name, err)
	}
	return nil
}

func (s *GormStore) All(ctx context.Context) (map[string]string, error) {
	var rows []Setting
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("settings: listing: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Name] = r.Value
	}
	return out, nil
}
