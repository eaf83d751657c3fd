package database

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DatabaseOptions 数据库配置选项
type DatabaseOptions struct {
	Name string `json:"-"`
	// Dialector 为空时使用 sqlite 打开 DSN
	Dialector    gorm.Dialector `json:"-"`
	DSN          string         `json:"dsn"`
	GormConfig   *gorm.Config   `json:"-"`
	MaxIdleConns int            `json:"max_idle_conns"`
	MaxOpenConns int            `json:"max_open_conns"`
	MaxLifetime  time.Duration  `json:"max_lifetime"`
	AutoMigrate  []any          `json:"-"` // 需要自动迁移的模型
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name string) *DatabaseOptions {
	return &DatabaseOptions{
		Name:         name,
		GormConfig:   &gorm.Config{},
		MaxIdleConns: 10,
		MaxOpenConns: 100,
		MaxLifetime:  time.Hour,
	}
}

// Validate 验证配置
func (o *DatabaseOptions) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if o.Dialector == nil && o.DSN == "" {
		return fmt.Errorf("database dialector or dsn is required")
	}
	return nil
}

func (o *DatabaseOptions) dialector() gorm.Dialector {
	if o.Dialector != nil {
		return o.Dialector
	}
	return sqlite.Open(o.DSN)
}

// open 打开数据库、配置连接池并执行自动迁移
func open(opts DatabaseOptions) (*gorm.DB, error) {
	gormConfig := opts.GormConfig
	if gormConfig == nil {
		gormConfig = &gorm.Config{}
	}
	db, err := gorm.Open(opts.dialector(), gormConfig)
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
	return db, nil
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
