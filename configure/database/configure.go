package database

import (
	"fmt"

	"github.com/gocrud/inject/configure"
	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
	"gorm.io/gorm"
)

// Builder 数据库配置构建器
type Builder = configure.Clients[DatabaseOptions]

// NewBuilder 创建数据库构建器
func NewBuilder() *Builder {
	return configure.NewClients("database", NewDefaultOptions, (*DatabaseOptions).Validate)
}

// Configure 把 options 中配置的数据库注册为以名称为索引的共享 *gorm.DB。
// 数据库在第一次解析时打开，容器关闭时关闭底层连接池。
func Configure(c *di.Container, options func(*Builder)) error {
	builder := NewBuilder()
	if options != nil {
		options(builder)
	}
	configs, err := builder.Build()
	if err != nil {
		return err
	}

	logger := c.Logger().WithCategory("database")
	for _, opts := range configs {
		build := func(*di.Injector) (*gorm.DB, error) {
			db, err := open(opts)
			if err != nil {
				return nil, err
			}
			logger.Info("database opened", logging.Field{Key: "name", Value: opts.Name})
			return db, nil
		}
		dispose := func(db *gorm.DB) error {
			logger.Info("closing database", logging.Field{Key: "name", Value: opts.Name})
			return closeDB(db)
		}
		if err := configure.RegisterNamed(c, opts.Name, build, dispose); err != nil {
			return fmt.Errorf("register database '%s': %w", opts.Name, err)
		}
	}
	return nil
}
