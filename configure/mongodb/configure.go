package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/gocrud/inject/configure"
	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
	"github.com/gocrud/mgo"
)

// Builder MongoDB 配置构建器
type Builder = configure.Clients[MongoOptions]

// NewBuilder 创建构建器
func NewBuilder() *Builder {
	return configure.NewClients("mongo", NewDefaultOptions, (*MongoOptions).Validate)
}

// Configure 把 options 中配置的客户端注册为以名称为索引的共享 *mgo.Client
func Configure(c *di.Container, options func(*Builder)) error {
	builder := NewBuilder()
	if options != nil {
		options(builder)
	}
	configs, err := builder.Build()
	if err != nil {
		return err
	}

	logger := c.Logger().WithCategory("mongodb")
	for _, opts := range configs {
		build := func(*di.Injector) (*mgo.Client, error) {
			ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
			defer cancel()
			client, err := mgo.NewClient(ctx, opts.Uri, opts.clientOptions())
			if err != nil {
				return nil, fmt.Errorf("failed to create mongo client '%s': %w", opts.Name, err)
			}
			logger.Info("mongo client created", logging.Field{Key: "name", Value: opts.Name})
			return client, nil
		}
		disconnect := func(client *mgo.Client) error {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			logger.Info("closing mongo client", logging.Field{Key: "name", Value: opts.Name})
			return client.Disconnect(ctx)
		}
		if err := configure.RegisterNamed(c, opts.Name, build, disconnect); err != nil {
			return fmt.Errorf("register mongo client '%s': %w", opts.Name, err)
		}
	}
	return nil
}
