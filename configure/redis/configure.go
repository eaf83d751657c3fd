package redis

import (
	"context"
	"fmt"

	"github.com/gocrud/inject/configure"
	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
	"github.com/redis/go-redis/v9"
)

// Builder Redis 客户端配置构建器
type Builder = configure.Clients[ClientOptions]

// NewBuilder 创建 Redis 构建器
func NewBuilder() *Builder {
	return configure.NewClients("redis", NewDefaultOptions, (*ClientOptions).Validate)
}

// Configure 把 options 中配置的客户端注册到容器：
// *redis.Client 以客户端名称为索引，名为 "default" 的客户端也可以不带索引解析。
// 客户端在第一次解析时连接，连接失败时本次解析回滚。
func Configure(c *di.Container, options func(*Builder)) error {
	builder := NewBuilder()
	if options != nil {
		options(builder)
	}
	configs, err := builder.Build()
	if err != nil {
		return err
	}

	logger := c.Logger().WithCategory("redis")
	for _, opts := range configs {
		build := func(*di.Injector) (*redis.Client, error) {
			return newClient(logger, opts)
		}
		closeClient := func(client *redis.Client) error {
			logger.Info("closing redis client", logging.Field{Key: "name", Value: opts.Name})
			return client.Close()
		}
		if err := configure.RegisterNamed(c, opts.Name, build, closeClient); err != nil {
			return fmt.Errorf("register redis client '%s': %w", opts.Name, err)
		}
	}
	return nil
}

// newClient 创建客户端并测试连接
func newClient(logger logging.Logger, opts ClientOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
		MaxRetries:   opts.MaxRetries,
	})

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis '%s' at %s: %w", opts.Name, opts.Addr, err)
	}

	logger.Info("redis client connected",
		logging.Field{Key: "name", Value: opts.Name},
		logging.Field{Key: "addr", Value: opts.Addr},
		logging.Field{Key: "db", Value: opts.DB})
	return client, nil
}
