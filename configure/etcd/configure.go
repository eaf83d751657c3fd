package etcd

import (
	"fmt"

	"github.com/gocrud/inject/configure"
	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// Builder etcd 客户端配置构建器
type Builder = configure.Clients[ClientOptions]

// NewBuilder 创建 etcd 构建器
func NewBuilder() *Builder {
	return configure.NewClients("etcd", NewDefaultOptions, (*ClientOptions).Validate)
}

// Configure 把 options 中配置的客户端注册为以名称为索引的共享 *clientv3.Client
func Configure(c *di.Container, options func(*Builder)) error {
	builder := NewBuilder()
	if options != nil {
		options(builder)
	}
	configs, err := builder.Build()
	if err != nil {
		return err
	}

	logger := c.Logger().WithCategory("etcd")
	for _, opts := range configs {
		build := func(*di.Injector) (*clientv3.Client, error) {
			client, err := clientv3.New(opts.config())
			if err != nil {
				return nil, fmt.Errorf("failed to create etcd client '%s': %w", opts.Name, err)
			}
			logger.Info("etcd client created",
				logging.Field{Key: "name", Value: opts.Name},
				logging.Field{Key: "endpoints", Value: fmt.Sprintf("%v", opts.Endpoints)})
			return client, nil
		}
		closeClient := func(client *clientv3.Client) error {
			logger.Info("closing etcd client", logging.Field{Key: "name", Value: opts.Name})
			return client.Close()
		}
		if err := configure.RegisterNamed(c, opts.Name, build, closeClient); err != nil {
			return fmt.Errorf("register etcd client '%s': %w", opts.Name, err)
		}
	}
	return nil
}
