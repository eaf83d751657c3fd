package web

import (
	"errors"
	"fmt"

	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/hosting"
	"github.com/gocrud/inject/logging"
)

// AddController 以 Controller 注册控制器 T
func AddController[T Controller](c *di.Container, opts ...di.Option) error {
	return di.Register[T](c, append(opts, di.As[Controller]())...)
}

// Configure 注册 Web 服务器托管服务。服务器在第一次解析时收集所有 Controller 绑定并挂载路由。
func Configure(c *di.Container, options func(*Builder)) error {
	builder := NewBuilder()
	if options != nil {
		options(builder)
	}
	logger := c.Logger().WithCategory("web")

	for _, target := range builder.controllers {
		typ, err := di.RegisterAuto(c, target, di.As[Controller]())
		if errors.Is(err, di.ErrAlreadyRegistered) {
			logger.Warn("controller already registered, skipped", logging.Field{Key: "type", Value: fmt.Sprint(typ)})
			continue
		}
		if err != nil {
			return fmt.Errorf("register controller %T: %w", target, err)
		}
	}

	return hosting.AddHostedService[*Server](c, di.Provide(func(i *di.Injector) (*Server, error) {
		controllers, err := di.ResolveAll[Controller](i)
		if err != nil {
			return nil, err
		}
		logger.Info("Web server configured",
			logging.Field{Key: "port", Value: builder.port},
			logging.Field{Key: "controllers", Value: len(controllers)})
		return newServer(builder.engine(controllers), builder.port, logger), nil
	}))
}
