package config

import (
	"fmt"
	"io"
	"os"

	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
)

// consoleOut 为容器日志的输出目标
var consoleOut io.Writer = os.Stdout

// ContainerSettings 是 NewContainer 读取的配置节
type ContainerSettings struct {
	di.Settings
	LogLevel string `json:"log_level"`
	// LogFormat 为 "text"（默认）或 "json"
	LogFormat string `json:"log_format"`
	// LogAsync 为 true 时日志在后台写出，容器关闭时写完剩余日志
	LogAsync  bool `json:"log_async"`
	LogBuffer int  `json:"log_buffer"`
}

// NewContainer 按配置节 section 创建容器，并把 cfg 注册为 Configuration。
// 配置节不存在时使用默认设置。
func NewContainer(cfg Configuration, section string, opts ...di.ContainerOption) (*di.Container, error) {
	var settings ContainerSettings
	if section != "" && len(cfg.GetSection(section).GetAll()) > 0 {
		if err := cfg.Bind(section, &settings); err != nil {
			return nil, err
		}
	}

	logger, async, err := settings.logger()
	if err != nil {
		return nil, err
	}
	containerOpts, err := settings.Options()
	if err != nil {
		return nil, fmt.Errorf("config: section %s: %w", section, err)
	}
	containerOpts = append([]di.ContainerOption{di.WithLogger(logger)}, containerOpts...)

	c := di.New(append(containerOpts, opts...)...)
	if async != nil {
		// 最先构造，因而最后释放
		err := di.Register[*logging.AsyncWriter](c, di.Provide(func(*di.Injector) (*logging.AsyncWriter, error) {
			return async, nil
		}))
		if err == nil {
			_, err = di.Resolve[*logging.AsyncWriter](c)
		}
		if err != nil {
			async.Close()
			return nil, err
		}
	}
	if err := Register(c, cfg); err != nil {
		return nil, err
	}
	return c, nil
}

func (s ContainerSettings) logger() (logging.Logger, *logging.AsyncWriter, error) {
	if s.LogLevel == "" {
		return logging.NewNopLogger(), nil, nil
	}
	level, err := logging.ParseLevel(s.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	text := logging.NewTextFormatter()
	text.ColorOutput = true
	var formatter logging.Formatter = text
	if s.LogFormat == "json" {
		formatter = logging.NewJsonFormatter()
	}

	b := logging.NewLoggingBuilder().SetMinimumLevel(level)
	var async *logging.AsyncWriter
	if s.LogAsync {
		size := s.LogBuffer
		if size <= 0 {
			size = 1024
		}
		async = logging.NewAsyncWriter(consoleOut, formatter, size)
		b.AddProvider(async)
	} else {
		b.AddProvider(logging.NewWriterProvider(consoleOut, formatter))
	}
	return b.Build().CreateLogger("di"), async, nil
}

// Register 把 cfg 作为 external 绑定注册到容器
func Register(c *di.Container, cfg Configuration) error {
	return di.Register[Configuration](c, di.WithValue(cfg))
}

// Configure 把配置节 section 绑定到 T 并注册到容器：
// Option[T] 与 OptionMonitor[T] 为 external 绑定，OptionSnapshot[T] 每次解析生成新快照。
func Configure[T any](c *di.Container, cfg Configuration, section string) error {
	value, err := Load[T](cfg, section)
	if err != nil {
		return err
	}
	cache := NewOptionsCache[T](cfg, section)

	if err := di.Register[Option[T]](c, di.WithValue(NewOption(value))); err != nil {
		return err
	}
	if err := di.Register[OptionMonitor[T]](c, di.WithValue(NewOptionMonitor(cache))); err != nil {
		return err
	}
	return di.Register[OptionSnapshot[T]](c, di.WithUnique(), di.Provide(func(*di.Injector) (OptionSnapshot[T], error) {
		return NewOptionSnapshot(cache.Snapshot()), nil
	}))
}
