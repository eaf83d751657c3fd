package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Controller 控制器在服务器构建时注册自己的路由
type Controller interface {
	RegisterRoutes(router gin.IRouter)
}

// Builder Web 服务器构建器（基于 Gin）
type Builder struct {
	port        int
	mode        string
	middleware  []gin.HandlerFunc
	routes      []func(gin.IRouter)
	controllers []any
}

// NewBuilder 创建 Web 构建器
func NewBuilder() *Builder {
	return &Builder{
		port: 8080,
		mode: gin.ReleaseMode,
	}
}

// UsePort 设置端口，0 表示由系统分配
func (b *Builder) UsePort(port int) *Builder {
	b.port = port
	return b
}

// SetMode 设置 Gin 模式
func (b *Builder) SetMode(mode string) *Builder {
	b.mode = mode
	return b
}

// Use 使用全局中间件
func (b *Builder) Use(middleware ...gin.HandlerFunc) *Builder {
	b.middleware = append(b.middleware, middleware...)
	return b
}

// Handle 注册路由
func (b *Builder) Handle(method, path string, handlers ...gin.HandlerFunc) *Builder {
	b.routes = append(b.routes, func(r gin.IRouter) {
		r.Handle(method, path, handlers...)
	})
	return b
}

// Get 注册 GET 路由
func (b *Builder) Get(path string, handlers ...gin.HandlerFunc) *Builder {
	return b.Handle(http.MethodGet, path, handlers...)
}

// Post 注册 POST 路由
func (b *Builder) Post(path string, handlers ...gin.HandlerFunc) *Builder {
	return b.Handle(http.MethodPost, path, handlers...)
}

// Put 注册 PUT 路由
func (b *Builder) Put(path string, handlers ...gin.HandlerFunc) *Builder {
	return b.Handle(http.MethodPut, path, handlers...)
}

// Delete 注册 DELETE 路由
func (b *Builder) Delete(path string, handlers ...gin.HandlerFunc) *Builder {
	return b.Handle(http.MethodDelete, path, handlers...)
}

// AddControllers 添加控制器，按 di.RegisterAuto 的规则注册：
// 构造函数、实例指针（带 di 标签的字段在首次解析时注入）或 reflect.Type。
func (b *Builder) AddControllers(targets ...any) *Builder {
	b.controllers = append(b.controllers, targets...)
	return b
}

// engine 创建 Gin 引擎并挂载路由与控制器
func (b *Builder) engine(controllers []Controller) *gin.Engine {
	gin.SetMode(b.mode)
	engine := gin.New()
	// 默认中间件：恢复 panic
	engine.Use(gin.Recovery())
	engine.Use(b.middleware...)

	for _, route := range b.routes {
		route(engine)
	}
	for _, ctrl := range controllers {
		ctrl.RegisterRoutes(engine)
	}
	return engine
}
