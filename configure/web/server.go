package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/inject/logging"
)

// Server Web 托管服务
type Server struct {
	engine *gin.Engine
	server *http.Server
	logger logging.Logger

	mu   sync.Mutex
	addr net.Addr
}

func newServer(engine *gin.Engine, port int, logger logging.Logger) *Server {
	return &Server{
		engine: engine,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: engine,
		},
		logger: logger,
	}
}

// Engine 返回 Gin 引擎
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Addr 返回监听地址，Start 之前为 nil
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Start 监听端口并阻塞到 ctx 取消或服务出错
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()
	s.logger.Info("Web server started", logging.Field{Key: "address", Value: ln.Addr().String()})

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.logger.Error("Web server error", logging.Field{Key: "error", Value: err.Error()})
		}
		return err
	case <-ctx.Done():
		// Stop 负责关闭
		return nil
	}
}

// Stop 优雅关闭服务器
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping web server")
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shutdown web server gracefully",
			logging.Field{Key: "error", Value: err.Error()})
		return err
	}
	s.logger.Info("Web server stopped")
	return nil
}
