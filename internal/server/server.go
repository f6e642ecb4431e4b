package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/muurk/rrcmon/internal/logging"
)

// DefaultShutdownTimeout bounds how long Run waits for in-flight requests.
const DefaultShutdownTimeout = 10 * time.Second

// Config holds the server configuration
type Config struct {
	Host string
	Port int

	// Username and Password enable HTTP Basic auth on Routes() when Username
	// is set. /healthz is always open.
	Username string
	Password string

	ShutdownTimeout time.Duration
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Server bundles the gin router and the listener lifecycle.
type Server struct {
	cfg    Config
	engine *gin.Engine
	routes *gin.RouterGroup

	mu   sync.Mutex
	addr net.Addr
}

// New constructs a server with the common middleware and /healthz.
func New(cfg Config) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	var routes *gin.RouterGroup
	if cfg.Username != "" {
		routes = engine.Group("", gin.BasicAuth(gin.Accounts{cfg.Username: cfg.Password}))
	} else {
		routes = engine.Group("")
	}

	return &Server{cfg: cfg, engine: engine, routes: routes}
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Routes is where callers mount their handlers. It carries basic auth when
// configured.
func (s *Server) Routes() *gin.RouterGroup {
	return s.routes
}

// Addr returns the bound address once Serve has started, or nil.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.Info("HTTP server listening",
		zap.String("addr", ln.Addr().String()),
		zap.Bool("basic_auth", s.cfg.Username != ""),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logging.Info("Shutting down HTTP server", zap.String("addr", ln.Addr().String()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warn("Shutdown timeout, forcing close", zap.Error(err))
			return srv.Close()
		}
		return nil
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()
		logging.LogHTTPRequest(c.ClientIP(), c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
