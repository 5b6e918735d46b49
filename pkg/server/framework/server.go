// Package framework is a minimal web framework.
package framework

import (
	"context"
	"net/http"
	"os"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dsnp/frequency-resolver/config"
)

type contextKey string

const (
	RequestIDKey     contextKey = "requestID"
	ShutdownErrorKey contextKey = "shutdownError"
)

func (c contextKey) String() string {
	return string(c)
}

// ShutdownHook releases a resource once the server has stopped serving.
type ShutdownHook func(ctx context.Context) error

// Server is the entrypoint into our application and what configures our context object for each of our http router.
type Server struct {
	*http.Server
	router   *gin.Engine
	shutdown chan os.Signal
	hooks    []ShutdownHook
}

// NewServer creates a Server that handles a set of routes for the application.
func NewServer(cfg config.ServerConfig, handler *gin.Engine, shutdown chan os.Signal) *Server {
	return &Server{
		Server: &http.Server{
			Addr:              cfg.APIHost,
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		},
		router:   handler,
		shutdown: shutdown,
	}
}

// OnShutdown registers a hook for RunShutdownHooks.
func (s *Server) OnShutdown(hook ShutdownHook) {
	s.hooks = append(s.hooks, hook)
}

// RunShutdownHooks runs every registered hook, continuing past failures and returning the first error.
func (s *Server) RunShutdownHooks(ctx context.Context) error {
	var first error
	for _, hook := range s.hooks {
		if err := hook(ctx); err != nil {
			logrus.WithError(err).Error("shutdown hook failed")
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// SignalShutdown is used to gracefully shut down the server when an integrity issue is identified.
func (s *Server) SignalShutdown() {
	s.shutdown <- syscall.SIGTERM
}
