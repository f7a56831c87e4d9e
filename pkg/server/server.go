// Package server exposes the track identification pipeline over HTTP and MCP.
//
// The HTTP API accepts a source URL or an uploaded audio file and responds
// with the flat identification result. The same pipeline is registered as an
// MCP tool mounted at /mcp.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/pastefind/pastefind/internal/models"
	"github.com/pastefind/pastefind/pkg/config"
	"github.com/pastefind/pastefind/pkg/identify"
	"github.com/pastefind/pastefind/pkg/logger"
	"github.com/pastefind/pastefind/pkg/queue"
	"github.com/sirupsen/logrus"
)

var log *logrus.Entry

func init() {
	log = logger.WithName("server")
}

// Identifier runs one identification request through the pipeline.
type Identifier interface {
	Identify(ctx context.Context, req *models.Request) (models.Response, error)
}

// Server wires the HTTP router, the MCP endpoint and the worker pool around
// an identification service.
type Server struct {
	cfg  *config.Config
	svc  Identifier
	pool *queue.Pool
}

// New builds a server from configuration, constructing the real
// identification service behind it.
func New(cfg *config.Config) (*Server, error) {
	svc, err := identify.NewService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build identification service: %w", err)
	}
	return NewWith(cfg, svc), nil
}

// NewWith builds a server around an existing Identifier.
func NewWith(cfg *config.Config, svc Identifier) *Server {
	return &Server{
		cfg:  cfg,
		svc:  svc,
		pool: queue.NewPool(cfg.Workers.Count, cfg.Workers.QueueSize),
	}
}

// Router builds the gin router with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	router.GET("/health", s.handleHealth)

	api := router.Group("/api")
	api.POST("/identify", s.handleIdentifyURL)
	api.POST("/identify/upload", s.handleIdentifyUpload)

	router.Any("/mcp", gin.WrapH(s.mcpHandler()))

	return router
}

// Run starts the worker pool and serves HTTP until the listener fails.
func (s *Server) Run() error {
	s.pool.Start()
	defer s.pool.Stop()

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	log.WithFields(logrus.Fields{
		"host":         s.cfg.Server.Host,
		"port":         s.cfg.Server.Port,
		"mcp_endpoint": "/mcp",
		"workers":      s.cfg.Workers.Count,
	}).Info("Identification server starting")

	return s.Router().Run(addr)
}

func (s *Server) mcpHandler() *mcpserver.StreamableHTTPServer {
	mcpServer := mcpserver.NewMCPServer(
		"pastefind",
		"0.1.0",
		mcpserver.WithToolCapabilities(true),
	)
	registerMCPTools(mcpServer, s)

	return mcpserver.NewStreamableHTTPServer(
		mcpServer,
		mcpserver.WithStateLess(true),
	)
}

// requestLogger logs each request with the original client IP, honoring
// X-Real-IP and X-Forwarded-For set by reverse proxies.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		path := c.Request.URL.Path

		clientIP := c.Request.RemoteAddr
		if realIP := c.GetHeader("X-Real-IP"); realIP != "" {
			clientIP = realIP
		} else if forwardedFor := c.GetHeader("X-Forwarded-For"); forwardedFor != "" {
			// First entry in the chain is the original client.
			for i := 0; i < len(forwardedFor); i++ {
				if forwardedFor[i] == ',' {
					forwardedFor = forwardedFor[:i]
					break
				}
			}
			clientIP = forwardedFor
		}

		log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     path,
			"clientIP": clientIP,
		}).Info("Incoming request")

		c.Next()

		log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     path,
			"status":   c.Writer.Status(),
			"duration": time.Since(startTime).Milliseconds(),
			"clientIP": clientIP,
		}).Info("Request completed")
	}
}
