// Package mcp exposes the rescue engine to AI agents over the Model Context
// Protocol (streamable HTTP transport).
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/RescueDesk/internal/domain/rescue"
)

// endpointPath is where the streamable HTTP transport is mounted.
const endpointPath = "/mcp"

// PlanManager is the slice of the rescue service the tools drive.
type PlanManager interface {
	Generate(ctx context.Context, event, user string) (rescue.Plan, error)
	List(ctx context.Context, limit int, status rescue.Status) ([]rescue.Plan, error)
	Get(ctx context.Context, id string) (rescue.Plan, error)
	Approve(ctx context.Context, id string) (rescue.Plan, error)
	Cancel(ctx context.Context, id string) (rescue.Plan, error)
	Execute(ctx context.Context, id string) (rescue.Plan, error)
}

// ServerConfig holds the listener and identity settings.
type ServerConfig struct {
	Addr    string
	Name    string
	Version string
	APIKey  string

	// APIKeySource overrides APIKey when set, so the key can rotate at runtime.
	APIKeySource func() string
}

// ServerDeps holds the services the tools call into.
type ServerDeps struct {
	Plans PlanManager
}

// Server wraps an mcp-go server and its HTTP listener.
type Server struct {
	cfg       ServerConfig
	deps      ServerDeps
	mcpServer *mcpserver.MCPServer

	mu       sync.Mutex
	httpSrv  *http.Server
	listener net.Listener
}

// NewServer creates the MCP server and registers tools and resources.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithResourceCapabilities(false, false),
			mcpserver.WithRecovery(),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Handler returns the authenticated HTTP handler serving the MCP endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(endpointPath, mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath(endpointPath),
	))
	key := s.cfg.APIKeySource
	if key == nil {
		key = staticKey(s.cfg.APIKey)
	}
	return AuthMiddleware(key, mux)
}

// Start listens on cfg.Addr and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("mcp listen %s: %w", s.cfg.Addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.httpSrv = srv
	s.listener = ln
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("mcp server failed", "error", err)
		}
	}()
	slog.Info("mcp server started", "addr", ln.Addr().String(), "auth", s.cfg.APIKey != "" || s.cfg.APIKeySource != nil)
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the listener down. It is a no-op if Start was never called.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpSrv
	s.httpSrv = nil
	s.listener = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	slog.Info("mcp server stopping")
	return srv.Shutdown(ctx)
}
