package mcpserver

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/psyhelp/testdesk/internal/logger"
	"github.com/psyhelp/testdesk/internal/workflow"
)

// Server exposes the test catalog page as MCP tools over streamable HTTP.
type Server struct {
	page       *workflow.Page
	host       string
	port       int
	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
	mu         sync.Mutex

	// authoring goes through the page's single add modal
	createMu sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithPort listens on a fixed port instead of a random free one.
func WithPort(port int) Option {
	return func(s *Server) { s.port = port }
}

// WithHost changes the listen host. Defaults to 127.0.0.1.
func WithHost(host string) Option {
	return func(s *Server) {
		if host != "" {
			s.host = host
		}
	}
}

// New creates a server for page. It is not started until Start is called.
func New(page *workflow.Page, opts ...Option) *Server {
	s := &Server{page: page, host: "127.0.0.1"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start starts the MCP HTTP server and returns the port it listens on.
func (s *Server) Start(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer != nil {
		return 0, fmt.Errorf("server already started")
	}

	s.mcpServer = server.NewMCPServer(
		"testdesk-tools",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	s.registerTools()

	if s.port == 0 {
		listener, err := net.Listen("tcp", net.JoinHostPort(s.host, "0"))
		if err != nil {
			return 0, fmt.Errorf("failed to find available port: %w", err)
		}
		s.port = listener.Addr().(*net.TCPAddr).Port
		if err := listener.Close(); err != nil {
			return 0, fmt.Errorf("failed to close listener: %w", err)
		}
	}

	s.httpServer = server.NewStreamableHTTPServer(
		s.mcpServer,
		server.WithStateLess(true),
	)

	addr := net.JoinHostPort(s.host, fmt.Sprint(s.port))
	logger.Debug("Starting MCP server on %s", addr)

	httpServer := s.httpServer
	go func() {
		if err := httpServer.Start(addr); err != nil {
			logger.Error("MCP server error: %v", err)
		}
	}()

	logger.Info("MCP server ready on %s", addr)
	return s.port, nil
}

// Stop stops the HTTP server. Stopping twice is safe.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer == nil {
		return nil
	}

	logger.Debug("Stopping MCP server")
	if err := s.httpServer.Shutdown(context.Background()); err != nil {
		logger.Warn("Error stopping MCP server: %v", err)
		return fmt.Errorf("failed to stop server: %w", err)
	}

	s.httpServer = nil
	s.mcpServer = nil
	return nil
}

// URL returns the MCP endpoint.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("http://%s/mcp", net.JoinHostPort(s.host, fmt.Sprint(s.port)))
}
