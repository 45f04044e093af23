// Package mcp serves tools to an MCP host over the official Go SDK.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server identity advertised during initialization.
const (
	ServerName    = "Gemini Image Generator"
	ServerVersion = "1.0.0"
)

// Server wraps an SDK server with lifecycle logging.
type Server struct {
	sdk    *mcpsdk.Server
	logger *slog.Logger
}

// NewServer creates a Server advertising the given implementation name and version.
func NewServer(name, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		sdk:    mcpsdk.NewServer(&mcpsdk.Implementation{Name: name, Version: version}, nil),
		logger: logger,
	}
}

// SDK returns the underlying SDK server, used to register tools.
func (s *Server) SDK() *mcpsdk.Server {
	return s.sdk
}

// Run serves transport until the peer disconnects or ctx is cancelled. Both are
// a clean shutdown and return nil.
func (s *Server) Run(ctx context.Context, transport mcpsdk.Transport) error {
	s.logger.Debug("MCP server session starting")
	err := s.sdk.Run(ctx, transport)
	switch {
	case err == nil, errors.Is(err, io.EOF), errors.Is(err, context.Canceled):
		s.logger.Info("MCP server stopped")
		return nil
	default:
		return fmt.Errorf("mcp server: %w", err)
	}
}

// ServeStdio serves newline-delimited JSON-RPC on stdin and stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.Run(ctx, &mcpsdk.StdioTransport{})
}
