// Package mcpserver exposes the validation pipeline as Model Context
// Protocol tools over stdio.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docgov/docgov/internal/drift"
	"github.com/docgov/docgov/internal/git"
	"github.com/docgov/docgov/internal/workflow"
)

// Name is the implementation name announced to clients.
const Name = "docgov"

// ErrMissingRunner is returned by NewServer without a runner.
var ErrMissingRunner = errors.New("validation runner is required")

// Server serves docgov tools for one repository root.
type Server struct {
	runner  *workflow.Runner
	base    workflow.Options
	logger  *slog.Logger
	changes func(root string) drift.ChangeSource
	server  *mcp.Server
}

// Option configures a Server.
type Option func(*Server)

// WithChangeSource replaces the git client used by check_drift.
func WithChangeSource(fn func(root string) drift.ChangeSource) Option {
	return func(s *Server) { s.changes = fn }
}

// WithLogger logs tool calls to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer registers the tools. base supplies the root and every option
// a tool call does not override.
func NewServer(runner *workflow.Runner, base workflow.Options, version string, opts ...Option) (*Server, error) {
	if runner == nil {
		return nil, ErrMissingRunner
	}
	s := &Server{
		runner: runner,
		base:   base,
		logger: slog.New(slog.DiscardHandler),
		server: mcp.NewServer(&mcp.Implementation{Name: Name, Version: version}, nil),
	}
	s.changes = func(root string) drift.ChangeSource { return git.New(root, s.logger) }
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdin and stdout until ctx is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp server starting", slog.String("root", s.base.Root))
	if err := s.server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("serving mcp: %w", err)
	}
	return nil
}
