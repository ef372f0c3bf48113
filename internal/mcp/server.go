// ABOUTME: MCP server setup for the mylera sync engine.
// ABOUTME: Exposes metrics, sync control, and permission state over stdio.
package mcp

import (
	"context"
	"time"

	"github.com/SG-Repo2/mylera-sub000/internal/provider"
	"github.com/SG-Repo2/mylera-sub000/internal/store"
	healthsync "github.com/SG-Repo2/mylera-sub000/internal/sync"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server with the sync engine's components.
type Server struct {
	mcpServer *mcp.Server
	store     store.Store
	orch      *healthsync.Orchestrator
	provider  provider.HealthProvider
	userID    string
	now       func() time.Time
}

// NewServer creates an MCP server over an already-wired engine.
func NewServer(st store.Store, orch *healthsync.Orchestrator, p provider.HealthProvider, userID string) (*Server, error) {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "mylera",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		store:     st,
		orch:      orch,
		provider:  p,
		userID:    userID,
		now:       time.Now,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
