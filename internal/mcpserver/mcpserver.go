// Package mcpserver exposes dead-code analysis over the Model Context
// Protocol, so agents and editors can query findings without shelling out.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server with the ddd tools registered.
type Server struct {
	server *mcp.Server
}

// NewServer creates an MCP server for the given ddd version.
func NewServer(version string) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "ddd",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server}
	s.registerTools()
	return s
}

// Run serves MCP over stdio until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "analyze_deadcode",
		Description: "Find dead code in a TypeScript/JavaScript project. " +
			"Builds a cross-module reference graph, walks reachability from the " +
			"project's entry points, and reports unreferenced symbols with a " +
			"confidence score (high findings are safe to delete, low findings " +
			"are likely false positives from dynamic code).",
	}, handleAnalyze)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "validate_config",
		Description: "Validate a ddd configuration file (ddd.toml, .dddrc.*, or " +
			"the ddd field of package.json) and report the effective settings.",
	}, handleValidateConfig)
}
