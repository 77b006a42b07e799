package main

import (
	"github.com/dean0x/diedeadcode/internal/mcpserver"
	"github.com/urfave/cli/v2"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes dead code
analysis as tools that LLMs can invoke.

To use with an MCP client, register:
  {
    "mcpServers": {
      "ddd": {
        "command": "ddd",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - analyze_deadcode   Confidence-scored dead code findings for a project
  - validate_config    Load and validate ddd configuration`,
		Action: runMCPCmd,
	}
}

func runMCPCmd(c *cli.Context) error {
	return mcpserver.NewServer(version).Run(c.Context)
}
