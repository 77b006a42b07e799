package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	toon "github.com/toon-format/toon-go"

	"github.com/dean0x/diedeadcode/internal/report"
	"github.com/dean0x/diedeadcode/internal/scanner"
	"github.com/dean0x/diedeadcode/pkg/analyzer/deadcode"
	"github.com/dean0x/diedeadcode/pkg/config"
)

// AnalyzeInput selects what to analyze and how much to report.
type AnalyzeInput struct {
	Path          string   `json:"path,omitempty" jsonschema:"Project root to analyze. Defaults to the current directory."`
	MinConfidence string   `json:"min_confidence,omitempty" jsonschema:"Minimum confidence band to report: low, medium, or high. Default high."`
	IncludeTypes  *bool    `json:"include_types,omitempty" jsonschema:"Report type-only dead code (interfaces, type aliases). Default true."`
	EntryFiles    []string `json:"entry_files,omitempty" jsonschema:"Extra entry point files, relative to the project root."`
}

// ValidateConfigInput names the config file to check.
type ValidateConfigInput struct {
	Path string `json:"path,omitempty" jsonschema:"Config file path. Defaults to searching upward from the current directory."`
}

func toolResult(data any) (*mcp.CallToolResult, any, error) {
	text, err := toon.Marshal(data, toon.WithIndent(2))
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(text)},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

func handleAnalyze(ctx context.Context, req *mcp.CallToolRequest, input AnalyzeInput) (*mcp.CallToolResult, any, error) {
	root := input.Path
	if root == "" {
		root = "."
	}

	loaded, err := config.LoadConfig(config.WithDir(root))
	if err != nil {
		return toolError(err.Error())
	}
	cfg := loaded.Config
	if input.MinConfidence != "" {
		cfg.Output.MinConfidence = input.MinConfidence
	}
	if input.IncludeTypes != nil {
		cfg.Analysis.IncludeTypes = *input.IncludeTypes
	}
	cfg.Entry.Files = append(cfg.Entry.Files, input.EntryFiles...)
	if err := cfg.Validate(); err != nil {
		return toolError(err.Error())
	}

	files, err := scanner.New(cfg).Scan(root)
	if err != nil {
		return toolError(err.Error())
	}

	analyzer := deadcode.New(cfg, deadcode.WithRoot(root))
	result, err := analyzer.Analyze(ctx, files)
	if err != nil {
		return toolError(err.Error())
	}

	return toolResult(report.New(result, cfg.Output).RenderData())
}

func handleValidateConfig(ctx context.Context, req *mcp.CallToolRequest, input ValidateConfigInput) (*mcp.CallToolResult, any, error) {
	var opts []config.LoadOption
	if input.Path != "" {
		opts = append(opts, config.WithPath(input.Path))
	}

	loaded, err := config.LoadConfig(opts...)
	if err != nil {
		return toolError(err.Error())
	}

	source := loaded.Source
	if source == "" {
		source = "(defaults)"
	}
	return toolResult(map[string]any{
		"valid":  true,
		"source": source,
		"config": loaded.Config,
	})
}
