// Package mcphook exposes the ML hook's per-line analysis contract
// (spec.md §4.C) as an MCP tool, so external analyzers that already
// speak the Model Context Protocol can plug into secretsentinel's
// scan pipeline without a bespoke subprocess protocol. This is an
// additional transport alongside internal/mlhook's line-delimited
// JSON subprocess bridge, not a replacement for it.
package mcphook

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/oktsec/secretsentinel/internal/mlhook"
)

// AnalyzeLineInput is the structured argument set for the
// "analyze_line" tool.
type AnalyzeLineInput struct {
	Line       string `json:"line"`
	FilePath   string `json:"file_path"`
	LineNumber int    `json:"line_number"`
}

// AnalyzeLineOutput mirrors mlhook.Token's wire shape.
type AnalyzeLineOutput struct {
	Tokens []mlhook.Token `json:"tokens"`
}

// Analyzer is implemented by anything that can answer an analyze_line
// call in-process, e.g. an adapter wrapping a local model.
type Analyzer interface {
	AnalyzeLine(ctx context.Context, line, filePath string, lineNumber int) []mlhook.Token
}

// NewServer builds an MCP server exposing a single "analyze_line"
// tool backed by analyzer.
func NewServer(analyzer Analyzer) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "secretsentinel-mlhook", Version: "0.1.0"}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "analyze_line",
		Description: "Analyze a single source line for credential-shaped tokens and return flagged spans with confidence/severity.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in AnalyzeLineInput) (*mcp.CallToolResult, AnalyzeLineOutput, error) {
		toks := analyzer.AnalyzeLine(ctx, in.Line, in.FilePath, in.LineNumber)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("%d token(s) flagged", len(toks))}},
		}, AnalyzeLineOutput{Tokens: toks}, nil
	})

	return srv
}

// Serve runs srv on stdio until the context is cancelled.
func Serve(ctx context.Context, srv *mcp.Server) error {
	return srv.Run(ctx, &mcp.StdioTransport{})
}
