// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes refdict capabilities as MCP tools over stdio.
package mcpserver

import (
	"context"
	"regexp"

	"github.com/erraggy/refdict"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `refdict MCP server — resolves, expands, and queries JSON/YAML documents connected by $ref references.

Configuration: All defaults are configurable via REFDICT_* environment variables set in your MCP client config. The Go MCP SDK does not support initializationOptions; use env vars instead.

Key settings:
- REFDICT_MAX_REF_DEPTH (default: 100) — maximum $ref redirects per resolution
- REFDICT_MAX_CACHED_DOCUMENTS (default: 100) — document cache size
- REFDICT_MAX_FILE_SIZE (default: 10485760) — maximum document size in bytes
- REFDICT_HTTP_TIMEOUT (default: 30s) — timeout for URL-fetched documents

Addresses take the form document#/pointer, e.g. schemas/master.yaml#/definitions/pet. Fetched documents are cached per session; pass content to operate on an inline document instead of fetching.`

// Run starts the MCP server over stdio and blocks until the client disconnects
// or the context is cancelled.
func Run(ctx context.Context) error {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "refdict", Version: refdict.Version()},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	registerAllTools(server)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func registerAllTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve",
		Description: "Resolve an address through a JSON/YAML document, following $ref references at any depth. Returns the value found, its kind (mapping, sequence, or scalar), and the physically-resolved address, which differs from the input whenever references were followed. Use default to substitute a value when the path does not exist.",
	}, handleResolve)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "materialize",
		Description: "Expand a document subtree into plain YAML or JSON with every $ref replaced by its target, across documents. Use include_keys/exclude_keys to filter mapping keys at every level. Fails on documents whose references form a cycle, since those cannot be serialized; the resolve tool still works on them.",
	}, handleMaterialize)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query",
		Description: "Evaluate a JSONPath expression (RFC 9535, e.g. $.definitions..type) against a document subtree with every $ref expanded first. Returns all matches. References are expanded before the query runs, so referenced fields are addressable as if they were inline.",
	}, handleQuery)
}

// sanitizeError strips absolute filesystem paths from error messages
// to prevent leaking internal directory structure to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}
