package mcpserver

import (
	"context"
	"strings"

	"github.com/erraggy/refdict"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.yaml.in/yaml/v4"
)

type resolveInput struct {
	Doc     documentInput `json:"doc"               jsonschema:"The document address to resolve"`
	Default any           `json:"default,omitempty" jsonschema:"Value to return when the path does not exist. Document-load and reference-parse failures still error."`
}

type resolveOutput struct {
	// Address is the physically-resolved address of the value, after
	// following any references.
	Address string `json:"address"`
	Kind    string `json:"kind"`
	Value   string `json:"value"`
}

func handleResolve(_ context.Context, _ *mcp.CallToolRequest, input resolveInput) (*mcp.CallToolResult, resolveOutput, error) {
	res, addr, err := input.Doc.resolve()
	if err != nil {
		return errResult(err), resolveOutput{}, nil
	}

	var resolution refdict.Resolution
	if input.Default != nil {
		resolution, err = res.ResolveDefault(addr, input.Default)
	} else {
		resolution, err = res.Resolve(addr)
	}
	if err != nil {
		return errResult(err), resolveOutput{}, nil
	}

	encoded, err := yaml.Marshal(resolution.Value)
	if err != nil {
		return errResult(err), resolveOutput{}, nil
	}

	return nil, resolveOutput{
		Address: resolution.Address.String(),
		Kind:    kindName(resolution.Value),
		Value:   strings.TrimRight(string(encoded), "\n"),
	}, nil
}

// kindName classifies a resolved value for tool output.
func kindName(value any) string {
	switch value.(type) {
	case map[string]any:
		return "mapping"
	case []any:
		return "sequence"
	default:
		return "scalar"
	}
}
