package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/erraggy/refdict"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.yaml.in/yaml/v4"
)

type materializeInput struct {
	Doc         documentInput `json:"doc"                    jsonschema:"The document address to expand"`
	IncludeKeys []string      `json:"include_keys,omitempty" jsonschema:"Restrict mapping keys to this set, applied at every mapping level"`
	ExcludeKeys []string      `json:"exclude_keys,omitempty" jsonschema:"Drop these mapping keys at every level. Exclusion wins over inclusion."`
	Format      string        `json:"format,omitempty"       jsonschema:"Output format: yaml (default) or json"`
}

type materializeOutput struct {
	Address  string `json:"address"`
	Format   string `json:"format"`
	Document string `json:"document"`
}

func handleMaterialize(_ context.Context, _ *mcp.CallToolRequest, input materializeInput) (*mcp.CallToolResult, materializeOutput, error) {
	format := input.Format
	switch format {
	case "", "yaml":
		format = "yaml"
	case "json":
	default:
		return errResult(fmt.Errorf("invalid format %q; valid values: yaml, json", input.Format)), materializeOutput{}, nil
	}

	view, err := input.Doc.view()
	if err != nil {
		return errResult(err), materializeOutput{}, nil
	}

	var opts []refdict.MaterializeOption
	if len(input.IncludeKeys) > 0 {
		opts = append(opts, refdict.WithIncludeKeys(input.IncludeKeys...))
	}
	if len(input.ExcludeKeys) > 0 {
		opts = append(opts, refdict.WithExcludeKeys(input.ExcludeKeys...))
	}

	doc, cyclic, err := refdict.MaterializeTracked(view, opts...)
	if err != nil {
		return errResult(err), materializeOutput{}, nil
	}
	// Cyclic output cannot be serialized; both encoders would recurse
	// forever chasing the cycle.
	if cyclic {
		return errResult(fmt.Errorf("document at %s contains a reference cycle and cannot be serialized", view.Address().String())), materializeOutput{}, nil
	}

	var data []byte
	switch format {
	case "json":
		data, err = json.MarshalIndent(doc, "", "  ")
	default:
		data, err = yaml.Marshal(doc)
	}
	if err != nil {
		return errResult(err), materializeOutput{}, nil
	}

	return nil, materializeOutput{
		Address:  view.Address().String(),
		Format:   format,
		Document: string(data),
	}, nil
}
