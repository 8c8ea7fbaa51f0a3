package mcpserver

import (
	"context"
	"fmt"

	"github.com/erraggy/refdict"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type queryInput struct {
	Doc        documentInput `json:"doc"             jsonschema:"The document address to query"`
	Expression string        `json:"expression"      jsonschema:"JSONPath expression (RFC 9535), e.g. $.definitions..type"`
	Limit      int           `json:"limit,omitempty" jsonschema:"Maximum number of matches to return. 0 returns all."`
}

type queryOutput struct {
	// Count is the total number of matches before the limit applied.
	Count   int   `json:"count"`
	Matches []any `json:"matches"`
}

func handleQuery(_ context.Context, _ *mcp.CallToolRequest, input queryInput) (*mcp.CallToolResult, queryOutput, error) {
	if input.Expression == "" {
		return errResult(fmt.Errorf("expression is required")), queryOutput{}, nil
	}

	view, err := input.Doc.view()
	if err != nil {
		return errResult(err), queryOutput{}, nil
	}

	matches, err := refdict.Query(view, input.Expression)
	if err != nil {
		return errResult(err), queryOutput{}, nil
	}

	count := len(matches)
	if input.Limit > 0 && len(matches) > input.Limit {
		matches = matches[:input.Limit]
	}
	return nil, queryOutput{Count: count, Matches: matches}, nil
}
