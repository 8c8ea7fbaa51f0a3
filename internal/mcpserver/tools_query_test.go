package mcpserver

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryTool(t *testing.T) {
	input := queryInput{
		Doc:        documentInput{Address: "doc.yaml#/definitions", Content: testDocYAML},
		Expression: "$..type",
	}
	_, output, err := handleQuery(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)

	assert.Equal(t, 3, output.Count)
	assert.ElementsMatch(t, []any{"string", "string", "integer"}, output.Matches)
}

func TestQueryTool_Limit(t *testing.T) {
	input := queryInput{
		Doc:        documentInput{Address: "doc.yaml#/definitions", Content: testDocYAML},
		Expression: "$..type",
		Limit:      1,
	}
	_, output, err := handleQuery(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)

	// Count reports the total before the limit applied.
	assert.Equal(t, 3, output.Count)
	assert.Len(t, output.Matches, 1)
}

func TestQueryTool_MissingExpression(t *testing.T) {
	input := queryInput{
		Doc: documentInput{Address: "doc.yaml#/definitions", Content: testDocYAML},
	}
	result, _, err := handleQuery(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
}

func TestQueryTool_InvalidExpression(t *testing.T) {
	input := queryInput{
		Doc:        documentInput{Address: "doc.yaml#/definitions", Content: testDocYAML},
		Expression: "not a jsonpath",
	}
	result, _, err := handleQuery(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
}

func TestQueryTool_CyclicDocument(t *testing.T) {
	input := queryInput{
		Doc:        documentInput{Address: "doc.yaml#/", Content: cyclicDocYAML},
		Expression: "$..type",
	}
	result, _, err := handleQuery(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
}
