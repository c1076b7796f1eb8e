package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string"},
			"limit": map[string]any{"type": "integer"},
		},
		"required": []string{"query"},
	}
}

func TestFunctionTool_Call(t *testing.T) {
	ft := NewFunctionTool("web_search", "Search the web", searchSchema(),
		func(_ context.Context, args map[string]any) (any, error) {
			return "results for " + args["query"].(string), nil
		})

	result, err := ft.Call(context.Background(), map[string]any{"query": "weather"})
	require.NoError(t, err)
	assert.Equal(t, "results for weather", result)
}

func TestFunctionTool_ValidationError(t *testing.T) {
	ft := NewFunctionTool("web_search", "Search the web", searchSchema(),
		func(_ context.Context, _ map[string]any) (any, error) {
			t.Fatal("fn must not run on validation failure")
			return nil, nil
		})

	_, err := ft.Call(context.Background(), map[string]any{"limit": float64(5)})
	require.Error(t, err)
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
}

func TestFunctionTool_ExecutionErrorWrapped(t *testing.T) {
	ft := NewFunctionTool("web_search", "Search the web", searchSchema(),
		func(_ context.Context, _ map[string]any) (any, error) {
			return nil, errors.New("upstream unavailable")
		})

	_, err := ft.Call(context.Background(), map[string]any{"query": "x"})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
	assert.Contains(t, toolErr.Message, "upstream unavailable")
}

func TestFunctionTool_CustomToolErrorPreserved(t *testing.T) {
	custom := NewToolError("web_search", "quota exceeded", "RATE_LIMITED")
	ft := NewFunctionTool("web_search", "Search the web", searchSchema(),
		func(_ context.Context, _ map[string]any) (any, error) {
			return nil, custom
		})

	_, err := ft.Call(context.Background(), map[string]any{"query": "x"})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "RATE_LIMITED", toolErr.Code)
}

func TestNewFunctionToolFromStruct(t *testing.T) {
	type args struct {
		Query string `json:"query" description:"Search query"`
		Limit int    `json:"limit,omitempty"`
	}
	ft := NewFunctionToolFromStruct("web_search", "Search the web", args{},
		func(_ context.Context, _ map[string]any) (any, error) { return nil, nil })

	schema := ft.Parameters()
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "query")
	assert.Contains(t, props, "limit")
	assert.Equal(t, []string{"query"}, schema["required"])
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := NewFunctionTool("a", "", nil, func(context.Context, map[string]any) (any, error) { return nil, nil })
	b := NewFunctionTool("b", "", nil, func(context.Context, map[string]any) (any, error) { return nil, nil })

	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(b))
	assert.Error(t, r.Register(a), "duplicate registration must fail")

	got, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", got.Name())

	_, ok = r.Get("missing")
	assert.False(t, ok)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Name())
	assert.Equal(t, "b", list[1].Name())
}
