package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addInput struct {
	A int `json:"a"`
	B int `json:"b"`
}

func TestNewToolFromFuncRejectsBadSignatures(t *testing.T) {
	t.Parallel()

	_, err := NewToolFromFunc("bad", "", 42)
	require.Error(t, err)

	_, err = NewToolFromFunc("bad", "", func(a, b int) (int, error) { return 0, nil })
	require.Error(t, err)

	_, err = NewToolFromFunc("bad", "", func(in addInput) {})
	require.Error(t, err)

	_, err = NewToolFromFunc("bad", "", func(in addInput) (int, string) { return 0, "" })
	require.Error(t, err)
}

func TestExecuteWithTypedInput(t *testing.T) {
	t.Parallel()

	tool, err := NewToolFromFunc("add", "add two numbers", func(in addInput) (int, error) {
		return in.A + in.B, nil
	})
	require.NoError(t, err)

	out, err := tool.Execute(context.Background(), addInput{A: 2, B: 3})
	require.NoError(t, err)
	assert.Equal(t, 5, out)
}

func TestExecuteCoercesGenericMapInput(t *testing.T) {
	t.Parallel()

	tool, err := NewToolFromFunc("add", "add two numbers", func(in addInput) (int, error) {
		return in.A + in.B, nil
	})
	require.NoError(t, err)

	// Untyped key/value map, the shape a model's tool request arrives in.
	out, err := tool.Execute(context.Background(), map[string]interface{}{"a": 4, "b": 6})
	require.NoError(t, err)
	assert.Equal(t, 10, out)
}

func TestExecuteUnmarshalsRawJSONInput(t *testing.T) {
	t.Parallel()

	tool, err := NewToolFromFunc("add", "add two numbers", func(in addInput) (int, error) {
		return in.A + in.B, nil
	})
	require.NoError(t, err)

	out, err := tool.Execute(context.Background(), json.RawMessage(`{"a": 1, "b": 2}`))
	require.NoError(t, err)
	assert.Equal(t, 3, out)
}

func TestExecutePassesContext(t *testing.T) {
	t.Parallel()

	type key struct{}
	tool, err := NewToolFromFunc("ctxtool", "reads a context value", func(ctx context.Context, in addInput) (interface{}, error) {
		return ctx.Value(key{}), nil
	})
	require.NoError(t, err)

	ctx := context.WithValue(context.Background(), key{}, "present")
	out, err := tool.Execute(ctx, map[string]interface{}{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "present", out)
}

func TestExecuteReturnsToolError(t *testing.T) {
	t.Parallel()

	tool, err := NewToolFromFunc("boom", "always fails", func(in addInput) (int, error) {
		return 0, errors.New("kaboom")
	})
	require.NoError(t, err)

	_, err = tool.Execute(context.Background(), addInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestInputSchemaDerivedFromStruct(t *testing.T) {
	t.Parallel()

	tool, err := NewToolFromFunc("add", "add two numbers", func(in addInput) (int, error) {
		return in.A + in.B, nil
	})
	require.NoError(t, err)

	require.NotNil(t, tool.InputSchema)
	b, err := json.Marshal(tool.InputSchema)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"a"`)
	assert.Contains(t, string(b), `"b"`)

	def := tool.Definition()
	assert.Equal(t, "add", def.Name)
	assert.Equal(t, "add two numbers", def.Description)
}

func TestCanonicalName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "tool/echo", CanonicalName("echo"))
	assert.Equal(t, "tool/echo", CanonicalName("tool/echo"))
}
