package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(name string) *FuncTool {
	return NewFuncTool(name, "echoes its arguments",
		map[string]any{"type": "object"},
		func(_ context.Context, _ uuid.UUID, args map[string]any) (any, error) {
			return args, nil
		})
}

func TestRegistryRegisterRejectsDuplicate(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.Register(echoTool("echo")))
	err := reg.Register(echoTool("echo"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistryListSortedByName(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoTool("zeta")))
	require.NoError(t, reg.Register(echoTool("alpha")))
	require.NoError(t, reg.Register(echoTool("mid")))

	descriptors := reg.List()
	require.Len(t, descriptors, 3)
	assert.Equal(t, "alpha", descriptors[0].Name)
	assert.Equal(t, "mid", descriptors[1].Name)
	assert.Equal(t, "zeta", descriptors[2].Name)
	assert.Equal(t, "echoes its arguments", descriptors[0].Description)
}

func TestRegistryCallUnknownTool(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Call(context.Background(), "missing", uuid.New(), nil)
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeUnknown, toolErr.Code)
	assert.Equal(t, "missing", toolErr.Tool)
}

func TestRegistryCallDispatches(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoTool("echo")))

	result, err := reg.Call(context.Background(), "echo", uuid.New(), map[string]any{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": "v"}, result)
}

func TestFuncToolWrapsPlainErrors(t *testing.T) {
	failing := NewFuncTool("broken", "always fails", map[string]any{"type": "object"},
		func(_ context.Context, _ uuid.UUID, _ map[string]any) (any, error) {
			return nil, errors.New("database unreachable")
		})

	_, err := failing.Call(context.Background(), uuid.New(), nil)
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeExecution, toolErr.Code)
	assert.Equal(t, "broken", toolErr.Tool)
	assert.Contains(t, toolErr.Message, "database unreachable")
}

func TestFuncToolPreservesToolErrors(t *testing.T) {
	failing := NewFuncTool("strict", "validates input", map[string]any{"type": "object"},
		func(_ context.Context, _ uuid.UUID, _ map[string]any) (any, error) {
			return nil, NewToolError("strict", "bad input", CodeValidation)
		})

	_, err := failing.Call(context.Background(), uuid.New(), nil)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeValidation, toolErr.Code)
}

func TestStringArg(t *testing.T) {
	args := map[string]any{"name": "basil", "count": float64(2), "empty": ""}

	got, err := stringArg("t", args, "name")
	require.NoError(t, err)
	assert.Equal(t, "basil", got)

	_, err = stringArg("t", args, "missing")
	require.Error(t, err)

	_, err = stringArg("t", args, "count")
	require.Error(t, err)

	_, err = stringArg("t", args, "empty")
	require.Error(t, err)
}

func TestOptionalStringArg(t *testing.T) {
	args := map[string]any{"unit": "grams", "count": float64(2)}

	got, err := optionalStringArg("t", args, "unit")
	require.NoError(t, err)
	assert.Equal(t, "grams", got)

	got, err = optionalStringArg("t", args, "missing")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = optionalStringArg("t", args, "count")
	require.Error(t, err)
}

func TestNumberArg(t *testing.T) {
	args := map[string]any{"quantity": float64(2.5), "name": "basil"}

	got, err := numberArg("t", args, "quantity", 1)
	require.NoError(t, err)
	assert.Equal(t, 2.5, got)

	got, err = numberArg("t", args, "missing", 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	_, err = numberArg("t", args, "name", 1)
	require.Error(t, err)
}
