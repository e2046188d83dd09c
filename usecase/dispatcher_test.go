package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher(t *testing.T) {
	d := NewDispatcher()
	ctx := context.Background()

	d.RegisterCommand("echo", func(_ context.Context, payload interface{}) (interface{}, error) {
		return payload, nil
	})
	d.RegisterQuery("answer", func(context.Context, interface{}) (interface{}, error) {
		return 42, nil
	})

	out, err := d.ExecuteCommand(ctx, "echo", "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi", out)

	out, err = d.ExecuteQuery(ctx, "answer", nil)
	require.NoError(t, err)
	assert.Equal(t, 42, out)

	_, err = d.ExecuteCommand(ctx, "missing", nil)
	assert.ErrorIs(t, err, ErrHandlerNotFound)
	_, err = d.ExecuteQuery(ctx, "missing", nil)
	assert.ErrorIs(t, err, ErrHandlerNotFound)

	assert.Panics(t, func() {
		d.RegisterCommand("echo", func(context.Context, interface{}) (interface{}, error) { return nil, nil })
	})
}
