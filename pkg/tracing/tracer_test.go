package tracing

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopTracerHandsResultThroughUnmodified(t *testing.T) {
	t.Parallel()

	input := map[string]interface{}{"payload": 1}
	out, err := NopTracer{}.RunInSpan(context.Background(), SpanMetadata{Name: "m"}, input, func(ctx context.Context, in interface{}) (interface{}, error) {
		assert.Equal(t, input, in)
		return "result", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "result", out)
}

func TestLogTracerPropagatesErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("span body failed")
	out, err := LogTracer{}.RunInSpan(context.Background(), SpanMetadata{Name: "m", Type: "action", Subtype: "model", Index: 3}, nil, func(ctx context.Context, in interface{}) (interface{}, error) {
		return nil, boom
	})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, boom)
}
