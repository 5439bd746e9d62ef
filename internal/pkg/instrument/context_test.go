package instrument

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrelationID(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		ctx := SetCorrelationID(context.Background(), "cid-123")

		assert.Equal(t, "cid-123", GetCorrelationID(ctx))
	})

	t.Run("EmptyWhenUnset", func(t *testing.T) {
		assert.Empty(t, GetCorrelationID(context.Background()))
	})

	t.Run("OverwriteWins", func(t *testing.T) {
		ctx := SetCorrelationID(context.Background(), "first")
		ctx = SetCorrelationID(ctx, "second")

		assert.Equal(t, "second", GetCorrelationID(ctx))
	})
}
