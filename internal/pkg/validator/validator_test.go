package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestV10Validator(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	type payload struct {
		Title    string `validate:"required"`
		MaxCount int    `validate:"gte=1"`
	}

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, v.Validate(payload{Title: "hello", MaxCount: 3}))
	})

	t.Run("FieldErrorsKeyedBySnakeCase", func(t *testing.T) {
		err := v.Validate(payload{})

		var verr V10ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Values(), "title")
		assert.Contains(t, verr.Values(), "max_count")
	})
}
