package dto

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationDetailsFromError(t *testing.T) {
	v := validator.New()

	t.Run("required and oneof tags", func(t *testing.T) {
		type payload struct {
			Status string `validate:"required,oneof=unassigned assigned completed"`
		}
		err := v.Struct(payload{})
		require.Error(t, err)

		details := ValidationDetailsFromError(err)
		require.Len(t, details, 1)
		assert.Equal(t, "status", details[0].Field)
		assert.Equal(t, "This field is required", details[0].Message)

		err = v.Struct(payload{Status: "done"})
		require.Error(t, err)
		details = ValidationDetailsFromError(err)
		require.Len(t, details, 1)
		assert.Equal(t, "Must be one of: unassigned, assigned, completed", details[0].Message)
	})

	t.Run("non-validator error collapses to body detail", func(t *testing.T) {
		details := ValidationDetailsFromError(errors.New("unexpected EOF"))
		require.Len(t, details, 1)
		assert.Equal(t, "body", details[0].Field)
	})
}
