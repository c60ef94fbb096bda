package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeniva/backend/internal/domain/shared"
)

type signupLike struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Space    string `json:"space" validate:"omitempty,oneof=agent partner traveler"`
}

func TestStruct(t *testing.T) {
	t.Run("valid input", func(t *testing.T) {
		assert.NoError(t, Struct(signupLike{Email: "a@b.io", Password: "longenough"}))
	})

	t.Run("reports json field names", func(t *testing.T) {
		err := Struct(signupLike{Email: "nope", Password: "longenough"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		assert.Contains(t, err.Error(), "email: Invalid email format")

		verrs, ok := FieldErrors(err)
		require.True(t, ok)
		assert.Equal(t, "email", verrs[0].Field())
	})

	t.Run("string length message", func(t *testing.T) {
		err := Struct(signupLike{Email: "a@b.io", Password: "short"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Must be at least 8 characters")
	})

	t.Run("oneof message", func(t *testing.T) {
		err := Struct(signupLike{Email: "a@b.io", Password: "longenough", Space: "moon"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Must be one of: agent partner traveler")
	})
}
