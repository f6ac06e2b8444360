package validator

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type signupForm struct {
	ID       string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=4"`
}

func TestFormatValidationError(t *testing.T) {
	err := validator.New().Struct(signupForm{Email: "not-an-email", Password: "abc"})

	msg := FormatValidationError(err)

	assert.Contains(t, msg, "ID is required")
	assert.Contains(t, msg, "Email must be a valid email")
	assert.Contains(t, msg, "Password must be at least 4 characters")
}

func TestFormatValidationError_PlainError(t *testing.T) {
	assert.Equal(t, "EOF", FormatValidationError(errors.New("EOF")))
}

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("user@example.com"))
	assert.False(t, IsEmail(""))
	assert.False(t, IsEmail("user@"))
}
