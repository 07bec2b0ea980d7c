package handler_test

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/GreenNest/GreenNest/internal/identity"
	"github.com/GreenNest/GreenNest/internal/web/handler"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{
			name: "weak password shows the rule",
			err:  &identity.Error{Op: identity.OpSignUp, Kind: identity.ErrWeakPassword, Err: &identity.WeakPasswordError{Rule: identity.RuleUppercase}},
			want: "Password must contain at least one uppercase letter",
		},
		{name: "invalid credentials", err: identity.ErrInvalidCredentials, want: "Invalid email or password."},
		{name: "account exists", err: identity.ErrAccountExists, want: "An account with this email already exists."},
		{name: "not authenticated", err: identity.ErrNotAuthenticated, want: "Please sign in first."},
		{name: "network", err: identity.ErrNetworkFailure, want: "The sign-in service is not reachable. Please try again."},
		{name: "unknown", err: errors.New("boom"), want: "Something went wrong. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, handler.ErrorMessage(tt.err))
		})
	}
}

type form struct {
	Name     string `validate:"required,max=5"`
	Email    string `validate:"required,email"`
	PhotoURL string `validate:"omitempty,url"`
}

func TestValidationMessage(t *testing.T) {
	v := validator.New()

	tests := []struct {
		name string
		form form
		want string
	}{
		{name: "required", form: form{Email: "a@b.co"}, want: "Name is required"},
		{name: "max", form: form{Name: "toolong", Email: "a@b.co"}, want: "Name must be at most 5 characters"},
		{name: "email", form: form{Name: "Gina", Email: "nope"}, want: "Email must be a valid email address"},
		{name: "url", form: form{Name: "Gina", Email: "a@b.co", PhotoURL: "not a url"}, want: "Photo URL must be a valid URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, handler.ValidationMessage(v.Struct(tt.form)))
		})
	}

	assert.Equal(t, "Please check your input.", handler.ValidationMessage(errors.New("other")))
}
