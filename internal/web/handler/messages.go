package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/GreenNest/GreenNest/internal/identity"
)

// ErrorMessage turns an auth error into the text shown to the visitor.
func ErrorMessage(err error) string {
	var weak *identity.WeakPasswordError
	if errors.As(err, &weak) {
		return weak.Rule.String()
	}

	switch identity.Kind(err) {
	case nil:
		return ""
	case identity.ErrInvalidCredentials:
		return "Invalid email or password."
	case identity.ErrWeakPassword:
		return identity.RuleLength.String()
	case identity.ErrAccountExists:
		return "An account with this email already exists."
	case identity.ErrNotAuthenticated:
		return "Please sign in first."
	case identity.ErrNetworkFailure:
		return "The sign-in service is not reachable. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}

// fieldNames maps form struct fields to their labels.
var fieldNames = map[string]string{ //nolint:gochecknoglobals
	"Name":     "Name",
	"Email":    "Email",
	"Password": "Password",
	"PhotoURL": "Photo URL",
}

// ValidationMessage describes the first failed form field.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Please check your input."
	}

	fe := verrs[0]

	label, ok := fieldNames[fe.Field()]
	if !ok {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return label + " must be a valid email address"
	case "url", "http_url":
		return label + " must be a valid URL"
	case "max":
		return label + " must be at most " + fe.Param() + " characters"
	default:
		return label + " is invalid (" + strings.ReplaceAll(fe.Tag(), "_", " ") + ")"
	}
}
