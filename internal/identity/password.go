package identity

import (
	"unicode"
	"unicode/utf8"
)

// MinPasswordLength is the minimum number of characters of a password.
const MinPasswordLength = 6

// Rule identifies one password policy rule.
type Rule int

const (
	// RuleLength requires at least MinPasswordLength characters.
	RuleLength Rule = iota + 1
	// RuleUppercase requires at least one uppercase letter.
	RuleUppercase
	// RuleLowercase requires at least one lowercase letter.
	RuleLowercase
)

// String returns the user facing message of the rule.
func (r Rule) String() string {
	switch r {
	case RuleLength:
		return "Password must be at least 6 characters long"
	case RuleUppercase:
		return "Password must contain at least one uppercase letter"
	case RuleLowercase:
		return "Password must contain at least one lowercase letter"
	default:
		return "Password is not allowed"
	}
}

// WeakPasswordError reports the first password rule that failed.
type WeakPasswordError struct {
	Rule Rule
}

func (e *WeakPasswordError) Error() string {
	return e.Rule.String()
}

// Is makes errors.Is(err, ErrWeakPassword) hold.
func (e *WeakPasswordError) Is(target error) bool {
	return target == ErrWeakPassword
}

// ValidatePassword checks the password policy. Rules are evaluated in the
// order length, uppercase, lowercase and the first failing rule is returned.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return &WeakPasswordError{Rule: RuleLength}
	}

	var upper, lower bool

	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		}
	}

	if !upper {
		return &WeakPasswordError{Rule: RuleUppercase}
	}

	if !lower {
		return &WeakPasswordError{Rule: RuleLowercase}
	}

	return nil
}
