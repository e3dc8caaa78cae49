// Package validation checks registration input against the account rules.
package validation

import (
	"regexp"
	"unicode/utf8"
)

const (
	MinUsernameLength = 6
	MinPasswordLength = 8
)

// Violation messages, in the order rules are evaluated.
const (
	MsgUsernameTooShort = "Username must be at least 6 characters long"
	MsgPasswordTooShort = "Password must be at least 8 characters long"
	MsgInvalidEmail     = "Invalid email format"
)

// emailRegex accepts local@domain.tld: no whitespace or extra '@', and at
// least one dot in the domain part.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validate returns every violated rule (username, password, email order).
// An empty result means the input is valid.
func Validate(username, password, email string) []string {
	var violations []string

	if utf8.RuneCountInString(username) < MinUsernameLength {
		violations = append(violations, MsgUsernameTooShort)
	}

	if utf8.RuneCountInString(password) < MinPasswordLength {
		violations = append(violations, MsgPasswordTooShort)
	}

	if email == "" || !emailRegex.MatchString(email) {
		violations = append(violations, MsgInvalidEmail)
	}

	return violations
}
