package subscribe

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to business outcome errors. Callers should branch on
// these rather than on error messages.
const (
	// TextCodeInvalidEmail flags a syntactically invalid email address
	TextCodeInvalidEmail = "INVALID_EMAIL"
	// TextCodeEmailTaken flags an address already claimed by another subscriber
	TextCodeEmailTaken = "EMAIL_TAKEN"
	// TextCodeInvalidToken flags a token that is absent, consumed, or expired.
	// The three cases are deliberately indistinguishable to the caller.
	TextCodeInvalidToken = "INVALID_TOKEN"
)

// IsInvalidEmail will check for email syntax rejections
func IsInvalidEmail(err error) bool {
	return hasTextCode(err, TextCodeInvalidEmail)
}

// IsEmailTaken will check for email uniqueness conflicts
func IsEmailTaken(err error) bool {
	return hasTextCode(err, TextCodeEmailTaken)
}

// IsInvalidToken will check for rejected tokens
func IsInvalidToken(err error) bool {
	return hasTextCode(err, TextCodeInvalidToken)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}

// textCodeDuplicateKey is the code go-repository-bun attaches when it wraps
// a driver level unique constraint failure.
const textCodeDuplicateKey = "DUPLICATE_KEY"

// isUniqueViolation recognizes storage level unique constraint failures.
// The unique constraints on email and token columns are the authoritative
// enforcement; existence checks before writes are only a first line.
// The repository layer wraps driver errors into typed duplicate key errors,
// so the raw driver text only surfaces on paths that bypass it.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == textCodeDuplicateKey {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, textCodeDuplicateKey) ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "Duplicate entry")
}
