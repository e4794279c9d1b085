package authpage

import (
	"net/http"
	"sort"
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidPageContext     = "INVALID_PAGE_CONTEXT"
	TextCodeUnsupportedPageContext = "UNSUPPORTED_PAGE_CONTEXT"
	TextCodeSubmissionInFlight     = "SUBMISSION_IN_FLIGHT"
	TextCodeIdentityNotFound       = "IDENTITY_NOT_FOUND"
	TextCodeUserExists             = "USER_EXISTS"
	TextCodeInvalidCreds           = errors.TextCodeInvalidCredentials
	TextCodeTooManyAttempts        = errors.TextCodeTooManyAttempts
	TextCodeSessionNotFound        = errors.TextCodeSessionNotFound
	TextCodeSessionDecodeError     = errors.TextCodeSessionDecodeError
	TextCodeEmptyPassword          = errors.TextCodeEmptyPassword
	TextCodeTokenExpired           = errors.TextCodeTokenExpired
	TextCodeTokenMalformed         = errors.TextCodeTokenMalformed
)

// ErrInvalidPageContext is returned when parsing an unknown page context
var ErrInvalidPageContext = errors.New("invalid page context", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidPageContext).
	WithCode(errors.CodeNotFound)

// ErrUnsupportedPageContext is returned by the authenticate action for
// contexts that have no login or register semantics
var ErrUnsupportedPageContext = errors.New("page context does not authenticate", errors.CategoryBadInput).
	WithTextCode(TextCodeUnsupportedPageContext).
	WithCode(errors.CodeBadRequest)

// ErrSubmissionInFlight is returned when a form is submitted twice
var ErrSubmissionInFlight = errors.New("submission already in flight", errors.CategoryConflict).
	WithTextCode(TextCodeSubmissionInFlight).
	WithCode(errors.CodeConflict)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(errors.CodeNotFound)

// ErrUserExists is returned when registering a taken username or email
var ErrUserExists = errors.New("user already exists", errors.CategoryConflict).
	WithTextCode(TextCodeUserExists).
	WithCode(errors.CodeConflict)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword is returned on password mismatch
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrTooManyLoginAttempts is returned while a user is cooling down
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts).
	WithCode(errors.CodeTooManyRequests)

// ErrUnableToFindSession is the error when our request has no cookie
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithTextCode(TextCodeSessionNotFound).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToDecodeSession unable to decode JWT from session cookie
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithTextCode(TextCodeSessionDecodeError).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired wraps jwt expiration failures
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed wraps every other token parse failure
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// withSource copies sentinel and attaches src. The copy still matches
// sentinel under errors.Is, also after errors.Wrap clones it again.
func withSource(sentinel *errors.Error, src error) *errors.Error {
	e := sentinel.Clone()
	e.Source = errors.Join(sentinel, src)
	return e
}

// ValidationError is returned by Form.Submit when the values are invalid.
type ValidationError struct {
	Errors FormErrors
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for field, msg := range e.Errors {
		fields = append(fields, string(field)+": "+msg)
	}
	sort.Strings(fields)
	return "invalid form: " + strings.Join(fields, "; ")
}

// RichError exposes the form errors as a validation category error
func (e *ValidationError) RichError() *errors.Error {
	fields := make(map[string]string, len(e.Errors))
	for field, msg := range e.Errors {
		fields[string(field)] = msg
	}
	return errors.NewValidationFromMap("invalid form", fields).
		WithCode(http.StatusUnprocessableEntity)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
