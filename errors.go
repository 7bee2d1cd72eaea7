package identity

import (
	"errors"
	"sort"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeAccountNotFound         = "ACCOUNT_NOT_FOUND"
	TextCodeInvalidCreds            = "INVALID_CREDENTIALS"
	TextCodeCorruptDigest           = "CORRUPT_DIGEST"
	TextCodeTokenExpired            = "TOKEN_EXPIRED"
	TextCodeActivationExpired       = "ACTIVATION_EXPIRED"
	TextCodeInvalidResetToken       = "INVALID_RESET_TOKEN"
	TextCodeInvalidActivationToken  = "INVALID_ACTIVATION_TOKEN"
	TextCodeInvalidRememberToken    = "INVALID_REMEMBER_TOKEN"
	TextCodeAccountNotActivated     = "ACCOUNT_NOT_ACTIVATED"
	TextCodeEmptySecret             = "EMPTY_SECRET"
	TextCodeValidationFailed        = "VALIDATION_FAILED"
	TextCodeAlreadyFollowing        = "ALREADY_FOLLOWING"
	TextCodeEmailTaken              = "EMAIL_TAKEN"
	TextCodeInvalidConfiguration    = "INVALID_CONFIGURATION"
	TextCodeTokenGenerationFailed   = "TOKEN_GENERATION_FAILED"
	TextCodeActivationAlreadyActive = "ACCOUNT_ALREADY_ACTIVATED"
)

// ErrAccountNotFound is returned when no account matches the lookup.
// Login flows treat it as an authentication failure.
var ErrAccountNotFound = goerrors.New("account not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrMismatchedHashAndPassword is the bad password authentication failure.
var ErrMismatchedHashAndPassword = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds)

// ErrCorruptDigest flags a stored digest that cannot be decoded. It is a data
// integrity failure, not a wrong secret.
var ErrCorruptDigest = goerrors.New("stored digest is malformed", goerrors.CategoryInternal).
	WithTextCode(TextCodeCorruptDigest)

var ErrResetExpired = goerrors.New("password reset has expired", goerrors.CategoryValidation).
	WithTextCode(TextCodeTokenExpired)

var ErrResetTokenInvalid = goerrors.New("invalid password reset token", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidResetToken)

var ErrActivationTokenInvalid = goerrors.New("invalid activation link", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidActivationToken)

var ErrActivationExpired = goerrors.New("activation link has expired", goerrors.CategoryValidation).
	WithTextCode(TextCodeActivationExpired)

var ErrAccountAlreadyActivated = goerrors.New("account is already activated", goerrors.CategoryConflict).
	WithTextCode(TextCodeActivationAlreadyActive).
	WithCode(goerrors.CodeConflict)

var ErrRememberTokenInvalid = goerrors.New("invalid remember token", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidRememberToken)

var ErrAccountNotActivated = goerrors.New("account not activated", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountNotActivated)

// ErrNoEmptyString is returned when digesting an empty secret.
var ErrNoEmptyString = goerrors.New("secret must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptySecret)

// ErrValidation is the parent of every *ValidationError.
var ErrValidation = goerrors.New("account validation failed", goerrors.CategoryValidation).
	WithTextCode(TextCodeValidationFailed).
	WithCode(goerrors.CodeBadRequest)

var ErrAlreadyFollowing = goerrors.New("relationship already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeAlreadyFollowing).
	WithCode(goerrors.CodeConflict)

// ErrEmailTaken is reported by stores when the unique email index rejects a write.
var ErrEmailTaken = goerrors.New("email has already been taken", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(goerrors.CodeConflict)

var ErrTokenGeneration = goerrors.New("unable to generate token", goerrors.CategoryInternal).
	WithTextCode(TextCodeTokenGenerationFailed)

// Validation reasons reported per field.
const (
	ReasonRequired             = "is required"
	ReasonPasswordRequired     = "password required"
	ReasonTooLong              = "is too long"
	ReasonTooShort             = "is too short"
	ReasonInvalidFormat        = "is invalid"
	ReasonTaken                = "has already been taken"
	ReasonConfirmationMismatch = "does not match password"
)

// ValidationError lists the fields of an account that failed validation,
// keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrValidation.Message
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}

	return ErrValidation.Message + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Reason returns the failure reason recorded for field.
func (e *ValidationError) Reason(field string) (string, bool) {
	if e == nil {
		return "", false
	}
	r, ok := e.Fields[field]
	return r, ok
}

func (e *ValidationError) add(field, reason string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, exists := e.Fields[field]; exists {
		return
	}
	e.Fields[field] = reason
}

func (e *ValidationError) empty() bool {
	return e == nil || len(e.Fields) == 0
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

// IsAuthFailure reports whether err is one of the login failures callers must
// render with the same generic message.
func IsAuthFailure(err error) bool {
	return hasTextCode(err, TextCodeAccountNotFound, TextCodeInvalidCreds)
}

// IsCorruptDigest reports whether err signals a malformed stored digest.
func IsCorruptDigest(err error) bool {
	var de *digestError
	if errors.As(err, &de) {
		return true
	}
	return hasTextCode(err, TextCodeCorruptDigest)
}

// IsTokenGenerationError reports whether err comes from a failed read of
// random bytes.
func IsTokenGenerationError(err error) bool {
	return hasTextCode(err, TextCodeTokenGenerationFailed)
}

// hasTextCode walks the wrap chain looking for a *goerrors.Error carrying one
// of codes.
func hasTextCode(err error, codes ...string) bool {
	if err == nil {
		return false
	}

	if ge, ok := err.(*goerrors.Error); ok {
		for _, code := range codes {
			if ge.TextCode == code {
				return true
			}
		}
	}

	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range u.Unwrap() {
			if hasTextCode(inner, codes...) {
				return true
			}
		}
		return false
	case interface{ Unwrap() error }:
		return hasTextCode(u.Unwrap(), codes...)
	}
	return false
}

func corruptDigest(field string, cause error) error {
	return &digestError{field: field, cause: cause}
}

// digestError keeps the failing field and the decoder cause while still
// matching ErrCorruptDigest.
type digestError struct {
	field string
	cause error
}

func (e *digestError) Error() string {
	msg := ErrCorruptDigest.Message
	if e.field != "" {
		msg += " (" + e.field + ")"
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *digestError) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrCorruptDigest}
	}
	return []error{ErrCorruptDigest, e.cause}
}
