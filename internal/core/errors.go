package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeMissingCredential = "missing_credential"
	ErrCodeInvalidCredential = "invalid_credential"
	ErrCodeUnknownUser       = "unknown_user"
	ErrCodeUnauthorized      = "unauthorized"
	ErrCodeAccessDenied      = "access_denied"
	ErrCodeNotFound          = "not_found"
	ErrCodeBadRequest        = "bad_request"
	ErrCodeInternal          = "internal_error"
)

var (
	// ErrNotRegistered is returned when an operation targets a connection the
	// registry no longer knows about.
	ErrNotRegistered = errors.New("connection not registered")
	// ErrIdentityBound is returned when a connection that already carries one
	// identity tries to bind a different one.
	ErrIdentityBound = errors.New("connection already bound to a user")
	// ErrUserNotFound is the directory's answer for an id with no identity.
	ErrUserNotFound = errors.New("user not found")
	// ErrConversationNotFound is the store's answer for a conversation id
	// that does not exist.
	ErrConversationNotFound = errors.New("conversation not found")
	// errConnClosed reports a delivery attempt to a closed connection.
	errConnClosed = errors.New("connection closed")
	// errSlowConsumer reports a delivery dropped because the outbound buffer is full.
	errSlowConsumer = errors.New("slow consumer")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
