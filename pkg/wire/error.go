package wire

import "fmt"

// ErrorKind classifies why an operation failed, matching the error
// taxonomy the orchestrator replies with on the wire.
type ErrorKind string

const (
	ErrValidation   ErrorKind = "VALIDATION"
	ErrNotFound     ErrorKind = "NOT_FOUND"
	ErrUnauthorized ErrorKind = "UNAUTHORIZED"
	ErrUnreachable  ErrorKind = "UNREACHABLE"
	ErrTimeout      ErrorKind = "TIMEOUT"
	ErrUnsupported  ErrorKind = "UNSUPPORTED"
	ErrInternal     ErrorKind = "INTERNAL"
)

// Error is a classified, wire-serializable error. It implements the
// error interface so it can flow through normal Go error handling
// before being turned into an outbound "error" message.
type Error struct {
	Kind    ErrorKind `json:"code"`
	Message string    `json:"error"`
	Details any       `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError builds a classified error.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ErrorContent is the `content` payload of an outbound "error" message.
type ErrorContent struct {
	Error   string    `json:"error"`
	Code    ErrorKind `json:"code"`
	Details any       `json:"details,omitempty"`
}

// NewErrorMessage builds an "error" Message referencing requestID (the
// id of the message this is replying to, if any).
func NewErrorMessage(id string, requestID string, err *Error) Message {
	content := ErrorContent{Error: err.Message, Code: err.Kind, Details: err.Details}
	raw, _ := NewMessage(id, "error", content)
	raw.RequestID = requestID
	return raw
}
