// Package apperr defines the error taxonomy shared by every domain
// service and the single gin middleware that maps it onto HTTP
// status codes and the response envelope.
package apperr

import "fmt"

// Kind classifies an application error independently of its HTTP
// representation, so services never import net/http or gin.
type Kind string

const (
	KindValidation     Kind = "VALIDATION"
	KindAuthentication Kind = "AUTHENTICATION"
	KindAuthorization  Kind = "AUTHORIZATION"
	KindNotFound       Kind = "NOT_FOUND"
	KindConflict       Kind = "CONFLICT"
	KindRateLimited    Kind = "RATE_LIMITED"
	KindInternal       Kind = "INTERNAL"
)

// Error is the concrete type every domain returns instead of a bare
// error, so the top-level middleware can recover the Kind without
// string-matching messages.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error     { return New(KindValidation, message) }
func Authentication(message string) *Error { return New(KindAuthentication, message) }
func Authorization(message string) *Error  { return New(KindAuthorization, message) }
func NotFound(message string) *Error       { return New(KindNotFound, message) }
func Conflict(message string) *Error       { return New(KindConflict, message) }
func RateLimited(message string) *Error    { return New(KindRateLimited, message) }
func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

// As unwraps err into an *Error, returning ok=false for anything the
// taxonomy doesn't recognize (callers treat that as KindInternal).
func As(err error) (*Error, bool) {
	appErr, ok := err.(*Error)
	return appErr, ok
}
