package services

import "errors"

// Error kinds. Handlers map these to transport status codes with errors.Is.
var (
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not found")
	ErrUpload             = errors.New("upload failed")
)

// Error is a failure with a message that is safe to show to callers.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// invalidCredentials is shared by every failed login so that an unknown
// identifier and a wrong password are indistinguishable.
var invalidCredentials = &Error{Kind: ErrInvalidCredentials, Message: "Invalid credentials"}

func validationError(message string) error {
	return &Error{Kind: ErrValidation, Message: message}
}

func conflictError(message string) error {
	return &Error{Kind: ErrConflict, Message: message}
}

func notFoundError(message string) error {
	return &Error{Kind: ErrNotFound, Message: message}
}

func uploadError(message string, err error) error {
	return &Error{Kind: ErrUpload, Message: message, Err: err}
}
