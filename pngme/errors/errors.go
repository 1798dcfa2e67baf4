// Package errors defines the coded errors returned when a PNG datastream or
// a chunk-type argument is rejected.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSignature: the input does not begin with the 8-byte PNG magic.
	ErrInvalidSignature = &PngError{Code: "INVALID_SIGNATURE", Message: "invalid PNG signature"}

	// ErrInvalidLength: a chunk record is cut short, or declares more than 2^31-1 data bytes.
	ErrInvalidLength = &PngError{Code: "INVALID_LENGTH", Message: "invalid chunk length"}

	// ErrCrcMismatch: the stored CRC does not cover the chunk's type and data,
	// usually because the file was truncated or tampered with.
	ErrCrcMismatch = &PngError{Code: "CRC_MISMATCH", Message: "chunk CRC mismatch"}

	// ErrInvalidTypeLength: a chunk type argument is not 4 bytes long.
	ErrInvalidTypeLength = &PngError{Code: "INVALID_TYPE_LENGTH", Message: "chunk type must be exactly 4 bytes"}

	// ErrInvalidUtf8: a payload read back as a message is not UTF-8 text.
	ErrInvalidUtf8 = &PngError{Code: "INVALID_UTF8", Message: "chunk data is not valid UTF-8"}

	// ErrChunkNotFound: no chunk of the requested type is present.
	ErrChunkNotFound = &PngError{Code: "CHUNK_NOT_FOUND", Message: "chunk not found"}

	// ErrInvalidChunkType: a message cannot be hidden under this type, either
	// because a byte is not a letter or because the reserved bit is set.
	ErrInvalidChunkType = &PngError{Code: "INVALID_CHUNK_TYPE", Message: "invalid chunk type"}
)

// PngError is a rejection carrying a stable Code. Derived values made with
// the With* methods keep the code, so errors.Is against the sentinels above
// still matches them.
type PngError struct {
	Code    string
	Message string
	Cause   error
	Details map[string]interface{} // chunk type, offsets, lengths
}

func (e *PngError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	if len(e.Details) > 0 {
		return fmt.Sprintf("[%s] %s (details: %v)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *PngError) Unwrap() error {
	return e.Cause
}

// Is matches any PngError with the same code.
func (e *PngError) Is(target error) bool {
	t, ok := target.(*PngError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy whose Cause explains the rejection.
func (e *PngError) WithCause(cause error) *PngError {
	return &PngError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   cause,
		Details: e.Details,
	}
}

// WithDetail returns a copy with key set in Details. The receiver, which is
// usually a shared sentinel, is left untouched.
func (e *PngError) WithDetail(key string, value interface{}) *PngError {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &PngError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   e.Cause,
		Details: details,
	}
}

// WithMessage returns a copy with a more specific message and the same code.
func (e *PngError) WithMessage(message string) *PngError {
	return &PngError{
		Code:    e.Code,
		Message: message,
		Cause:   e.Cause,
		Details: e.Details,
	}
}

// IsPngError reports whether err, or anything it wraps, is a PngError.
func IsPngError(err error) bool {
	var pngErr *PngError
	return errors.As(err, &pngErr)
}

// GetErrorCode returns the code of the first PngError in err's chain, or ""
// if there is none.
func GetErrorCode(err error) string {
	var pngErr *PngError
	if errors.As(err, &pngErr) {
		return pngErr.Code
	}
	return ""
}
