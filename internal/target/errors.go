package target

import (
	"errors"
	"fmt"
)

// Error is the error type for target resolution and build failures.
//
// Code tags the variant; the remaining fields carry the payload relevant to
// that variant:
//   - UnknownTarget: Token, Segment (when a single segment was unrecognised)
//   - MalformedTargetString: Token, Segment (the missing segment)
//   - UnsupportedCombination: Token (when resolving), Target
//   - UnsupportedHost: Segment ("operating system" or "CPU architecture"), Token (host value)
//   - ToolchainFailure: Target, ExitCode
//   - TargetDirectoryNotFound: Target, Path
type Error struct {
	Code     ErrorCode
	Message  string
	Token    string
	Segment  string
	Target   Target
	ExitCode int
	Path     string
	Err      error
}

// ErrorCode categorises target errors.
type ErrorCode string

const (
	// ErrCodeUnknownTarget indicates a token is neither a target literal nor an alias.
	ErrCodeUnknownTarget ErrorCode = "UNKNOWN_TARGET"

	// ErrCodeMalformedTarget indicates a literal is missing its OS or CPU segment.
	ErrCodeMalformedTarget ErrorCode = "MALFORMED_TARGET_STRING"

	// ErrCodeUnsupportedCombination indicates the excluded (Windows, AArch64) pair.
	ErrCodeUnsupportedCombination ErrorCode = "UNSUPPORTED_COMBINATION"

	// ErrCodeUnsupportedHost indicates the running OS or CPU is not recognised.
	ErrCodeUnsupportedHost ErrorCode = "UNSUPPORTED_HOST"

	// ErrCodeToolchainFailure indicates the toolchain exited with a nonzero status.
	ErrCodeToolchainFailure ErrorCode = "TOOLCHAIN_FAILURE"

	// ErrCodeDirectoryNotFound indicates a clean request named a missing directory.
	ErrCodeDirectoryNotFound ErrorCode = "TARGET_DIRECTORY_NOT_FOUND"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsCode reports whether err is, or wraps, an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Code == code
	}
	return false
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var te *Error
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

// NewUnknownTargetError reports an unrecognised token. segment is empty when
// the token as a whole matched nothing.
func NewUnknownTargetError(token, segment, value string) *Error {
	msg := fmt.Sprintf("unknown target %q", token)
	if segment != "" {
		msg = fmt.Sprintf("unknown %s %q in target %q", segment, value, token)
	}
	return &Error{
		Code:    ErrCodeUnknownTarget,
		Message: msg,
		Token:   token,
		Segment: segment,
	}
}

// NewMalformedTargetError reports a literal missing the named segment.
func NewMalformedTargetError(token, segment string) *Error {
	return &Error{
		Code:    ErrCodeMalformedTarget,
		Message: fmt.Sprintf("invalid target %q (%s not specified)", token, segment),
		Token:   token,
		Segment: segment,
	}
}

// NewUnsupportedCombinationError reports the excluded OS/CPU pair.
func NewUnsupportedCombinationError(token string, t Target) *Error {
	msg := fmt.Sprintf("unsupported build target %s-%s", t.OS, t.CPU)
	if token != "" {
		msg = fmt.Sprintf("unsupported build target %s-%s (from %q)", t.OS, t.CPU, token)
	}
	return &Error{
		Code:    ErrCodeUnsupportedCombination,
		Message: msg,
		Token:   token,
		Target:  t,
	}
}

// NewUnsupportedHostError reports a host value that could not be classified.
func NewUnsupportedHostError(segment, value string) *Error {
	return &Error{
		Code:    ErrCodeUnsupportedHost,
		Message: fmt.Sprintf("unsupported %s: %s", segment, value),
		Token:   value,
		Segment: segment,
	}
}

// NewToolchainFailureError reports a nonzero toolchain exit.
func NewToolchainFailureError(t Target, exitCode int, err error) *Error {
	return &Error{
		Code:     ErrCodeToolchainFailure,
		Message:  fmt.Sprintf("toolchain exited with status code %d for %s", exitCode, t),
		Target:   t,
		ExitCode: exitCode,
		Err:      err,
	}
}

// NewDirectoryNotFoundError reports a missing output directory during clean.
func NewDirectoryNotFoundError(t Target, path string) *Error {
	return &Error{
		Code:    ErrCodeDirectoryNotFound,
		Message: fmt.Sprintf("output directory for %s not found: %s", t, path),
		Target:  t,
		Path:    path,
	}
}
