package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an error for batch-level policy decisions: configuration
// errors abort a run before any processing starts, input and dependency
// errors are recorded per file, resource errors are fatal for the affected
// item only.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfig
	KindInput
	KindDependency
	KindResource
)

// Sentinel errors for the failure categories the tool distinguishes.
var (
	ErrConfig        = New(KindConfig, "configuration error")
	ErrUnknownFormat = New(KindConfig, "unknown output format")
	ErrStageChain    = New(KindConfig, "invalid stage chain")

	ErrFileNotFound = New(KindInput, "file not found")
	ErrCorruptAudio = New(KindInput, "corrupt or unreadable audio")

	ErrModelLoad     = New(KindDependency, "model load failed")
	ErrTranscription = New(KindDependency, "transcription failed")
	ErrRecording     = New(KindDependency, "recording failed")
	ErrAudioProcess  = New(KindDependency, "audio processing failed")

	ErrResource = New(KindResource, "resource exhausted")
)

// Error carries a message, a kind and an optional cause.
type Error struct {
	kind    Kind
	message string
	cause   error
}

// New creates a new error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

// Newf creates a new formatted error of the given kind.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

// Wrap attaches context to err, keeping err's kind reachable via Unwrap.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{kind: KindOf(err), message: message, cause: err}
}

// Wrapf attaches formatted context to err.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{kind: KindOf(err), message: fmt.Sprintf(format, args...), cause: err}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches two package errors by message so sentinels survive wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.message == t.message
}

// Kind returns the error's classification.
func (e *Error) Kind() Kind {
	return e.kind
}

// KindOf walks the chain and returns the first classification found.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.kind
		}
		err = stderrors.Unwrap(err)
	}
	return KindUnknown
}

// IsConfig reports whether err aborts a run up front.
func IsConfig(err error) bool {
	return KindOf(err) == KindConfig
}

// IsInput reports whether err concerns the input file itself.
func IsInput(err error) bool {
	return KindOf(err) == KindInput
}

// Is delegates to the standard library so callers need only one import.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As delegates to the standard library.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}
