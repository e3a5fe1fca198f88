package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// Kind represents the category of error
type Kind int

const (
	// KindConfiguration - missing credential or invalid configuration
	KindConfiguration Kind = iota
	// KindMissingInput - a required field is absent for the selected command
	KindMissingInput
	// KindFileIO - an input or output path could not be read or written
	KindFileIO
	// KindMalformedReport - the test report is not valid JSON (or not a known shape in strict mode)
	KindMalformedReport
	// KindService - network or API failure surfaced by a remote client
	KindService
	// KindInternal - unexpected internal state
	KindInternal
)

// Error represents a categorized error with context
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Is matches any *Error of the same kind, so errors.Is(err, errors.MissingInputKind) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// DetailedString returns the message with kind and sorted context, for debug logs
func (e *Error) DetailedString() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] %s\n", e.Kind, e.Message))

	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf("Caused by: %v\n", e.Cause))
	}

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString("Context:\n")
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("  %s: %v\n", k, e.Context[k]))
		}
	}

	return sb.String()
}

// String returns the kind name used in diagnostics
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "ConfigurationError"
	case KindMissingInput:
		return "MissingInput"
	case KindFileIO:
		return "FileIOError"
	case KindMalformedReport:
		return "MalformedReport"
	case KindService:
		return "ServiceError"
	case KindInternal:
		return "InternalError"
	default:
		return "UnknownError"
	}
}

// Sentinels for errors.Is comparisons
var (
	ConfigurationKind   = &Error{Kind: KindConfiguration}
	MissingInputKind    = &Error{Kind: KindMissingInput}
	FileIOKind          = &Error{Kind: KindFileIO}
	MalformedReportKind = &Error{Kind: KindMalformedReport}
	ServiceKind         = &Error{Kind: KindService}
)

// New creates a new error with the given kind and message
func New(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a kind and message
func Wrap(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}

	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   err,
		Context: make(map[string]interface{}),
	}
}

// Convenience constructors

// ConfigError creates a configuration error
func ConfigError(message string) *Error {
	return New(KindConfiguration, message)
}

// ConfigErrorf creates a configuration error with formatting
func ConfigErrorf(format string, args ...interface{}) *Error {
	return New(KindConfiguration, fmt.Sprintf(format, args...))
}

// MissingInput creates a missing-input error
func MissingInput(message string) *Error {
	return New(KindMissingInput, message)
}

// FileIOError wraps a filesystem error
func FileIOError(err error, path string) *Error {
	return Wrap(err, KindFileIO, fmt.Sprintf("failed to access %s", path)).WithContext("path", path)
}

// MalformedReport wraps a report parse failure
func MalformedReport(err error, message string) *Error {
	if err == nil {
		return New(KindMalformedReport, message)
	}
	return Wrap(err, KindMalformedReport, message)
}

// ServiceError wraps a remote service failure
func ServiceError(err error, message string) *Error {
	return Wrap(err, KindService, message)
}

// ServiceErrorf wraps a remote service failure with formatting
func ServiceErrorf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, KindService, fmt.Sprintf(format, args...))
}

// GetKind returns the kind of the first *Error in the chain, or KindInternal
func GetKind(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsMissingInput reports whether err is a missing-input error
func IsMissingInput(err error) bool {
	return err != nil && stderrors.Is(err, MissingInputKind)
}

// ExitCode maps an error to the process exit status
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
