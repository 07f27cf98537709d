package errors

import (
	stderrors "errors"
	"fmt"
	"path/filepath"
	"runtime"
)

// Kind classifies errors that cross component boundaries. Everything except
// KindExecutionFailed recovers at the prompt; execution failures surface only
// as an exit code.
type Kind int

const (
	KindUnknown Kind = iota
	KindParse
	KindSpawnFailed
	KindPathNotFound
	KindTranslationTimeout
	KindTranslationUnavailable
	KindExecutionFailed
	KindInvariantViolation
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse error"
	case KindSpawnFailed:
		return "spawn failed"
	case KindPathNotFound:
		return "path not found"
	case KindTranslationTimeout:
		return "translation timed out"
	case KindTranslationUnavailable:
		return "translation unavailable"
	case KindExecutionFailed:
		return "execution failed"
	case KindInvariantViolation:
		return "internal invariant violation"
	}
	return "unknown error"
}

type kindError struct {
	kind Kind
	err  error
}

func (e *kindError) Error() string { return e.err.Error() }
func (e *kindError) Unwrap() error { return e.err }

// New creates a new error with file and line number information.
func New(format string, a ...interface{}) error {
	return fmt.Errorf("[%s] %s", caller(), fmt.Sprintf(format, a...))
}

// Wrapf adds context (including file and line number) to an existing error.
// If the provided error is nil, Wrapf returns nil.
func Wrapf(err error, format string, a ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("[%s] %s: %w", caller(), fmt.Sprintf(format, a...), err)
}

// WithKind creates a new classified error.
func WithKind(kind Kind, format string, a ...interface{}) error {
	return &kindError{
		kind: kind,
		err:  fmt.Errorf("[%s] %s", caller(), fmt.Sprintf(format, a...)),
	}
}

// WrapKind classifies an existing error while adding context. A nil error
// stays nil.
func WrapKind(err error, kind Kind, format string, a ...interface{}) error {
	if err == nil {
		return nil
	}
	return &kindError{
		kind: kind,
		err:  fmt.Errorf("[%s] %s: %w", caller(), fmt.Sprintf(format, a...), err),
	}
}

// Classify attaches a kind to an existing error without altering its
// message. A nil error stays nil.
func Classify(err error, kind Kind) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: err}
}

// KindOf walks the wrap chain and returns the first classification found,
// or KindUnknown.
func KindOf(err error) Kind {
	var ke *kindError
	if stderrors.As(err, &ke) {
		return ke.kind
	}
	return KindUnknown
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool { return stderrors.As(err, target) }

func caller() string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "???:0"
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}
