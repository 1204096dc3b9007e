package types

import (
	"errors"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// ErrorKind classifies the failures an add invocation can report.
type ErrorKind string

const (
	ErrorKindUnknown                       ErrorKind = ""
	ErrorKindConflictingDependencyKind     ErrorKind = "conflicting-dependency-kind"
	ErrorKindConflictingSource             ErrorKind = "conflicting-source"
	ErrorKindOptionalNotAllowedForDevBuild ErrorKind = "optional-not-allowed-for-dev-build"
	ErrorKindEmptyTarget                   ErrorKind = "empty-target"
	ErrorKindInvalidVersionRequirement     ErrorKind = "invalid-version-requirement"
	ErrorKindInvalidUpgradeStrategy        ErrorKind = "invalid-upgrade-strategy"
	ErrorKindLookup                        ErrorKind = "lookup"
	ErrorKindDocumentParse                 ErrorKind = "document-parse"
	ErrorKindTableConflict                 ErrorKind = "table-conflict"
	ErrorKindInvalidCrateName              ErrorKind = "invalid-crate-name"
	ErrorKindUnsupportedSource             ErrorKind = "unsupported-source"
)

// EditError tags an errbuilder error with its ErrorKind and, when the
// failure concerns a single crate, the crate name.
type EditError struct {
	Kind ErrorKind
	Name string
	Err  error
}

func (e *EditError) Error() string {
	if e.Name == "" {
		return e.Err.Error()
	}
	return e.Name + ": " + e.Err.Error()
}

func (e *EditError) Unwrap() error {
	return e.Err
}

// NewEditError builds an EditError around a fresh errbuilder error.
func NewEditError(kind ErrorKind, code errbuilder.ErrCode, msg string) *EditError {
	return &EditError{
		Kind: kind,
		Err: errbuilder.New().
			WithCode(code).
			WithMsg(msg),
	}
}

// WrapEditError tags an existing error with a kind and crate name. An
// error that already carries a kind keeps it.
func WrapEditError(kind ErrorKind, name string, err error) error {
	if err == nil {
		return nil
	}
	var existing *EditError
	if errors.As(err, &existing) {
		if existing.Name == "" && name != "" {
			return &EditError{Kind: existing.Kind, Name: name, Err: existing.Err}
		}
		return err
	}
	return &EditError{Kind: kind, Name: name, Err: err}
}

// KindOf returns the ErrorKind carried by err, or ErrorKindUnknown.
func KindOf(err error) ErrorKind {
	var editErr *EditError
	if errors.As(err, &editErr) {
		return editErr.Kind
	}
	return ErrorKindUnknown
}

// For attaches the crate name the error refers to.
func (e *EditError) For(name string) *EditError {
	e.Name = name
	return e
}
