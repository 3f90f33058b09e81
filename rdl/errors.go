package rdl

import "errors"

// Error kinds. Every error returned by this package wraps exactly one of
// these, so callers branch with errors.Is.
var (
	// ErrSchema reports an unknown class or type name, or a duplicate
	// attribute declaration.
	ErrSchema = errors.New("rdl: schema error")

	// ErrAttributeNotFound reports an attribute name not declared by the
	// object's class.
	ErrAttributeNotFound = errors.New("rdl: attribute not found")

	// ErrInvalidKey reports a malformed attribute key.
	ErrInvalidKey = errors.New("rdl: invalid key")

	// ErrTypeMismatch reports a failed capability downcast or a value of
	// the wrong kind.
	ErrTypeMismatch = errors.New("rdl: type mismatch")

	// ErrLengthMismatch reports sequences whose lengths do not agree.
	ErrLengthMismatch = errors.New("rdl: length mismatch")

	// ErrParse reports a malformed text or binary document.
	ErrParse = errors.New("rdl: parse error")

	// ErrDuplicateObjectName reports object creation under a used name.
	ErrDuplicateObjectName = errors.New("rdl: duplicate object name")

	ErrObjectNotFound = errors.New("rdl: object not found")
)
