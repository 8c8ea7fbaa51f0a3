package referrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
// These allow quick checks without type assertions.
var (
	// ErrReferenceParse indicates a reference string could not be parsed.
	ErrReferenceParse = errors.New("reference parse error")

	// ErrSelfReference indicates a reference resolved to its own address.
	ErrSelfReference = errors.New("self-referential reference")

	// ErrDocumentParse indicates a document could not be fetched or decoded.
	ErrDocumentParse = errors.New("document parse error")

	// ErrPointerResolution indicates a pointer could not be navigated.
	ErrPointerResolution = errors.New("pointer resolution error")

	// ErrNotArrayIndex indicates a non-integer segment was used against a sequence.
	ErrNotArrayIndex = errors.New("not an array index")

	// ErrConstructionType indicates a view was constructed over the wrong kind of value.
	ErrConstructionType = errors.New("construction type error")

	// ErrResourceLimit indicates a resource limit was exceeded.
	ErrResourceLimit = errors.New("resource limit exceeded")
)

// ReferenceParseError represents a failure to parse a reference string.
// This includes malformed grammar and relative references that resolve to
// their own resolving context (the trivial one-hop self-reference).
type ReferenceParseError struct {
	// Reference is the reference string that failed to parse
	Reference string
	// IsSelfReference is true when the reference resolved to its own address
	IsSelfReference bool
	// Message describes the parse failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ReferenceParseError) Error() string {
	msg := "reference parse error"
	if e.IsSelfReference {
		msg = "self-referential reference"
	}
	if e.Reference != "" {
		msg += ": " + e.Reference
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ReferenceParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
// Matches ErrReferenceParse, and ErrSelfReference when the flag is set.
func (e *ReferenceParseError) Is(target error) bool {
	if target == ErrReferenceParse {
		return true
	}
	return target == ErrSelfReference && e.IsSelfReference
}

// DocumentParseError represents a failure to fetch or decode a document.
type DocumentParseError struct {
	// DocumentID identifies the document that failed to load
	DocumentID string
	// Message describes the load failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *DocumentParseError) Error() string {
	msg := "document parse error"
	if e.DocumentID != "" {
		msg += ": " + e.DocumentID
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *DocumentParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *DocumentParseError) Is(target error) bool {
	return target == ErrDocumentParse
}

// PointerResolutionError represents a failure to navigate a pointer path.
// This includes missing keys, out-of-range or non-integer sequence indices,
// and attempts to traverse into scalar values.
type PointerResolutionError struct {
	// Address is the canonical string form of the address being resolved
	Address string
	// Segment is the path segment that failed
	Segment string
	// IsNotIndex is true when the segment was used against a sequence but
	// does not parse as a base-10 non-negative integer
	IsNotIndex bool
	// Message provides additional context about the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *PointerResolutionError) Error() string {
	msg := "pointer resolution error"
	if e.IsNotIndex {
		msg = "not an array index"
	}
	if e.Address != "" {
		msg += " at " + e.Address
	}
	if e.Segment != "" {
		msg += fmt.Sprintf(" (segment %q)", e.Segment)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *PointerResolutionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
// Matches ErrPointerResolution, and ErrNotArrayIndex when the flag is set.
func (e *PointerResolutionError) Is(target error) bool {
	if target == ErrPointerResolution {
		return true
	}
	return target == ErrNotArrayIndex && e.IsNotIndex
}

// ConstructionTypeError represents a view constructed over the wrong kind
// of value, such as building a mapping view over a scalar.
type ConstructionTypeError struct {
	// Address is the canonical string form of the address the view was built at
	Address string
	// Expected is the kind the constructor required (e.g. "mapping")
	Expected string
	// Actual is the kind actually found at the address
	Actual string
	// Message provides additional context
	Message string
}

// Error returns a human-readable error message.
func (e *ConstructionTypeError) Error() string {
	msg := "construction type error"
	if e.Address != "" {
		msg += " at " + e.Address
	}
	if e.Expected != "" && e.Actual != "" {
		msg += fmt.Sprintf(": expected %s, got %s", e.Expected, e.Actual)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap returns nil as ConstructionTypeError has no underlying cause.
func (e *ConstructionTypeError) Unwrap() error {
	return nil
}

// Is reports whether target matches this error type.
func (e *ConstructionTypeError) Is(target error) bool {
	return target == ErrConstructionType
}

// ResourceLimitError represents a resource exhaustion condition.
// This occurs when resolution exceeds configured limits.
type ResourceLimitError struct {
	// ResourceType identifies what limit was exceeded
	// Common values: "ref_depth", "cached_documents", "file_size"
	ResourceType string
	// Limit is the configured maximum value
	Limit int64
	// Actual is the value that exceeded the limit (may be 0 if unknown)
	Actual int64
	// Message provides additional context
	Message string
}

// Error returns a human-readable error message.
func (e *ResourceLimitError) Error() string {
	msg := "resource limit exceeded"
	if e.ResourceType != "" {
		msg += ": " + e.ResourceType
	}
	if e.Limit > 0 {
		msg += fmt.Sprintf(" (limit: %d", e.Limit)
		if e.Actual > 0 {
			msg += fmt.Sprintf(", actual: %d", e.Actual)
		}
		msg += ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap returns nil as ResourceLimitError has no underlying cause.
func (e *ResourceLimitError) Unwrap() error {
	return nil
}

// Is reports whether target matches this error type.
func (e *ResourceLimitError) Is(target error) bool {
	return target == ErrResourceLimit
}
