// Package referrors provides structured error types for the refdict library.
//
// Import path: github.com/erraggy/refdict/referrors
//
// This package enables programmatic error handling via [errors.Is] and [errors.As],
// allowing callers to distinguish between different categories of errors and implement
// appropriate recovery strategies.
//
// # Error Types
//
// The package provides five core error types:
//
//   - [ReferenceParseError]: malformed reference strings and self-referential targets
//   - [DocumentParseError]: failures fetching or decoding a document
//   - [PointerResolutionError]: pointer navigation failures (missing keys, bad indices, wrong kinds)
//   - [ConstructionTypeError]: a view was built over a value of the wrong kind
//   - [ResourceLimitError]: resource exhaustion (depth, size, count limits)
//
// # Sentinel Errors
//
// Each error type has a corresponding sentinel error for use with errors.Is():
//
//   - [ErrReferenceParse]: matches any [ReferenceParseError]
//   - [ErrSelfReference]: matches [ReferenceParseError] with IsSelfReference=true
//   - [ErrDocumentParse]: matches any [DocumentParseError]
//   - [ErrPointerResolution]: matches any [PointerResolutionError]
//   - [ErrNotArrayIndex]: matches [PointerResolutionError] with IsNotIndex=true
//   - [ErrConstructionType]: matches any [ConstructionTypeError]
//   - [ErrResourceLimit]: matches any [ResourceLimitError]
//
// # Usage Examples
//
// Check error category with errors.Is():
//
//	_, err := res.Resolve(addr)
//	if errors.Is(err, referrors.ErrPointerResolution) {
//	    // Path did not lead anywhere in the document
//	}
//
// Extract error details with errors.As():
//
//	var navErr *referrors.PointerResolutionError
//	if errors.As(err, &navErr) {
//	    fmt.Printf("failed at %s (segment %q)\n", navErr.Address, navErr.Segment)
//	}
//
// # Error Chaining
//
// All error types support error chaining via the Cause field and Unwrap() method.
// This allows finding root causes through the standard error chain:
//
//	var docErr *referrors.DocumentParseError
//	if errors.As(err, &docErr) {
//	    if errors.Is(docErr.Cause, os.ErrNotExist) {
//	        // The referenced document doesn't exist
//	    }
//	}
package referrors
