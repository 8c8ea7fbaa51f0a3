package refdict

import (
	"errors"
	"fmt"

	"github.com/theory/jsonpath"
)

// ErrCyclicDocument is returned by Query when the materialized document
// contains a reference cycle. JSONPath descent does not terminate on
// cyclic trees, so cyclic documents cannot be queried.
var ErrCyclicDocument = errors.New("refdict: cannot query a cyclic document")

// ErrNoMatch is returned by QueryOne when the expression selects nothing.
var ErrNoMatch = errors.New("refdict: JSONPath matched nothing")

// Query materializes the view and evaluates a JSONPath expression
// (RFC 9535, e.g. "$.definitions.foo.type") against the result, returning
// every match. Materialize options apply before the query runs, so key
// filters narrow what the expression can see.
func Query(view *View, expr string, opts ...MaterializeOption) ([]any, error) {
	path, err := jsonpath.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("refdict: invalid JSONPath %q: %w", expr, err)
	}

	doc, cyclic, err := materializeTracked(view, opts...)
	if err != nil {
		return nil, err
	}
	if cyclic {
		return nil, fmt.Errorf("%w: %s", ErrCyclicDocument, view.Address().String())
	}

	matches := path.Select(doc)
	out := make([]any, len(matches))
	copy(out, matches)
	return out, nil
}

// QueryOne is Query returning the first match, or ErrNoMatch.
func QueryOne(view *View, expr string, opts ...MaterializeOption) (any, error) {
	results, err := Query(view, expr, opts...)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatch, expr)
	}
	return results[0], nil
}
