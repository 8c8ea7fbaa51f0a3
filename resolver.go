package refdict

import (
	"errors"
	"net/url"
	"strconv"
	"sync"

	"github.com/erraggy/refdict/referrors"
)

// MaxRefDepth is the default maximum number of $ref redirects followed while
// resolving a single address. This bounds recursion on reference cycles that
// are reached outside of Materialize (which is cycle-safe on its own).
const MaxRefDepth = 100

// Resolution is the result of resolving an address: the value found, and
// the address of the location where the value physically lives. The two
// addresses differ whenever one or more $ref indirections were followed.
type Resolution struct {
	// Address is the physically-resolved location of Value.
	Address Address
	// Value is the resolved document fragment.
	Value any
}

// Resolver walks pointer paths through documents, transparently following
// $ref indirections at any depth. Resolutions are memoized per input
// address; because resolution is a pure function of the address (documents
// are immutable once loaded), entries are safe to cache indefinitely.
type Resolver struct {
	// MaxRefDepth is the maximum number of $ref redirects per resolution.
	// Default: 100
	MaxRefDepth int
	// Logger is the structured logger for debug output.
	// If nil, logging is disabled (default).
	Logger Logger

	store *DocumentStore

	mu    sync.Mutex
	cache map[string]Resolution
}

// NewResolver creates a resolver backed by the given document store.
// A nil store gets a fresh empty one.
func NewResolver(store *DocumentStore) *Resolver {
	if store == nil {
		store = NewDocumentStore()
	}
	return &Resolver{
		store: store,
		cache: make(map[string]Resolution),
	}
}

// Store returns the document store backing this resolver.
func (r *Resolver) Store() *DocumentStore {
	return r.store
}

// log returns the configured logger, or a no-op logger if none is set.
func (r *Resolver) log() Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return NopLogger{}
}

// CacheClear empties the resolution cache. The document store's cache is
// independent; see DocumentStore.CacheClear.
func (r *Resolver) CacheClear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]Resolution)
}

// Resolve returns the value at the given address, following any $ref node
// encountered along the path. Navigation failures surface as
// PointerResolutionError; see ResolveDefault for the forgiving variant.
func (r *Resolver) Resolve(addr Address) (Resolution, error) {
	return r.resolveCached(addr, nil, false)
}

// ResolveDefault is Resolve, except that a navigation failure (a missing
// key, bad index, or wrong container kind, but not a document-load or
// reference-parse failure) returns def at the input address instead of an
// error.
func (r *Resolver) ResolveDefault(addr Address, def any) (Resolution, error) {
	return r.resolveCached(addr, def, true)
}

func (r *Resolver) resolveCached(addr Address, def any, hasDef bool) (Resolution, error) {
	res, err := r.resolveMemo(addr, 0)
	if err != nil {
		if hasDef && errors.Is(err, referrors.ErrPointerResolution) {
			return Resolution{Address: addr, Value: def}, nil
		}
		return Resolution{}, err
	}
	return res, nil
}

// resolveMemo consults and populates the memo cache around resolve.
// Intermediate redirect targets are memoized too, so a chain of references
// warms the cache for every address along the way.
func (r *Resolver) resolveMemo(addr Address, depth int) (Resolution, error) {
	key := addr.String()
	r.mu.Lock()
	res, ok := r.cache[key]
	r.mu.Unlock()
	if ok {
		return res, nil
	}

	res, err := r.resolve(addr, depth)
	if err != nil {
		return Resolution{}, err
	}

	r.mu.Lock()
	r.cache[key] = res
	// The physically-resolved address yields the same value, so multiple
	// input addresses can converge on one entry's target.
	r.cache[res.Address.String()] = res
	r.mu.Unlock()
	return res, nil
}

// resolve walks addr's path through its document. depth counts $ref
// redirects across documents.
func (r *Resolver) resolve(addr Address, depth int) (Resolution, error) {
	maxDepth := r.MaxRefDepth
	if maxDepth == 0 {
		maxDepth = MaxRefDepth
	}
	if depth > maxDepth {
		return Resolution{}, &referrors.ResourceLimitError{
			ResourceType: "ref_depth",
			Limit:        int64(maxDepth),
			Actual:       int64(depth),
			Message:      "possible reference cycle at " + addr.String(),
		}
	}

	doc, err := r.store.Load(addr.DocumentID())
	if err != nil {
		return Resolution{}, err
	}

	segments := addr.Segments()

	// A document whose root is itself a $ref node redirects before any
	// path segment is consumed.
	if target, ok, err := refTarget(addr, doc, segments); err != nil {
		return Resolution{}, err
	} else if ok {
		r.log().Debug("followed root reference", "from", addr.String(), "to", target.String(), "depth", depth)
		return r.resolveMemo(target, depth+1)
	}

	current := doc
	for i, segment := range segments {
		next, err := lookupSegment(current, segment, addr, segments[:i+1])
		if err != nil {
			return Resolution{}, err
		}
		current = next

		// Any mapping bearing a string $ref switches resolution to the
		// referenced address, carrying the unconsumed segments along.
		if target, ok, err := refTarget(addr, current, segments[i+1:]); err != nil {
			return Resolution{}, err
		} else if ok {
			r.log().Debug("followed reference", "from", addr.String(), "to", target.String(), "depth", depth)
			return r.resolveMemo(target, depth+1)
		}
	}

	return Resolution{Address: addr, Value: current}, nil
}

// refTarget reports whether node is a mapping with a string-valued $ref,
// and if so computes the redirect target: the reference resolved relative
// to addr, extended by the remaining unconsumed segments.
func refTarget(addr Address, node any, remaining []string) (Address, bool, error) {
	m, ok := node.(map[string]any)
	if !ok {
		return Address{}, false, nil
	}
	ref, ok := m["$ref"].(string)
	if !ok {
		return Address{}, false, nil
	}
	target, err := addr.Relative(ref)
	if err != nil {
		return Address{}, false, err
	}
	return target.Child(remaining...), true, nil
}

// lookupSegment looks one segment up in the current node. Literal lookup is
// attempted first, then a percent-decoded fallback, which tolerates raw
// special characters in document keys.
func lookupSegment(current any, segment string, addr Address, prefix []string) (any, error) {
	failedAt := func() string {
		return addr.DocumentID() + "#" + (Address{docID: addr.DocumentID(), segments: prefix}).Pointer()
	}

	switch node := current.(type) {
	case map[string]any:
		if next, ok := node[segment]; ok {
			return next, nil
		}
		if decoded, err := url.PathUnescape(segment); err == nil && decoded != segment {
			if next, ok := node[decoded]; ok {
				return next, nil
			}
		}
		return nil, &referrors.PointerResolutionError{
			Address: addr.String(),
			Segment: segment,
			Message: "key not found at " + failedAt(),
		}

	case []any:
		index, err := parseIndex(segment)
		if err != nil {
			if decoded, derr := url.PathUnescape(segment); derr == nil && decoded != segment {
				index, err = parseIndex(decoded)
			}
		}
		if err != nil {
			return nil, &referrors.PointerResolutionError{
				Address:    addr.String(),
				Segment:    segment,
				IsNotIndex: true,
				Message:    "sequence index must be a base-10 non-negative integer",
			}
		}
		if index >= len(node) {
			return nil, &referrors.PointerResolutionError{
				Address: addr.String(),
				Segment: segment,
				Message: strconv.Itoa(index) + " out of bounds at " + failedAt(),
			}
		}
		return node[index], nil

	default:
		return nil, &referrors.PointerResolutionError{
			Address: addr.String(),
			Segment: segment,
			Message: "cannot traverse into scalar at " + failedAt(),
		}
	}
}

// parseIndex parses a base-10 non-negative sequence index.
// Negative indices are not supported.
func parseIndex(segment string) (int, error) {
	index, err := strconv.Atoi(segment)
	if err != nil {
		return 0, err
	}
	if index < 0 {
		return 0, errors.New("negative index")
	}
	return index, nil
}
