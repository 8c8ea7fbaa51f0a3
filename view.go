package refdict

import (
	"reflect"
	"sort"
	"strconv"

	"github.com/erraggy/refdict/referrors"
)

// Kind classifies a resolved value. All call sites pattern-match on it
// rather than on concrete Go types.
type Kind int

const (
	// KindScalar is any value that is not a mapping or a sequence.
	KindScalar Kind = iota
	// KindMapping is a map[string]any node.
	KindMapping
	// KindSequence is a []any node.
	KindSequence
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	default:
		return "scalar"
	}
}

// kindOf classifies a raw document node.
func kindOf(value any) Kind {
	switch value.(type) {
	case map[string]any:
		return KindMapping
	case []any:
		return KindSequence
	default:
		return KindScalar
	}
}

// View is a lazy, reference-following proxy over a mapping or sequence
// node. Indexing into it with Get returns scalars directly and wraps
// nested containers in further views, following any string-valued $ref
// transparently. Views never mutate the documents they expose.
type View struct {
	res  *Resolver
	addr Address
	kind Kind
	node any
}

// New constructs a view at the given address. The address must resolve to
// a mapping or a sequence; anything else is a ConstructionTypeError naming
// the kind actually found.
func New(res *Resolver, addr Address) (*View, error) {
	value, err := FromAddress(res, addr)
	if err != nil {
		return nil, err
	}
	view, ok := value.(*View)
	if !ok {
		return nil, &referrors.ConstructionTypeError{
			Address:  addr.String(),
			Expected: "mapping or sequence",
			Actual:   kindOf(value).String(),
		}
	}
	return view, nil
}

// NewMap constructs a mapping view at the given address, failing with a
// ConstructionTypeError when the address resolves to anything else.
func NewMap(res *Resolver, addr Address) (*View, error) {
	return newOfKind(res, addr, KindMapping)
}

// NewSeq constructs a sequence view at the given address, failing with a
// ConstructionTypeError when the address resolves to anything else.
func NewSeq(res *Resolver, addr Address) (*View, error) {
	return newOfKind(res, addr, KindSequence)
}

func newOfKind(res *Resolver, addr Address, want Kind) (*View, error) {
	value, err := FromAddress(res, addr)
	if err != nil {
		return nil, err
	}
	view, ok := value.(*View)
	if !ok || view.kind != want {
		actual := kindOf(value)
		if ok {
			actual = view.kind
		}
		return nil, &referrors.ConstructionTypeError{
			Address:  addr.String(),
			Expected: want.String(),
			Actual:   actual.String(),
		}
	}
	return view, nil
}

// FromAddress resolves the address once and classifies the result: mapping
// and sequence values come back wrapped as a *View, scalars come back
// as-is. This is the classify-and-wrap operation behind New and Get; use it
// when the kind at an address is not known up front.
func FromAddress(res *Resolver, addr Address) (any, error) {
	resolution, err := res.Resolve(addr)
	if err != nil {
		return nil, err
	}
	switch kindOf(resolution.Value) {
	case KindMapping:
		return &View{res: res, addr: addr, kind: KindMapping, node: resolution.Value}, nil
	case KindSequence:
		return &View{res: res, addr: addr, kind: KindSequence, node: resolution.Value}, nil
	default:
		return resolution.Value, nil
	}
}

// Kind returns the view's kind: KindMapping or KindSequence.
func (v *View) Kind() Kind {
	return v.kind
}

// Address returns the address this view is bound to.
func (v *View) Address() Address {
	return v.addr
}

// Resolver returns the resolver this view reads through.
func (v *View) Resolver() *Resolver {
	return v.res
}

// Len returns the number of keys (mapping) or elements (sequence).
func (v *View) Len() int {
	switch node := v.node.(type) {
	case map[string]any:
		return len(node)
	case []any:
		return len(node)
	default:
		return 0
	}
}

// Keys returns the mapping's keys in sorted order. Sequence views return
// nil; iterate them by index instead.
func (v *View) Keys() []string {
	node, ok := v.node.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(node))
	for key := range node {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether the mapping contains the given key. Sequence views
// report whether the segment is a valid element index.
func (v *View) Has(segment string) bool {
	switch node := v.node.(type) {
	case map[string]any:
		_, ok := node[segment]
		return ok
	case []any:
		index, err := parseIndex(segment)
		return err == nil && index < len(node)
	default:
		return false
	}
}

// Get indexes the view with one unescaped path segment and returns the
// child: scalars as-is, containers wrapped as further views. A mapping
// child carrying a string-valued $ref is replaced by its (classified)
// target, so a reference to a scalar comes back unwrapped.
//
// Sequence views require the segment to parse as a base-10 non-negative
// integer; anything else, including range-style segments like "1:3",
// fails with a PointerResolutionError.
func (v *View) Get(segment string) (any, error) {
	switch node := v.node.(type) {
	case map[string]any:
		raw, ok := node[segment]
		if !ok {
			return nil, &referrors.PointerResolutionError{
				Address: v.addr.String(),
				Segment: segment,
				Message: "key not found",
			}
		}
		return v.wrapChild(segment, raw)

	case []any:
		index, err := parseIndex(segment)
		if err != nil {
			return nil, &referrors.PointerResolutionError{
				Address:    v.addr.String(),
				Segment:    segment,
				IsNotIndex: true,
				Message:    "sequence index must be a base-10 non-negative integer",
			}
		}
		return v.Index(index)

	default:
		return nil, &referrors.PointerResolutionError{
			Address: v.addr.String(),
			Segment: segment,
			Message: "cannot traverse into scalar",
		}
	}
}

// Index returns the sequence element at i, wrapped the same way Get wraps
// mapping children.
func (v *View) Index(i int) (any, error) {
	node, ok := v.node.([]any)
	if !ok {
		return nil, &referrors.PointerResolutionError{
			Address: v.addr.String(),
			Segment: strconv.Itoa(i),
			Message: "not a sequence",
		}
	}
	if i < 0 || i >= len(node) {
		return nil, &referrors.PointerResolutionError{
			Address: v.addr.String(),
			Segment: strconv.Itoa(i),
			Message: "index out of bounds (length " + strconv.Itoa(len(node)) + ")",
		}
	}
	return v.wrapChild(strconv.Itoa(i), node[i])
}

// wrapChild classifies a raw child value already held by this view. The
// child is addressed at addr.Child(segment); no full-path walk happens
// unless the child is a reference, in which case its target is resolved
// with a one-step lookahead.
func (v *View) wrapChild(segment string, raw any) (any, error) {
	switch node := raw.(type) {
	case map[string]any:
		if ref, ok := node["$ref"].(string); ok {
			target, err := v.addr.Relative(ref)
			if err != nil {
				return nil, err
			}
			return FromAddress(v.res, target)
		}
		// A non-string $ref value is not a reference; expose the mapping.
		return &View{res: v.res, addr: v.addr.Child(segment), kind: KindMapping, node: node}, nil
	case []any:
		return &View{res: v.res, addr: v.addr.Child(segment), kind: KindSequence, node: node}, nil
	default:
		return raw, nil
	}
}

// Equal reports whether this view's fully-expanded content equals other,
// which may be another *View or a plain nested structure. Views compare by
// content, not by address, so a view is substitutable for the plain
// container it expands to. Resolution failures compare unequal.
func (v *View) Equal(other any) bool {
	mine, _, err := materializeTracked(v)
	if err != nil {
		return false
	}
	theirs := other
	if view, ok := other.(*View); ok {
		theirs, _, err = materializeTracked(view)
		if err != nil {
			return false
		}
	}
	// DeepEqual terminates on the cyclic structures materialize can emit.
	return reflect.DeepEqual(mine, theirs)
}

// Open constructs a view over the given address string using the
// process-wide default resolver. It is the convenience entry point for
// programs that do not need isolated caches.
func Open(address string) (*View, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}
	return New(Default(), addr)
}

// OpenWith is Open against an explicit resolver.
func OpenWith(res *Resolver, address string) (*View, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}
	return New(res, addr)
}
