package refdict

import (
	"strconv"
	"strings"

	"github.com/erraggy/refdict/referrors"
)

// MaterializeOption configures Materialize.
type MaterializeOption func(*materializer)

// WithValueMap applies fn to every scalar leaf of the materialized output.
// The default is the identity.
func WithValueMap(fn func(any) any) MaterializeOption {
	return func(m *materializer) {
		m.valueMap = fn
	}
}

// WithIncludeKeys restricts materialized mappings to the given keys. An
// empty include set keeps everything. Filters apply at every mapping
// level; sequence elements are unaffected.
func WithIncludeKeys(keys ...string) MaterializeOption {
	return func(m *materializer) {
		if m.include == nil {
			m.include = make(map[string]struct{}, len(keys))
		}
		for _, key := range keys {
			m.include[key] = struct{}{}
		}
	}
}

// WithExcludeKeys drops the given keys from every materialized mapping.
// Exclusion wins over inclusion.
func WithExcludeKeys(keys ...string) MaterializeOption {
	return func(m *materializer) {
		if m.exclude == nil {
			m.exclude = make(map[string]struct{}, len(keys))
		}
		for _, key := range keys {
			m.exclude[key] = struct{}{}
		}
	}
}

// WithLabel merges fn's result into every materialized mapping node, keyed
// by the returned key. fn receives the canonical string form of the node's
// address. Sequence and scalar nodes are unaffected.
func WithLabel(fn func(address string) (key string, value any)) MaterializeOption {
	return func(m *materializer) {
		m.label = fn
	}
}

// Materialize converts a view graph into a plain nested structure with no
// residual laziness, visiting each distinct address at most once.
//
// Shared and cyclic reference structure is reconstructed by object
// identity: when two branches reference the same address, both positions
// in the output hold the exact same object. A document that references one
// of its own ancestors therefore materializes into a structure containing
// a true reference cycle. Any traversal written against materialized
// output must itself be cycle-aware; MaterializeTracked reports whether
// that caution applies.
//
// root may be a *View or any plain value; plain values pass through the
// value map unchanged in shape.
func Materialize(root any, opts ...MaterializeOption) (any, error) {
	value, _, err := materializeTracked(root, opts...)
	return value, err
}

// MaterializeTracked is Materialize, additionally reporting whether the
// output contains a reference cycle.
func MaterializeTracked(root any, opts ...MaterializeOption) (value any, cyclic bool, err error) {
	return materializeTracked(root, opts...)
}

// occurrence records where an address first materialized (its canonical
// output path) and every later position that must alias the same object.
type occurrence struct {
	canonical []string
	aliases   [][]string
}

type materializer struct {
	valueMap func(any) any
	include  map[string]struct{}
	exclude  map[string]struct{}
	label    func(address string) (string, any)

	// occurrences maps address string -> output-path bookkeeping for the
	// cycle-safe fix-up pass.
	occurrences map[string]*occurrence
	// order preserves first-visit order so the fix-up pass is deterministic.
	order []string
}

func materializeTracked(root any, opts ...MaterializeOption) (any, bool, error) {
	m := &materializer{
		occurrences: make(map[string]*occurrence),
	}
	for _, opt := range opts {
		opt(m)
	}

	// Pass 1: depth-first build, expanding each distinct address once and
	// leaving a nil placeholder at every repeat position.
	built, err := m.build(root, nil)
	if err != nil {
		return nil, false, err
	}

	// Pass 2: point every alias position at the canonical object.
	cyclic := false
	for _, key := range m.order {
		occ := m.occurrences[key]
		if len(occ.aliases) == 0 {
			continue
		}
		value, err := lookupOutputPath(built, occ.canonical)
		if err != nil {
			return nil, false, err
		}
		for _, alias := range occ.aliases {
			if isPathPrefix(occ.canonical, alias) {
				cyclic = true
			}
			if err := setOutputPath(built, alias, value); err != nil {
				return nil, false, err
			}
		}
	}
	return built, cyclic, nil
}

// keep applies the include/exclude key filters.
func (m *materializer) keep(key string) bool {
	if len(m.include) > 0 {
		if _, ok := m.include[key]; !ok {
			return false
		}
	}
	_, excluded := m.exclude[key]
	return !excluded
}

// build assembles the plain node for item, recording item's address the
// first time it is seen and returning a placeholder on every repeat.
func (m *materializer) build(item any, path []string) (any, error) {
	view, ok := item.(*View)
	if !ok {
		if m.valueMap != nil {
			return m.valueMap(item), nil
		}
		return item, nil
	}

	key := view.Address().String()
	if occ, seen := m.occurrences[key]; seen {
		occ.aliases = append(occ.aliases, append([]string(nil), path...))
		return nil, nil
	}
	m.occurrences[key] = &occurrence{canonical: append([]string(nil), path...)}
	m.order = append(m.order, key)

	switch view.Kind() {
	case KindMapping:
		out := make(map[string]any, view.Len())
		for _, childKey := range view.Keys() {
			if !m.keep(childKey) {
				continue
			}
			child, err := view.Get(childKey)
			if err != nil {
				return nil, err
			}
			builtChild, err := m.build(child, append(path, childKey))
			if err != nil {
				return nil, err
			}
			out[childKey] = builtChild
		}
		if m.label != nil {
			labelKey, labelValue := m.label(key)
			out[labelKey] = labelValue
		}
		return out, nil

	case KindSequence:
		out := make([]any, view.Len())
		for i := range out {
			child, err := view.Index(i)
			if err != nil {
				return nil, err
			}
			builtChild, err := m.build(child, append(path, strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			out[i] = builtChild
		}
		return out, nil

	default:
		// Views are only ever constructed over containers.
		return view.node, nil
	}
}

// isPathPrefix reports whether prefix is a proper prefix of path, which is
// exactly the condition under which an alias creates a reference cycle.
func isPathPrefix(prefix, path []string) bool {
	if len(prefix) >= len(path) {
		return false
	}
	for i := range prefix {
		if prefix[i] != path[i] {
			return false
		}
	}
	return true
}

// lookupOutputPath walks a built output tree by path segments. An empty
// path resolves to the whole tree.
func lookupOutputPath(root any, path []string) (any, error) {
	current := root
	for i, segment := range path {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, &referrors.PointerResolutionError{
					Segment: segment,
					Message: "materialized output missing /" + strings.Join(path[:i+1], "/"),
				}
			}
			current = next
		case []any:
			index, err := parseIndex(segment)
			if err != nil || index >= len(node) {
				return nil, &referrors.PointerResolutionError{
					Segment:    segment,
					IsNotIndex: err != nil,
					Message:    "materialized output missing /" + strings.Join(path[:i+1], "/"),
				}
			}
			current = node[index]
		default:
			return nil, &referrors.PointerResolutionError{
				Segment: segment,
				Message: "cannot traverse materialized scalar at /" + strings.Join(path[:i], "/"),
			}
		}
	}
	return current, nil
}

// setOutputPath assigns value at path within a built output tree. The path
// is never empty: the root is always a canonical position, not an alias.
func setOutputPath(root any, path []string, value any) error {
	parent, err := lookupOutputPath(root, path[:len(path)-1])
	if err != nil {
		return err
	}
	last := path[len(path)-1]
	switch node := parent.(type) {
	case map[string]any:
		node[last] = value
	case []any:
		index, err := parseIndex(last)
		if err != nil || index >= len(node) {
			return &referrors.PointerResolutionError{
				Segment:    last,
				IsNotIndex: err != nil,
				Message:    "cannot assign alias position",
			}
		}
		node[index] = value
	default:
		return &referrors.PointerResolutionError{
			Segment: last,
			Message: "alias parent is not a container",
		}
	}
	return nil
}
