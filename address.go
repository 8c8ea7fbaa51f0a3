package refdict

import (
	"net/url"
	"path"
	"strings"

	"github.com/erraggy/refdict/referrors"
)

// Address identifies a location inside a document: a document identity plus
// a JSON Pointer path within it. The zero value is not a valid Address; use
// [ParseAddress] or derive one with [Address.Child], [Address.Parent], or
// [Address.Relative].
//
// Addresses are immutable values. Two addresses are equal when their
// document identity and path segments are equal; the canonical string form
// is "documentID#/escaped/path" with RFC 6901 escaping applied per segment.
type Address struct {
	docID    string
	segments []string
}

// ParseAddress parses the canonical string form of an address.
//
// The grammar is: reference := document-part ["#" [pointer-part]]. A missing
// "#" or an empty pointer part defaults to the document root. A pointer part
// that does not begin with "/" is a ReferenceParseError, as is an empty
// document part.
func ParseAddress(s string) (Address, error) {
	docPart, frag, hasFrag := strings.Cut(s, "#")
	if !hasFrag {
		// A bare string with no "#" is treated as string + "#/"
		docPart, frag = s, ""
	}
	if docPart == "" {
		return Address{}, &referrors.ReferenceParseError{
			Reference: s,
			Message:   "missing document identity",
		}
	}
	segments, err := parsePointer(frag, s)
	if err != nil {
		return Address{}, err
	}
	return Address{docID: docPart, segments: segments}, nil
}

// MustParseAddress is like ParseAddress but panics on error.
// Intended for use with known-good constant addresses.
func MustParseAddress(s string) Address {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// parsePointer parses an RFC 6901 pointer into unescaped segments.
// An empty pointer and "/" both address the document root.
func parsePointer(pointer, reference string) ([]string, error) {
	if pointer == "" || pointer == "/" {
		return nil, nil
	}
	if !strings.HasPrefix(pointer, "/") {
		return nil, &referrors.ReferenceParseError{
			Reference: reference,
			Message:   "pointer must begin with '/'",
		}
	}
	raw := strings.Split(pointer[1:], "/")
	segments := make([]string, len(raw))
	for i, seg := range raw {
		segments[i] = UnescapeSegment(seg)
	}
	return segments, nil
}

// EscapeSegment escapes a path segment per RFC 6901: "~" becomes "~0" and
// "/" becomes "~1".
func EscapeSegment(segment string) string {
	segment = strings.ReplaceAll(segment, "~", "~0")
	return strings.ReplaceAll(segment, "/", "~1")
}

// UnescapeSegment reverses EscapeSegment. Per RFC 6901, "~1" must be decoded
// before "~0" so that "~01" round-trips to "~1".
func UnescapeSegment(segment string) string {
	segment = strings.ReplaceAll(segment, "~1", "/")
	return strings.ReplaceAll(segment, "~0", "~")
}

// DocumentID returns the document identity portion of the address.
func (a Address) DocumentID() string {
	return a.docID
}

// Segments returns a copy of the unescaped path segments. An empty slice
// addresses the document root.
func (a Address) Segments() []string {
	if len(a.segments) == 0 {
		return nil
	}
	out := make([]string, len(a.segments))
	copy(out, a.segments)
	return out
}

// IsRoot reports whether the address points at the whole document.
func (a Address) IsRoot() bool {
	return len(a.segments) == 0
}

// Pointer returns the RFC 6901 pointer portion of the address, "/" for the
// document root.
func (a Address) Pointer() string {
	if len(a.segments) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, seg := range a.segments {
		b.WriteByte('/')
		b.WriteString(EscapeSegment(seg))
	}
	return b.String()
}

// String returns the canonical string form: documentID + "#" + pointer.
func (a Address) String() string {
	return a.docID + "#" + a.Pointer()
}

// Equal reports whether two addresses identify the same location.
func (a Address) Equal(b Address) bool {
	if a.docID != b.docID || len(a.segments) != len(b.segments) {
		return false
	}
	for i := range a.segments {
		if a.segments[i] != b.segments[i] {
			return false
		}
	}
	return true
}

// Child returns the address extended by the given unescaped segments.
func (a Address) Child(segments ...string) Address {
	if len(segments) == 0 {
		return a
	}
	joined := make([]string, 0, len(a.segments)+len(segments))
	joined = append(joined, a.segments...)
	joined = append(joined, segments...)
	return Address{docID: a.docID, segments: joined}
}

// Parent returns the address with the last segment dropped. The parent of
// the document root is the root itself.
func (a Address) Parent() Address {
	if len(a.segments) == 0 {
		return a
	}
	return Address{docID: a.docID, segments: a.segments[:len(a.segments)-1]}
}

// Relative resolves a reference string against this address.
//
// Absolute references (those carrying their own scheme) are parsed
// independently. Fragment-only references stay within the same document.
// Anything else names a sibling document: the pre-fragment part is joined
// with the directory of this address's document identity.
//
// A reference that resolves to this exact address is rejected with a
// ReferenceParseError; this guards the trivial single-hop self-reference.
func (a Address) Relative(ref string) (Address, error) {
	docPart, frag, hasFrag := strings.Cut(ref, "#")
	if !hasFrag {
		docPart, frag = ref, ""
	}

	var target Address
	if docPart == "" {
		// Local reference: same document, new pointer.
		segments, err := parsePointer(frag, ref)
		if err != nil {
			return Address{}, err
		}
		target = Address{docID: a.docID, segments: segments}
	} else if u, err := url.Parse(docPart); err == nil && u.IsAbs() {
		target, err = ParseAddress(ref)
		if err != nil {
			return Address{}, err
		}
	} else {
		segments, err := parsePointer(frag, ref)
		if err != nil {
			return Address{}, err
		}
		target = Address{docID: joinDocumentID(a.docID, docPart), segments: segments}
	}

	if target.Equal(a) {
		return Address{}, &referrors.ReferenceParseError{
			Reference:       ref,
			IsSelfReference: true,
			Message:         "reference resolves to its own address " + a.String(),
		}
	}
	return target, nil
}

// joinDocumentID joins a relative document part against the directory of
// the current document identity, preserving any scheme and host.
func joinDocumentID(base, rel string) string {
	if u, err := url.Parse(base); err == nil && u.IsAbs() {
		u.Path = path.Join(path.Dir(u.Path), rel)
		u.Fragment = ""
		u.RawQuery = ""
		return u.String()
	}
	return path.Join(path.Dir(base), rel)
}
