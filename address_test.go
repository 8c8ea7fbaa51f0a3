package refdict

import (
	"errors"
	"testing"

	"github.com/erraggy/refdict/referrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     string
		segments []string
	}{
		{"document with root pointer", "base/file1.json#/", "base/file1.json#/", nil},
		{"missing hash defaults to root", "foobar", "foobar#/", nil},
		{"empty pointer defaults to root", "foobar#", "foobar#/", nil},
		{"simple pointer", "base/file1.json#/definitions/foo", "base/file1.json#/definitions/foo", []string{"definitions", "foo"}},
		{"escaped segments decode", "doc.yaml#/a~1b/c~0d", "doc.yaml#/a~1b/c~0d", []string{"a/b", "c~d"}},
		{"http document", "https://example.com/schema.yaml#/definitions", "https://example.com/schema.yaml#/definitions", []string{"definitions"}},
		{"array index segment", "doc.yaml#/items/0", "doc.yaml#/items/0", []string{"items", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := ParseAddress(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, addr.String())
			assert.Equal(t, tt.segments, addr.Segments())
		})
	}
}

func TestParseAddressErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"pointer without leading slash", "foobar#definitions"},
		{"fragment-only has no document", "#/definitions"},
		{"empty string", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAddress(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, referrors.ErrReferenceParse)
		})
	}
}

func TestSegmentEscaping(t *testing.T) {
	tests := []struct {
		raw     string
		escaped string
	}{
		{"plain", "plain"},
		{"a/b", "a~1b"},
		{"a~b", "a~0b"},
		{"~1", "~01"},
		{"/~", "~1~0"},
		{"with spaces", "with spaces"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.escaped, EscapeSegment(tt.raw))
			assert.Equal(t, tt.raw, UnescapeSegment(tt.escaped))
			// Round trip holds in both directions.
			assert.Equal(t, tt.escaped, EscapeSegment(UnescapeSegment(tt.escaped)))
		})
	}
}

func TestAddressChildParent(t *testing.T) {
	addr := MustParseAddress("doc.yaml#/definitions")

	child := addr.Child("foo", "bar")
	assert.Equal(t, "doc.yaml#/definitions/foo/bar", child.String())
	// Parent drops one segment at a time.
	assert.Equal(t, "doc.yaml#/definitions/foo", child.Parent().String())
	assert.Equal(t, addr.String(), child.Parent().Parent().String())

	root := MustParseAddress("doc.yaml#/")
	assert.True(t, root.IsRoot())
	assert.Equal(t, root.String(), root.Parent().String())

	// Child escapes special characters in the canonical form only.
	withSlash := addr.Child("a/b")
	assert.Equal(t, "doc.yaml#/definitions/a~1b", withSlash.String())
	assert.Equal(t, []string{"definitions", "a/b"}, withSlash.Segments())
}

func TestAddressImmutability(t *testing.T) {
	addr := MustParseAddress("doc.yaml#/a/b")
	child := addr.Child("c")
	sibling := addr.Child("d")

	assert.Equal(t, "doc.yaml#/a/b", addr.String())
	assert.Equal(t, "doc.yaml#/a/b/c", child.String())
	assert.Equal(t, "doc.yaml#/a/b/d", sibling.String())

	segments := addr.Segments()
	segments[0] = "mutated"
	assert.Equal(t, "doc.yaml#/a/b", addr.String(), "Segments() must return a copy")
}

func TestAddressEqual(t *testing.T) {
	a := MustParseAddress("doc.yaml#/a/b")
	b := MustParseAddress("doc.yaml#/a/b")
	c := MustParseAddress("doc.yaml#/a")
	d := MustParseAddress("other.yaml#/a/b")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(d))
}

func TestAddressRelative(t *testing.T) {
	tests := []struct {
		name string
		base string
		ref  string
		want string
	}{
		{"fragment only", "base/file1.json#/definitions/local_ref", "#/definitions/baz", "base/file1.json#/definitions/baz"},
		{"fragment root", "base/file1.json#/definitions", "#/", "base/file1.json#/"},
		{"bare fragment", "base/file1.json#/definitions", "#", "base/file1.json#/"},
		{"sibling document", "base/file1.json#/definitions/remote_ref", "file2.json#/definitions/bar", "base/file2.json#/definitions/bar"},
		{"sibling without pointer", "base/file1.json#/x", "file2.json", "base/file2.json#/"},
		{"subdirectory document", "base/file1.json#/x", "nested/file3.json#/a", "base/nested/file3.json#/a"},
		{"parent directory document", "base/sub/file1.json#/x", "../file2.json#/a", "base/file2.json#/a"},
		{"absolute url reference", "base/file1.json#/x", "https://example.com/schema.yaml#/a", "https://example.com/schema.yaml#/a"},
		{"relative against url base", "https://example.com/specs/file1.yaml#/x", "file2.yaml#/a", "https://example.com/specs/file2.yaml#/a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := MustParseAddress(tt.base)
			got, err := base.Relative(tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestAddressRelativeSelfReference(t *testing.T) {
	tests := []struct {
		name string
		base string
		ref  string
	}{
		{"root to own root", "doc.yaml#/", "#/"},
		{"pointer to itself", "doc.yaml#/definitions/foo", "#/definitions/foo"},
		{"own document by name", "base/doc.yaml#/", "doc.yaml#/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := MustParseAddress(tt.base)
			_, err := base.Relative(tt.ref)
			require.Error(t, err)
			assert.ErrorIs(t, err, referrors.ErrReferenceParse)
			assert.ErrorIs(t, err, referrors.ErrSelfReference)

			var parseErr *referrors.ReferenceParseError
			require.True(t, errors.As(err, &parseErr))
			assert.True(t, parseErr.IsSelfReference)
		})
	}
}

func TestAddressRelativeErrors(t *testing.T) {
	base := MustParseAddress("doc.yaml#/a")

	_, err := base.Relative("#definitions")
	assert.ErrorIs(t, err, referrors.ErrReferenceParse)

	_, err = base.Relative("other.yaml#definitions")
	assert.ErrorIs(t, err, referrors.ErrReferenceParse)
}
