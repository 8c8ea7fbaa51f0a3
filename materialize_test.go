package refdict

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testdataView(t *testing.T, address string) *View {
	t.Helper()
	view, err := OpenWith(NewResolver(NewDocumentStore()), address)
	require.NoError(t, err)
	return view
}

// sameObject reports whether two materialized containers are the exact
// same object, not merely equal in content.
func sameObject(a, b any) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

func TestMaterializeExpandsReferences(t *testing.T) {
	view := testdataView(t, "testdata/master.yaml#/definitions")

	result, err := Materialize(view)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"foo":        map[string]any{"type": "string"},
		"local_ref":  map[string]any{"type": "string"},
		"remote_ref": map[string]any{"type": "integer"},
		"backref":    map[string]any{"type": "string"},
	}, result)
}

func TestMaterializeSharedReferenceIdentity(t *testing.T) {
	view := fixtureView(t, "base/file1.json#/definitions")

	result, err := Materialize(view)
	require.NoError(t, err)
	root := result.(map[string]any)

	// local_ref and items[1] both reference definitions/foo, so all three
	// positions hold the exact same map.
	foo := root["foo"]
	assert.True(t, sameObject(foo, root["local_ref"]))
	items := root["items"].([]any)
	assert.True(t, sameObject(foo, items[1]))

	// backref goes through file2's baz, a distinct address, so it expands
	// to an equal but separate object.
	assert.Equal(t, foo, root["backref"])
	assert.False(t, sameObject(foo, root["backref"]))

	// A reference to a scalar flattens to the scalar itself.
	assert.Equal(t, "string", root["scalar_ref"])
}

func TestMaterializeReferencesInArrays(t *testing.T) {
	view := testdataView(t, "testdata/array-ref.yaml#/definitions")

	result, err := Materialize(view)
	require.NoError(t, err)
	root := result.(map[string]any)

	assert.Equal(t, map[string]any{"type": "string"}, root["bar"])
	oneOf := root["foo"].(map[string]any)["oneOf"].([]any)
	require.Len(t, oneOf, 2)
	assert.Equal(t, map[string]any{"type": "string"}, oneOf[0])
	assert.Equal(t, map[string]any{"type": "null"}, oneOf[1])
	assert.True(t, sameObject(root["bar"], oneOf[0]))
}

func TestMaterializeCyclicDocument(t *testing.T) {
	view := testdataView(t, "testdata/circular.yaml#/")

	result, cyclic, err := MaterializeTracked(view)
	require.NoError(t, err)
	assert.True(t, cyclic)

	// The document's foo references its own root, so the output contains a
	// real cycle: following definitions/foo lands back on the root object.
	root := result.(map[string]any)
	definitions := root["definitions"].(map[string]any)
	assert.True(t, sameObject(result, definitions["foo"]))
}

func TestMaterializeTrackedAcyclic(t *testing.T) {
	view := testdataView(t, "testdata/master.yaml#/definitions")

	_, cyclic, err := MaterializeTracked(view)
	require.NoError(t, err)
	assert.False(t, cyclic)
}

func TestMaterializeIncludeKeys(t *testing.T) {
	t.Run("filters at every mapping level", func(t *testing.T) {
		view := fixtureView(t, "base/file2.json#/definitions")

		result, err := Materialize(view, WithIncludeKeys("bar", "type"))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"bar": map[string]any{"type": "integer"},
		}, result)
	})

	t.Run("sequence elements are unaffected", func(t *testing.T) {
		view := testdataView(t, "testdata/array-ref.yaml#/definitions")

		result, err := Materialize(view, WithIncludeKeys("foo", "oneOf", "type"))
		require.NoError(t, err)
		oneOf := result.(map[string]any)["foo"].(map[string]any)["oneOf"].([]any)
		assert.Len(t, oneOf, 2)
	})
}

func TestMaterializeExcludeKeys(t *testing.T) {
	view := testdataView(t, "testdata/master.yaml#/definitions")

	result, err := Materialize(view, WithExcludeKeys("backref", "remote_ref"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"foo":       map[string]any{"type": "string"},
		"local_ref": map[string]any{"type": "string"},
	}, result)

	t.Run("exclusion wins over inclusion", func(t *testing.T) {
		result, err := Materialize(view,
			WithIncludeKeys("foo", "local_ref", "type"),
			WithExcludeKeys("local_ref"))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"foo": map[string]any{"type": "string"},
		}, result)
	})
}

func TestMaterializeValueMap(t *testing.T) {
	view := testdataView(t, "testdata/master.yaml#/definitions/foo")

	result, err := Materialize(view, WithValueMap(func(value any) any {
		if s, ok := value.(string); ok {
			return strings.ToUpper(s)
		}
		return value
	}))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"type": "STRING"}, result)
}

func TestMaterializeLabel(t *testing.T) {
	view := testdataView(t, "testdata/master.yaml#/definitions/local_ref")

	result, err := Materialize(view, WithLabel(func(address string) (string, any) {
		return "$source", address
	}))
	require.NoError(t, err)

	// The label records the address each mapping node materialized at.
	assert.Equal(t, map[string]any{
		"type":    "string",
		"$source": "testdata/master.yaml#/definitions/local_ref",
	}, result)
}

func TestMaterializePlainValues(t *testing.T) {
	result, err := Materialize(42)
	require.NoError(t, err)
	assert.Equal(t, 42, result)

	result, err = Materialize("scalar", WithValueMap(func(value any) any {
		return "mapped"
	}))
	require.NoError(t, err)
	assert.Equal(t, "mapped", result)

	result, err = Materialize(nil)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestMaterializeNavigationErrorPropagates(t *testing.T) {
	store := NewDocumentStore()
	require.NoError(t, store.Register(fixtureLoader(map[string]any{
		"broken.json": map[string]any{
			"ok":     map[string]any{"type": "string"},
			"broken": map[string]any{"$ref": "#/missing"},
		},
	})))

	view, err := OpenWith(NewResolver(store), "broken.json#/")
	require.NoError(t, err)

	_, err = Materialize(view)
	require.Error(t, err)
}
