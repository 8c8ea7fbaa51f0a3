package refdict

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/erraggy/refdict/referrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureLoader serves documents from a map, skipping everything else.
func fixtureLoader(docs map[string]any) Loader {
	return func(documentID string) (any, error) {
		doc, ok := docs[documentID]
		if !ok {
			return nil, ErrSkip
		}
		return doc, nil
	}
}

func TestDocumentStoreRegisterUnregister(t *testing.T) {
	store := NewDocumentStore()

	loader := fixtureLoader(map[string]any{"a.yaml": map[string]any{"x": 1}})
	require.NoError(t, store.Register(loader))

	t.Run("duplicate registration fails", func(t *testing.T) {
		err := store.Register(loader)
		assert.Error(t, err)
	})

	t.Run("unregister removes", func(t *testing.T) {
		require.NoError(t, store.Unregister(loader))
		assert.Error(t, store.Unregister(loader), "second unregister should fail")
	})

	t.Run("nil loader rejected", func(t *testing.T) {
		assert.Error(t, store.Register(nil))
		assert.Error(t, store.Unregister(nil))
	})
}

func TestDocumentStoreChainOrder(t *testing.T) {
	store := NewDocumentStore()

	var calls []string
	first := func(id string) (any, error) {
		calls = append(calls, "first")
		return nil, ErrSkip
	}
	second := func(id string) (any, error) {
		calls = append(calls, "second")
		return map[string]any{"from": "second"}, nil
	}

	require.NoError(t, store.Register(Loader(first)))
	require.NoError(t, store.Register(Loader(second)))

	doc, err := store.Load("whatever.yaml")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"from": "second"}, doc)
	// Most recently registered runs first and won, so the older loader
	// never ran.
	assert.Equal(t, []string{"second"}, calls)
}

func TestDocumentStoreSkipFallsThrough(t *testing.T) {
	store := NewDocumentStore()

	skipper := func(id string) (any, error) { return nil, ErrSkip }
	server := fixtureLoader(map[string]any{"b.yaml": map[string]any{"y": 2}})

	require.NoError(t, store.Register(server))
	require.NoError(t, store.Register(Loader(skipper)))

	doc, err := store.Load("b.yaml")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"y": 2}, doc)
}

func TestDocumentStoreAllSkipUsesDefaultLoader(t *testing.T) {
	store := NewDocumentStore()
	require.NoError(t, store.Register(Loader(func(id string) (any, error) {
		return nil, ErrSkip
	})))

	doc, err := store.Load("testdata/master.yaml")
	require.NoError(t, err)

	root, ok := doc.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, root, "definitions")
}

func TestDocumentStoreLoaderErrorWraps(t *testing.T) {
	store := NewDocumentStore()
	boom := errors.New("backend down")
	require.NoError(t, store.Register(Loader(func(id string) (any, error) {
		return nil, boom
	})))

	_, err := store.Load("a.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, referrors.ErrDocumentParse)
	assert.ErrorIs(t, err, boom)
}

func TestDocumentStoreCaching(t *testing.T) {
	store := NewDocumentStore()

	var calls atomic.Int64
	require.NoError(t, store.Register(Loader(func(id string) (any, error) {
		calls.Add(1)
		return map[string]any{"id": id}, nil
	})))

	for range 3 {
		doc, err := store.Load("cached.yaml")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"id": "cached.yaml"}, doc)
	}
	assert.Equal(t, int64(1), calls.Load(), "loader should run once per document identity")

	// CacheClear forces a reload; the chain is untouched.
	store.CacheClear()
	_, err := store.Load("cached.yaml")
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestDocumentStoreClearKeepsCache(t *testing.T) {
	store := NewDocumentStore()
	require.NoError(t, store.Register(fixtureLoader(map[string]any{
		"c.yaml": map[string]any{"z": 3},
	})))

	_, err := store.Load("c.yaml")
	require.NoError(t, err)

	// Clearing the chain does not drop already-loaded documents.
	store.Clear()
	doc, err := store.Load("c.yaml")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"z": 3}, doc)

	// But unseen documents now fall to the default loader and fail.
	_, err = store.Load("never-seen.yaml")
	assert.ErrorIs(t, err, referrors.ErrDocumentParse)
}

func TestDocumentStoreCacheLimit(t *testing.T) {
	store := NewDocumentStore()
	store.MaxCachedDocuments = 2
	require.NoError(t, store.Register(Loader(func(id string) (any, error) {
		return map[string]any{}, nil
	})))

	_, err := store.Load("one.yaml")
	require.NoError(t, err)
	_, err = store.Load("two.yaml")
	require.NoError(t, err)

	_, err = store.Load("three.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, referrors.ErrResourceLimit)
}
