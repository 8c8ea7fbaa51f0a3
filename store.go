package refdict

import (
	"errors"
	"net/http"
	"reflect"
	"sync"

	"github.com/erraggy/refdict/referrors"
)

const (
	// MaxCachedDocuments is the default maximum number of documents to cache
	// This prevents memory exhaustion from documents with many external references
	MaxCachedDocuments = 100

	// MaxFileSize is the default maximum size (in bytes) allowed for fetched documents
	// This prevents resource exhaustion from loading arbitrarily large files
	// Set to 10MB which should be sufficient for most schema documents
	MaxFileSize = 10 * 1024 * 1024 // 10MB
)

// ErrSkip is returned by a Loader to indicate it does not handle the given
// document identity; dispatch continues to the next loader in the chain.
var ErrSkip = errors.New("refdict: loader skipped document")

// Loader resolves a document identity to its parsed content.
//
// A loader returns the parsed document tree (nested map[string]any /
// []any / scalars), or ErrSkip to pass the document on to the next loader
// in the chain. Any other error aborts the load.
type Loader func(documentID string) (any, error)

// DocumentStore caches parsed documents per document identity and
// dispatches loading to an ordered chain of loaders.
//
// Loaders registered with Register are tried most-recently-registered
// first; the first one that does not return ErrSkip wins. If the chain is
// empty or every loader skips, the built-in default loader runs: it fetches
// the document identity as a filesystem path or URL and decodes the bytes
// as JSON or YAML (see fetch.go).
//
// Loading a given document identity performs I/O at most once for the
// lifetime of the store (or until CacheClear). Concurrent loads of the same
// identity may duplicate work but never produce inconsistent results.
type DocumentStore struct {
	// HTTPClient is used by the default loader to fetch http(s) documents.
	// If nil, a default client with a 30-second timeout is created.
	HTTPClient *http.Client
	// UserAgent is the User-Agent string used when fetching URLs.
	// Defaults to "refdict/<version>" if not set.
	UserAgent string
	// Logger is the structured logger for debug output.
	// If nil, logging is disabled (default).
	Logger Logger

	// Resource limits (0 means use default)

	// MaxCachedDocuments is the maximum number of documents to cache.
	// Default: 100
	MaxCachedDocuments int
	// MaxFileSize is the maximum size in bytes of a fetched document.
	// Default: 10MB
	MaxFileSize int64

	mu    sync.Mutex
	chain []Loader
	cache map[string]any
}

// NewDocumentStore creates a store with an empty loader chain and cache.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		cache: make(map[string]any),
	}
}

// log returns the configured logger, or a no-op logger if none is set.
func (s *DocumentStore) log() Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return NopLogger{}
}

// loaderKey identifies a Loader for Register/Unregister. Go function values
// are not comparable, so identity is the function's code pointer: two
// closures created from the same function literal count as the same loader.
func loaderKey(fn Loader) uintptr {
	return reflect.ValueOf(fn).Pointer()
}

// Register prepends a loader to the dispatch chain, so the most recently
// registered loader is consulted first. Registering a loader that is
// already present fails.
func (s *DocumentStore) Register(fn Loader) error {
	if fn == nil {
		return errors.New("refdict: cannot register a nil loader")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := loaderKey(fn)
	for _, existing := range s.chain {
		if loaderKey(existing) == key {
			return errors.New("refdict: loader already registered")
		}
	}
	s.chain = append([]Loader{fn}, s.chain...)
	return nil
}

// Unregister removes a previously registered loader. Removing a loader
// that is not present fails.
func (s *DocumentStore) Unregister(fn Loader) error {
	if fn == nil {
		return errors.New("refdict: cannot unregister a nil loader")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := loaderKey(fn)
	for i, existing := range s.chain {
		if loaderKey(existing) == key {
			s.chain = append(s.chain[:i], s.chain[i+1:]...)
			return nil
		}
	}
	return errors.New("refdict: loader not registered")
}

// Clear empties the loader chain. The document cache is unaffected.
func (s *DocumentStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chain = nil
}

// CacheClear empties the document cache. The loader chain is unaffected.
func (s *DocumentStore) CacheClear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]any)
}

// Load returns the parsed document for the given identity, loading it on
// first use and caching it thereafter. Loader failures (other than ErrSkip)
// and decode failures surface as DocumentParseError.
func (s *DocumentStore) Load(documentID string) (any, error) {
	s.mu.Lock()
	if doc, ok := s.cache[documentID]; ok {
		s.mu.Unlock()
		return doc, nil
	}
	chain := make([]Loader, len(s.chain))
	copy(chain, s.chain)
	s.mu.Unlock()

	doc, err := s.dispatch(chain, documentID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.cache[documentID]; ok {
		// Lost a race with a concurrent load; keep the first result.
		return cached, nil
	}
	maxDocs := s.MaxCachedDocuments
	if maxDocs == 0 {
		maxDocs = MaxCachedDocuments
	}
	if len(s.cache) >= maxDocs {
		return nil, &referrors.ResourceLimitError{
			ResourceType: "cached_documents",
			Limit:        int64(maxDocs),
			Actual:       int64(len(s.cache)),
			Message:      "too many distinct documents",
		}
	}
	if s.cache == nil {
		s.cache = make(map[string]any)
	}
	s.cache[documentID] = doc
	return doc, nil
}

// dispatch runs the loader chain and falls back to the default loader.
func (s *DocumentStore) dispatch(chain []Loader, documentID string) (any, error) {
	for _, fn := range chain {
		doc, err := fn(documentID)
		switch {
		case err == nil:
			s.log().Debug("document loaded by registered loader", "document_id", documentID)
			return doc, nil
		case errors.Is(err, ErrSkip):
			continue
		default:
			return nil, &referrors.DocumentParseError{
				DocumentID: documentID,
				Message:    "loader failed",
				Cause:      err,
			}
		}
	}
	return s.fetchDocument(documentID)
}
