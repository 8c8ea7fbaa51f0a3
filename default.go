package refdict

import "sync"

var (
	defaultOnce     sync.Once
	defaultResolver *Resolver
)

// Default returns the process-wide resolver used by Open and Query. It is
// created on first use with a fresh DocumentStore. Programs that need
// isolated caches should construct their own resolver with NewResolver
// instead of mutating this one.
func Default() *Resolver {
	defaultOnce.Do(func() {
		defaultResolver = NewResolver(NewDocumentStore())
	})
	return defaultResolver
}
