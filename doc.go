// Package refdict provides lazy, reference-following views over documents
// that use $ref pointers, as found in JSON Schema, OpenAPI, and similar
// specification formats.
//
// A View is bound to an address of the form "document#/json/pointer" and can
// be read like an ordinary nested mapping or sequence: indexing into it
// returns scalars directly and wraps nested containers in further views,
// transparently following any $ref indirection (local, cross-document, or
// remote) at any depth. Documents are fetched and decoded at most once.
//
// # Quick Start
//
// Open a view over a document and read through references:
//
//	view, err := refdict.Open("schemas/master.yaml#/definitions")
//	if err != nil {
//		log.Fatal(err)
//	}
//	foo, err := view.Get("foo") // follows $ref if present
//
// Flatten a whole document, replacing every $ref with its target:
//
//	doc, err := refdict.Materialize(view)
//
// Materialized output may legitimately contain reference cycles when the
// source documents do; see Materialize for details.
//
// # Isolated instances
//
// Open uses a process-wide default resolver. Construct isolated instances
// when tests or long-running services need independent caches:
//
//	store := refdict.NewDocumentStore()
//	res := refdict.NewResolver(store)
//	view, err := refdict.OpenWith(res, "schemas/master.yaml#/")
//
// Custom loaders can satisfy document identities without touching the
// filesystem or network:
//
//	store.Register(func(id string) (any, error) {
//		doc, ok := fixtures[id]
//		if !ok {
//			return nil, refdict.ErrSkip
//		}
//		return doc, nil
//	})
//
// Structured errors live in the referrors package; everything this library
// returns can be classified with errors.Is against its sentinels.
package refdict
