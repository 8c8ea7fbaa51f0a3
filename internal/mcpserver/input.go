package mcpserver

import (
	"fmt"
	"net/http"

	"github.com/erraggy/refdict"
	"go.yaml.in/yaml/v4"
)

// documentInput is the shared document argument of every tool: an address
// into a document, optionally with the document content supplied inline.
type documentInput struct {
	Address string `json:"address"           jsonschema:"Address of the node to operate on, e.g. schemas/master.yaml#/definitions or https://example.com/api.json#/components"`
	Content string `json:"content,omitempty" jsonschema:"Inline document content (YAML or JSON) served in place of fetching the address's document. References to other documents are still fetched normally."`
}

// serverResolver is the shared resolver behind tool calls that fetch their
// documents. Documents and resolutions are cached for the session.
var serverResolver = newServerResolver()

func newServerResolver() *refdict.Resolver {
	store := refdict.NewDocumentStore()
	store.MaxCachedDocuments = cfg.MaxCachedDocuments
	store.MaxFileSize = cfg.MaxFileSize
	store.HTTPClient = &http.Client{Timeout: cfg.HTTPTimeout}
	res := refdict.NewResolver(store)
	res.MaxRefDepth = cfg.MaxRefDepth
	return res
}

// resolve parses the address and picks the resolver to serve it: the shared
// session resolver, or an isolated one seeded with the inline content.
func (in documentInput) resolve() (*refdict.Resolver, refdict.Address, error) {
	if in.Address == "" {
		return nil, refdict.Address{}, fmt.Errorf("address is required")
	}
	addr, err := refdict.ParseAddress(in.Address)
	if err != nil {
		return nil, refdict.Address{}, err
	}

	if in.Content == "" {
		return serverResolver, addr, nil
	}

	var doc any
	if err := yaml.Unmarshal([]byte(in.Content), &doc); err != nil {
		return nil, refdict.Address{}, fmt.Errorf("invalid inline content: %w", err)
	}
	res := newServerResolver()
	docID := addr.DocumentID()
	err = res.Store().Register(func(documentID string) (any, error) {
		if documentID != docID {
			return nil, refdict.ErrSkip
		}
		return doc, nil
	})
	if err != nil {
		return nil, refdict.Address{}, err
	}
	return res, addr, nil
}

// view opens a container view at the input address.
func (in documentInput) view() (*refdict.View, error) {
	res, addr, err := in.resolve()
	if err != nil {
		return nil, err
	}
	return refdict.New(res, addr)
}
