package lsp

import (
	"sync"

	"ghosttext/types"
)

// DocumentStore holds the text of all open documents, keyed by URI. The
// server runs with full document sync, so every change replaces the whole
// content.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]types.DocumentSnapshot
}

// NewDocumentStore creates an empty store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]types.DocumentSnapshot)}
}

// Open records a newly opened document.
func (ds *DocumentStore) Open(uri, languageID string, version int32, text string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.docs[uri] = types.DocumentSnapshot{
		URI:        uri,
		LanguageID: languageID,
		Version:    version,
		Text:       text,
	}
}

// Change replaces a document's content. Unknown URIs are ignored; the
// client should have opened the document first.
func (ds *DocumentStore) Change(uri string, version int32, text string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	doc, ok := ds.docs[uri]
	if !ok {
		return
	}
	doc.Version = version
	doc.Text = text
	ds.docs[uri] = doc
}

// Close forgets a document.
func (ds *DocumentStore) Close(uri string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	delete(ds.docs, uri)
}

// Get returns a snapshot of the document, if open.
func (ds *DocumentStore) Get(uri string) (types.DocumentSnapshot, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	doc, ok := ds.docs[uri]
	return doc, ok
}

// Text returns the current content of the document and whether the
// document is open. Satisfies telemetry.DocumentTextFunc.
func (ds *DocumentStore) Text(uri string) (string, bool) {
	doc, ok := ds.Get(uri)
	return doc.Text, ok
}
