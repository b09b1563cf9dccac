// Package manager keeps the text of open documents and loads everything else
// from disk.
package manager

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"laravells/internal/sitteradapter"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

var (
	ErrNotLoaded = errors.New("manager: document not loaded")
	ErrNotFile   = errors.New("manager: uri is not a file uri")
)

// DocumentManager holds the current text of every open URI.
type DocumentManager struct {
	mu   sync.Mutex
	docs map[string][]byte
}

// NewDocumentManager creates an initialized DocumentManager.
func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		docs: make(map[string][]byte),
	}
}

// GetDocument returns the current document bytes for an open URI.
func (dm *DocumentManager) GetDocument(uri string) ([]byte, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc, ok := dm.docs[uri]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotLoaded, uri)
	}
	return doc, nil
}

// UpdateDocument replaces the document bytes for a URI.
func (dm *DocumentManager) UpdateDocument(uri string, content []byte) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.docs[uri] = content
}

// ApplyChanges applies LSP content changes, in order, to an open document.
func (dm *DocumentManager) ApplyChanges(uri string, changes []any) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc, ok := dm.docs[uri]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotLoaded, uri)
	}

	text := string(doc)
	for _, raw := range changes {
		switch change := raw.(type) {
		case protocol.TextDocumentContentChangeEvent:
			text = sitteradapter.ApplyTextEdit(change, text)
		case protocol.TextDocumentContentChangeEventWhole:
			text = change.Text
		default:
			return fmt.Errorf("unexpected change event type %T", raw)
		}
	}
	dm.docs[uri] = []byte(text)
	return nil
}

// Release forgets the document for a URI.
func (dm *DocumentManager) Release(uri string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	delete(dm.docs, uri)
}

// Load returns the open document for uri, or reads it from disk when the
// client has not opened it.
func (dm *DocumentManager) Load(uri string) ([]byte, error) {
	if doc, err := dm.GetDocument(uri); err == nil {
		return doc, nil
	}

	path, err := URIToPath(uri)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// URIToPath converts a file URI to a filesystem path.
func URIToPath(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("failed to parse uri: %w", err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("%w: %s", ErrNotFile, uri)
	}
	return filepath.FromSlash(u.Path), nil
}
