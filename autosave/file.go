package autosave

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// FileDocument is an in-memory document backed by a file path.
//
// Save writes the content to a temporary file next to the target and renames
// it into place, so readers never observe a partial write.
type FileDocument struct {
	path string

	mu        sync.Mutex
	content   []byte
	version   uint64
	saved     uint64
	listeners map[uint64]func()
	nextID    uint64

	saveMu sync.Mutex
}

var _ Document = (*FileDocument)(nil)

// NewFileDocument creates a document for path holding content. It is not
// considered dirty until its content changes.
func NewFileDocument(path string, content []byte) *FileDocument {
	return &FileDocument{
		path:      path,
		content:   slices.Clone(content),
		listeners: make(map[uint64]func()),
	}
}

// LoadFileDocument reads path into a new document. A missing file yields an
// empty document.
func LoadFileDocument(path string) (*FileDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load document %s: %w", path, err)
	}

	return NewFileDocument(path, data), nil
}

// Path returns the file the document is saved to.
func (d *FileDocument) Path() string {
	return d.path
}

// Content returns a copy of the current content.
func (d *FileDocument) Content() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	return slices.Clone(d.content)
}

// SetContent replaces the content and notifies listeners.
func (d *FileDocument) SetContent(content []byte) {
	d.mu.Lock()
	d.content = slices.Clone(content)
	d.version++
	listeners := make([]func(), 0, len(d.listeners))
	for _, fn := range d.listeners {
		listeners = append(listeners, fn)
	}
	d.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// Dirty reports whether the content changed since the last successful save.
func (d *FileDocument) Dirty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.version != d.saved
}

// AddListener implements Document.
func (d *FileDocument) AddListener(fn func()) func() {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.listeners[id] = fn
	d.mu.Unlock()

	var once sync.Once

	return func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.listeners, id)
			d.mu.Unlock()
		})
	}
}

// Listeners returns the number of registered listeners.
func (d *FileDocument) Listeners() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.listeners)
}

// Save implements Document.
func (d *FileDocument) Save(ctx context.Context) error {
	d.saveMu.Lock()
	defer d.saveMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	content := slices.Clone(d.content)
	version := d.version
	d.mu.Unlock()

	if err := writeFileAtomic(d.path, content); err != nil {
		return fmt.Errorf("save document %s: %w", d.path, err)
	}

	d.mu.Lock()
	if version > d.saved {
		d.saved = version
	}
	d.mu.Unlock()

	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

// FileEditor is an Editor over a FileDocument.
type FileEditor struct {
	doc *FileDocument
}

var _ Editor = (*FileEditor)(nil)

// NewFileEditor opens an editor on doc.
func NewFileEditor(doc *FileDocument) *FileEditor {
	return &FileEditor{doc: doc}
}

// File implements Editor.
func (e *FileEditor) File() string {
	if e.doc == nil {
		return ""
	}

	return e.doc.Path()
}

// Document implements Editor.
func (e *FileEditor) Document() (Document, bool) {
	if e.doc == nil {
		return nil, false
	}

	return e.doc, true
}
