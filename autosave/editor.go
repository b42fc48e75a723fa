package autosave

import "context"

// Document is an editable, savable buffer.
type Document interface {
	// AddListener registers fn to be called after every change. The returned
	// function removes the listener; calling it more than once is a no-op.
	AddListener(fn func()) (remove func())

	// Save persists the current content.
	Save(ctx context.Context) error
}

// Editor is an open view onto a file.
//
// Implementations are compared with == when the editor listing is diffed, so
// they should be pointer types.
type Editor interface {
	// File identifies the edited file. Editors on the same file share one listener.
	File() string

	// Document returns the editor's document, or false when it has none.
	Document() (Document, bool)
}
