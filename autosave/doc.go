// Package autosave persists edited documents shortly after they change.
//
// A Saver keeps one change-listener task per open file, driven by a tether
// Supervisor over the stream of open editors. Change events are coalesced per
// document; dirty documents are saved in rounds, with retries on failure and a
// debounce pause after every round. Documents still dirty when the Saver stops
// are flushed before Run returns.
//
// Example:
//
//	ws := autosave.NewWorkspace()
//	editors, _ := ws.Editors(ctx)
//	saver, _ := autosave.New(nil, autosave.WithLogger(logger))
//	go saver.Run(ctx, editors)
//
//	doc, _ := autosave.LoadFileDocument("notes.md")
//	_ = ws.Open(ctx, autosave.NewFileEditor(doc))
//	doc.SetContent([]byte("hello"))
package autosave
