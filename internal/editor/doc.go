// Package editor is the bubbletea program that ties the document to the
// interaction layers.
//
// The Model owns the caret and the selection anchor, lays the document out
// for the terminal and routes input in a fixed order: the image path prompt,
// the manual copy panel, the command palette, the contextual action
// workflow, the AI advisory and finally plain editing. The palette and the
// workflow are never open at the same time.
//
// Long-running work (asset reads, uploads, transforms, clipboard access,
// saving) runs as tea.Cmd and reports back as messages, so every document
// mutation happens on the Update goroutine through Document.Apply.
package editor
