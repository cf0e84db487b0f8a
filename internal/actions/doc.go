// Package actions implements the contextual action workflow shown over a
// text selection.
//
// A qualifying selection opens the toolbar, which lists the transform actions
// and a model picker. Choosing an action opens the dialog, which moves through
// three phases:
//
//   - Input: an optional instruction for the transform
//   - Processing: exactly one transform call is in flight
//   - Result: the original and processed text side by side
//
// Accept replaces the range captured when the toolbar opened, but only if it
// still holds the captured text. Responses are tagged with a sequence number,
// so a response to a superseded or closed request is dropped.
package actions
