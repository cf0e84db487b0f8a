// Package palette implements the slash command menu.
//
// Typing the trigger character at the start of an empty line opens the
// primary menu. Text typed after the trigger filters commands by keyword;
// arrows move a wrapping highlight, right opens the model submenu and enter
// runs the highlighted command. The palette never edits the document itself:
// HandleKey returns an Outcome naming the span to delete and the command to
// run, and the editor applies both through Execute and its EditorContext.
package palette
