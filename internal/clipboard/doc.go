// Package clipboard copies text with a layered fallback: the system
// clipboard first, then an OSC52 request to the terminal, and finally a
// manual-copy result that the UI shows with the text selected.
package clipboard
