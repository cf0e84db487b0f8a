// Package preview streams rendered documents to browser viewers.
//
// The server mounts a Hub at /ws. Editors connect with a Publisher and send
// every committed document as a "document" message; the hub renders it to
// HTML with goldmark and broadcasts an "html" message to every other
// connection. A viewer that connects late receives the last rendering
// immediately.
//
// Message format (JSON text frames):
//
//	{"type":"document","doc":{...snapshot...}}
//	{"type":"html","version":7,"html":"<h1>Title</h1>"}
package preview
