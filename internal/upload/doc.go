// Package upload reconciles asynchronous asset uploads with a document that
// keeps changing while they run.
//
// OnAssets inserts one placeholder image per asset, each tagged with a unique
// token, and returns upload tasks staggered 200ms apart. Run performs an upload
// off the UI goroutine; Complete then looks the token up in the current
// document and patches that node, or does nothing if the user deleted it.
// Failed uploads keep their token so Retry can restart them.
package upload
