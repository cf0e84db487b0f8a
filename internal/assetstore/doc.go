// Package assetstore uploads images and returns a public URL for each.
//
// Three stores are provided:
//
//   - HTTPStore posts base64 JSON to an inkwell-server (/api/upload-image)
//   - FSStore writes into a local directory served under /assets/
//   - GitHubStore commits through the GitHub contents API
//
// All stores validate the asset first (non-empty, at most 10MB, an image
// content type) and name objects with UniqueName so concurrent uploads of
// identically named files never collide. Network stores retry retryable
// failures with exponential backoff; errors are typed by package remote.
package assetstore
