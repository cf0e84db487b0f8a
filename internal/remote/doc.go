// Package remote holds the error taxonomy and retry policy shared by the
// clients that talk to the asset store and the text-transform service.
//
// Transport failures are classified (timeout, refused, DNS, HTTP status) so
// the editor can show a one-line banner via ShortMessage and the CLI can print
// GetTroubleshootingHint. Only errors marked Retryable are repeated by
// RetryPolicy.Do.
package remote
