// Package selection implements the selection tracker.
//
// Every pointer-release or key event bumps a generation counter and schedules
// one debounced check. When the timer fires, only the latest generation is
// evaluated; it yields either "no selection" (hide dependent UI), a stable
// Snapshot for the contextual action workflow, or, when AI assistance is
// disabled, an advisory unless the user snoozed it.
//
// The feature flag and the snooze store are injected, so the editor reads its
// configuration once at construction and updates it through the same values.
package selection
