// Package reference decides whether an on-disk reference image is in sync
// with the most recent manually uploaded image for a scenario/viewport.
package reference

import "time"

// Status of one reference image relative to its latest upload.
type Status string

const (
	// StatusSynced means the reference exists and is at least as new as any upload.
	StatusSynced Status = "synced"
	// StatusOutdated means an upload is newer than the on-disk reference.
	StatusOutdated Status = "outdated"
	// StatusMissing means no reference exists (or it is unreadable, which is
	// operationally the same thing).
	StatusMissing Status = "missing"
)

// Decide computes the sync status from the facts a filesystem collaborator
// gathered. Pure: all I/O happens at the caller.
func Decide(refExists bool, refMod time.Time, uploadExists bool, uploadMod time.Time) Status {
	if !refExists {
		return StatusMissing
	}
	if uploadExists && uploadMod.After(refMod) {
		return StatusOutdated
	}
	return StatusSynced
}

// Combine aggregates per-selector statuses into one status for a
// (scenario, viewport) pair: missing dominates outdated dominates synced.
func Combine(statuses []Status) Status {
	combined := StatusSynced
	for _, s := range statuses {
		switch s {
		case StatusMissing:
			return StatusMissing
		case StatusOutdated:
			combined = StatusOutdated
		}
	}
	return combined
}
