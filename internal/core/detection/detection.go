// Package detection contains the pure staleness policy used by the stuck
// sweep. Staleness is advisory metadata for operators; it never changes a
// workflow's stage or status.
package detection

import "time"

// DefaultStaleness is the default no-progress window before an in-progress
// workflow is flagged stuck.
const DefaultStaleness = 30 * time.Minute

// DefaultSweepInterval is the default period between detector sweeps.
const DefaultSweepInterval = 60 * time.Second

// IsStale reports whether a workflow last updated at updatedAt has shown no
// progress within the staleness window, as of now.
func IsStale(updatedAt, now time.Time, staleness time.Duration) bool {
	if staleness <= 0 {
		staleness = DefaultStaleness
	}
	return now.Sub(updatedAt) > staleness
}
