// Package scheduler runs backup tasks unattended. Interval tasks fire on
// a fixed cadence; realtime tasks fire when the watched source tree
// changes, with a debounce so a burst of events produces one backup.
// After each successful backup the retention policy prunes old archives
// sharing the task's prefix.
//
// A Scheduler is an explicitly constructed instance owning its own task
// registry and goroutines; there is no process-wide singleton. Stop is a
// hard guarantee: when it returns, every timer and watch is down and no
// trigger is still executing. Trigger failures are logged and the task
// keeps its cadence; only task registration can fail.
package scheduler
