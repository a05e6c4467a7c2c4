// Package history persists the dashboard state to SQLite.
//
// Two tables are maintained (see migrations/):
//
//   - store_snapshot: one row holding the latest store state, rewritten after
//     every store event and fed back into store.Restore on startup.
//   - sensor_readings: an append-only log of every reading the poller
//     appended, tagged with its source (gateway or synthetic).
//
// Recorder glues the repository to the rest of the system: it is a store
// listener (HandleEvent) and a poller observer (ObservePoll).
package history
