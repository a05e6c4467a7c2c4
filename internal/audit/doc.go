// Package audit keeps a persistent trail of store actions.
//
// Every action the store applies (lamp and fan toggles, device status
// updates, thermostat changes, resets, restores) is written to the
// action_log table with its outcome and a small summary of the resulting
// state. Sensor readings are not logged here; the history package keeps
// those.
//
// Usage:
//
//	repo := audit.NewSQLiteRepository(db.DB)
//	st.Subscribe(audit.NewRecorder(repo, log).HandleEvent)
//
//	page, err := repo.List(ctx, audit.Filter{DeviceID: "lamp1", Limit: 20})
package audit
