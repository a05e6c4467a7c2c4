// Package api implements the dashboard's HTTP REST API and WebSocket push.
//
// It is the presentation boundary of the device state store: UIs read the
// state, trigger store actions and receive every store event live.
//
//   - REST endpoints under /api/v1 for state, devices, switches, thermostat,
//     sensor history and power
//   - Gateway write-back after each user action (result reported, never fatal)
//   - WebSocket hub broadcasting store events by channel
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//   - Prometheus endpoint when metrics are enabled
//
// The server needs only a store. Gateway, history and metrics are optional
// and the corresponding fields or routes degrade gracefully without them.
package api
