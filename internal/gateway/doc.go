// Package gateway is the HTTP client for the remote device backend.
//
// The backend exposes a small JSON API under a base path (default
// http://localhost:8080/api):
//
//	GET  /devices          list of devices
//	GET  /sensors          list of sensor readings
//	PUT  /devices/{id}     {"status": "on"|"off"}
//	PUT  /thermostat       {"temperature": 22.5}
//	PUT  /fan              {"isOn": true, "speed": 2}
//
// Fetches return typed errors wrapping ErrRequestFailed, ErrUnexpectedStatus
// or ErrInvalidResponse. The response body is decoded for shape only;
// per-entry validation is left to the consumer (device.SanitizeDevices).
// Write-backs are best-effort: failures are logged and reported as false.
package gateway
