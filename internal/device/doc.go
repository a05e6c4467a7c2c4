// Package device defines the data model shared by the dashboard: smart
// devices, sensor readings and the per-kind power rating table.
//
// Values coming from outside the process (gateway responses, persisted
// snapshots, MQTT commands) are checked once with ValidateDevice and
// ValidateReading, or filtered with SanitizeDevices and SanitizeReadings.
// Everything past that boundary can assume well-formed data.
//
// # Key Types
//
//   - SmartDevice: id, type, rated power, on/off status and optional readings
//   - SensorReading: timestamped temperature/humidity sample
//   - PowerTable: rated wattage for lamp, fan, thermostat and sensor
//
// # Usage
//
//	valid, rejected := device.SanitizeDevices(fromGateway)
//	for _, err := range rejected {
//	    log.Warn("dropping device", "error", err)
//	}
package device
