// Package store holds the dashboard's authoritative device state.
//
// A Store owns the ordered device list, the bounded sensor history, the lamp
// and fan switches, the thermostat target and the power rating table. Every
// mutation goes through an action method (ToggleLamp, SetTemperature, ...)
// which runs atomically under the store's lock and returns an Outcome saying
// whether the change was applied, whether corrupt state had to be healed
// first, or whether the target device was missing.
//
// Total power consumption is never stored; TotalPowerConsumption derives it
// from the switches, the device statuses and the power table on every call.
//
// # Self-healing
//
// The device list and the sensor history can only become corrupt when a
// persisted snapshot fails to decode (see Restore). The next action that
// touches the corrupt container resets it (defaults for devices, empty for
// history) and reports OutcomeRecovered. A panic inside an action is caught
// by the action wrapper, logged, and the device list is force-reset.
//
// # Events
//
// Listeners registered with Subscribe receive an Event after every action,
// outside the lock, carrying a deep copy of the resulting State. The MQTT
// relay, SQLite history, InfluxDB telemetry, Prometheus metrics and the
// WebSocket hub all hang off this hook.
//
// # Usage
//
//	s := store.New(store.Options{
//	    Source:          gatewayClient,
//	    Power:           device.DefaultPowerTable(),
//	    LampOn:          true,
//	    FanOn:           true,
//	    Temperature:     25,
//	    HistoryCapacity: 100,
//	})
//	s.SetLogger(log)
//	s.InitDevices(ctx)
//	s.ToggleLamp()
//	watts := s.TotalPowerConsumption()
//
// # Thread Safety
//
// All methods are safe for concurrent use. Gateway calls made by InitDevices
// happen outside the lock.
package store
