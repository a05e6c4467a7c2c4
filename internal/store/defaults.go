package store

import "github.com/nerrad567/gray-logic-dashboard/internal/device"

// Fixed readings reported by the default sensor until real data arrives.
const (
	defaultSensorHumidity    = 65.0
	defaultSensorTemperature = 23.0
)

// DefaultDevices returns the fallback device set derived from the current
// power table, switches and thermostat target.
func (s *Store) DefaultDevices() []device.SmartDevice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultDevicesLocked()
}

func (s *Store) defaultDevicesLocked() []device.SmartDevice {
	return []device.SmartDevice{
		{
			ID:     device.LampID,
			Type:   device.TypeLight,
			Power:  s.power.Lamp,
			Status: device.StatusFromBool(s.lampOn),
		},
		{
			ID:     device.FanID,
			Type:   device.TypeFan,
			Power:  s.power.Fan,
			Status: device.StatusFromBool(s.fanOn),
		},
		{
			ID:          device.ThermostatID,
			Type:        device.TypeThermostat,
			Power:       s.power.Thermostat,
			Status:      device.StatusOn,
			Temperature: device.Float(s.temperature),
		},
		{
			ID:          device.SensorID,
			Type:        device.TypeSensor,
			Power:       s.power.Sensor,
			Status:      device.StatusOn,
			Humidity:    device.Float(defaultSensorHumidity),
			Temperature: device.Float(defaultSensorTemperature),
		},
	}
}

// resetDevicesLocked replaces the device list with the default set and clears
// the corruption flag. Caller must hold the write lock.
func (s *Store) resetDevicesLocked() {
	s.devices = s.defaultDevicesLocked()
	s.devicesCorrupt = false
}
