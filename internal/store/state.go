package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-dashboard/internal/device"
)

// State is a point-in-time copy of the store. Mutating it never affects the
// store.
type State struct {
	Devices         []device.SmartDevice   `json:"devices"`
	SensorData      []device.SensorReading `json:"sensor_data"`
	LampOn          bool                   `json:"is_lamp_on"`
	FanOn           bool                   `json:"fan_is_on"`
	Temperature     float64                `json:"temperature"`
	DevicePower     device.PowerTable      `json:"device_power"`
	TotalPower      float64                `json:"total_power_consumption"`
	DevicesCorrupt  bool                   `json:"devices_corrupt,omitempty"`
	ReadingsCorrupt bool                   `json:"sensor_data_corrupt,omitempty"`
	HistoryCapacity int                    `json:"history_capacity"`
}

// Device returns the device with the given ID from the snapshot.
func (st State) Device(id string) (device.SmartDevice, bool) {
	for _, d := range st.Devices {
		if d.ID == id {
			return d, true
		}
	}
	return device.SmartDevice{}, false
}

// State returns a deep copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

func (s *Store) stateLocked() State {
	devices := []device.SmartDevice{}
	if !s.devicesCorrupt {
		devices = device.CloneAll(s.devices)
		if devices == nil {
			devices = []device.SmartDevice{}
		}
	}

	readings := []device.SensorReading{}
	if !s.readingsCorrupt {
		readings = make([]device.SensorReading, len(s.readings))
		copy(readings, s.readings)
	}

	return State{
		Devices:         devices,
		SensorData:      readings,
		LampOn:          s.lampOn,
		FanOn:           s.fanOn,
		Temperature:     s.temperature,
		DevicePower:     s.power,
		TotalPower:      s.totalPowerLocked(),
		DevicesCorrupt:  s.devicesCorrupt,
		ReadingsCorrupt: s.readingsCorrupt,
		HistoryCapacity: s.capacity,
	}
}

// Devices returns a copy of the device list. A corrupt list reads as empty.
func (s *Store) Devices() []device.SmartDevice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.devicesCorrupt {
		return []device.SmartDevice{}
	}
	return device.CloneAll(s.devices)
}

// Device returns a copy of a single device by ID.
func (s *Store) Device(id string) (device.SmartDevice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.devicesCorrupt {
		return device.SmartDevice{}, false
	}
	if i := s.indexLocked(id); i >= 0 {
		return s.devices[i].Clone(), true
	}
	return device.SmartDevice{}, false
}

// LampOn reports the lamp switch.
func (s *Store) LampOn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lampOn
}

// FanOn reports the fan switch.
func (s *Store) FanOn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fanOn
}

// Temperature returns the thermostat target.
func (s *Store) Temperature() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.temperature
}

// Readings returns a copy of the sensor history, oldest first.
func (s *Store) Readings() []device.SensorReading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.readingsCorrupt {
		return []device.SensorReading{}
	}
	out := make([]device.SensorReading, len(s.readings))
	copy(out, s.readings)
	return out
}

// LatestReading returns the newest sensor reading, if any.
func (s *Store) LatestReading() (device.SensorReading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.readingsCorrupt || len(s.readings) == 0 {
		return device.SensorReading{}, false
	}
	return s.readings[len(s.readings)-1], true
}

// indexLocked returns the position of id in the device list or -1.
func (s *Store) indexLocked(id string) int {
	for i := range s.devices {
		if s.devices[i].ID == id {
			return i
		}
	}
	return -1
}

// Persisted is the durable form of the store, as saved by the history
// package. Devices and Readings are kept as raw JSON so that a damaged row is
// detected on restore rather than on save.
type Persisted struct {
	Devices     json.RawMessage
	Readings    json.RawMessage
	LampOn      bool
	FanOn       bool
	Temperature float64
}

// PersistedFromState encodes a state snapshot for storage.
func PersistedFromState(st State) (Persisted, error) {
	devices, err := json.Marshal(st.Devices)
	if err != nil {
		return Persisted{}, fmt.Errorf("encoding devices: %w", err)
	}
	readings, err := json.Marshal(st.SensorData)
	if err != nil {
		return Persisted{}, fmt.Errorf("encoding readings: %w", err)
	}
	return Persisted{
		Devices:     devices,
		Readings:    readings,
		LampOn:      st.LampOn,
		FanOn:       st.FanOn,
		Temperature: st.Temperature,
	}, nil
}

// Restore loads a persisted snapshot. The switches and temperature are always
// applied. A device list or history that does not decode as a JSON array
// marks that container corrupt; the next action touching it heals it.
// Entries that decode but fail validation are dropped and logged.
//
// Returns ErrCorruptDevices and/or ErrCorruptReadings (joined) when a
// container could not be decoded.
func (s *Store) Restore(p Persisted) error {
	var restoreErr error

	s.apply(ActionRestore, "", nil, func() Outcome {
		s.lampOn = p.LampOn
		s.fanOn = p.FanOn
		s.temperature = p.Temperature

		var errs []error

		devices, err := decodeList[device.SmartDevice](p.Devices)
		if err != nil {
			s.devicesCorrupt = true
			s.devices = nil
			errs = append(errs, fmt.Errorf("%w: %v", ErrCorruptDevices, err))
		} else {
			valid, rejected := device.SanitizeDevices(devices)
			for _, r := range rejected {
				s.logger.Warn("dropping persisted device", "error", r)
			}
			s.devices = valid
			s.devicesCorrupt = false
		}

		readings, err := decodeList[device.SensorReading](p.Readings)
		if err != nil {
			s.readingsCorrupt = true
			s.readings = nil
			errs = append(errs, fmt.Errorf("%w: %v", ErrCorruptReadings, err))
		} else {
			valid, rejected := device.SanitizeReadings(readings)
			for _, r := range rejected {
				s.logger.Warn("dropping persisted reading", "error", r)
			}
			if len(valid) > s.capacity {
				valid = valid[len(valid)-s.capacity:]
			}
			s.readings = append(make([]device.SensorReading, 0, s.capacity), valid...)
			s.readingsCorrupt = false
		}

		restoreErr = errors.Join(errs...)
		return OutcomeApplied
	})

	return restoreErr
}

// decodeList decodes a JSON array. Anything else, including null, is an error.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty document")
	}
	var list []T
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	if list == nil {
		return nil, errors.New("not a list")
	}
	return list, nil
}
