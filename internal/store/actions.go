package store

import (
	"context"
	"errors"

	"github.com/nerrad567/gray-logic-dashboard/internal/device"
)

var errNoSource = errors.New("no device source configured")

// InitDevices loads the device list from the source. A non-empty list of
// valid devices is adopted as is; an error or an empty result falls back to
// the default set. Never fails.
func (s *Store) InitDevices(ctx context.Context) Outcome {
	fetched, err := s.fetchDevices(ctx)

	var valid []device.SmartDevice
	if err == nil {
		var rejected []error
		valid, rejected = device.SanitizeDevices(fetched)
		for _, r := range rejected {
			s.logger.Warn("dropping invalid device from gateway", "error", r)
		}
	}

	switch {
	case err != nil:
		s.logger.Warn("fetching devices failed, using defaults", "error", err)
	case len(valid) == 0:
		s.logger.Warn("gateway returned no devices, using defaults")
	}

	return s.apply(ActionInitDevices, "", nil, func() Outcome {
		if err != nil || len(valid) == 0 {
			s.resetDevicesLocked()
			return OutcomeFallback
		}
		s.devices = valid
		s.devicesCorrupt = false
		return OutcomeApplied
	}).Outcome
}

func (s *Store) fetchDevices(ctx context.Context) ([]device.SmartDevice, error) {
	if s.source == nil {
		return nil, errNoSource
	}
	return s.source.FetchDevices(ctx)
}

// ResetDevices replaces the device list with the default set.
func (s *Store) ResetDevices() Outcome {
	return s.ResetDevicesResult().Outcome
}

// ResetDevicesResult is ResetDevices, also returning the resulting state.
func (s *Store) ResetDevicesResult() Result {
	return s.apply(ActionResetDevices, "", nil, func() Outcome {
		s.resetDevicesLocked()
		return OutcomeApplied
	})
}

// ToggleLamp flips the lamp switch and mirrors it onto lamp1.
func (s *Store) ToggleLamp() Outcome {
	return s.ToggleLampResult().Outcome
}

// ToggleLampResult is ToggleLamp, also returning the resulting state.
func (s *Store) ToggleLampResult() Result {
	return s.apply(ActionToggleLamp, device.LampID, nil, func() Outcome {
		s.lampOn = !s.lampOn
		return s.syncSwitchLocked(device.LampID, s.lampOn)
	})
}

// ToggleFan flips the fan switch and mirrors it onto fan1.
func (s *Store) ToggleFan() Outcome {
	return s.ToggleFanResult().Outcome
}

// ToggleFanResult is ToggleFan, also returning the resulting state.
func (s *Store) ToggleFanResult() Result {
	return s.apply(ActionToggleFan, device.FanID, nil, func() Outcome {
		s.fanOn = !s.fanOn
		return s.syncSwitchLocked(device.FanID, s.fanOn)
	})
}

// SetLamp sets the lamp switch to on and mirrors it onto lamp1. Setting the
// value it already has changes nothing and reports applied.
func (s *Store) SetLamp(on bool) Outcome {
	return s.apply(ActionSetLamp, device.LampID, nil, func() Outcome {
		return s.setSwitchLocked(&s.lampOn, device.LampID, on)
	}).Outcome
}

// SetFan sets the fan switch to on and mirrors it onto fan1.
func (s *Store) SetFan(on bool) Outcome {
	return s.apply(ActionSetFan, device.FanID, nil, func() Outcome {
		return s.setSwitchLocked(&s.fanOn, device.FanID, on)
	}).Outcome
}

func (s *Store) setSwitchLocked(sw *bool, id string, on bool) Outcome {
	if *sw == on && !s.devicesCorrupt {
		return OutcomeApplied
	}
	*sw = on
	return s.syncSwitchLocked(id, on)
}

// syncSwitchLocked writes a switch state onto its device. A corrupt list is
// reset instead; the defaults already carry the new switch value.
func (s *Store) syncSwitchLocked(id string, on bool) Outcome {
	if s.devicesCorrupt {
		s.resetDevicesLocked()
		return OutcomeRecovered
	}
	i := s.indexLocked(id)
	if i < 0 {
		return OutcomeDeviceMissing
	}
	s.devices[i].Status = device.StatusFromBool(on)
	return OutcomeApplied
}

// UpdateDeviceStatus sets the status of one device. Updating lamp1 or fan1
// also moves the matching switch. If the list is corrupt it is reset and the
// change is dropped.
func (s *Store) UpdateDeviceStatus(id string, on bool) Outcome {
	return s.UpdateDeviceStatusResult(id, on).Outcome
}

// UpdateDeviceStatusResult is UpdateDeviceStatus, also returning the
// resulting state.
func (s *Store) UpdateDeviceStatusResult(id string, on bool) Result {
	return s.apply(ActionUpdateDeviceStatus, id, nil, func() Outcome {
		if s.devicesCorrupt {
			s.resetDevicesLocked()
			return OutcomeRecovered
		}
		i := s.indexLocked(id)
		if i < 0 {
			return OutcomeDeviceMissing
		}
		s.devices[i].Status = device.StatusFromBool(on)

		switch id {
		case device.LampID:
			s.lampOn = on
		case device.FanID:
			s.fanOn = on
		}
		return OutcomeApplied
	})
}

// SetTemperature sets the thermostat target and writes it onto every
// thermostat device.
func (s *Store) SetTemperature(t float64) Outcome {
	return s.SetTemperatureResult(t).Outcome
}

// SetTemperatureResult is SetTemperature, also returning the resulting state.
func (s *Store) SetTemperatureResult(t float64) Result {
	return s.apply(ActionSetTemperature, device.ThermostatID, nil, func() Outcome {
		s.temperature = t
		if s.devicesCorrupt {
			s.resetDevicesLocked()
			return OutcomeRecovered
		}

		out := OutcomeDeviceMissing
		for i := range s.devices {
			if s.devices[i].Type == device.TypeThermostat {
				s.devices[i].Temperature = device.Float(t)
				out = OutcomeApplied
			}
		}
		return out
	})
}

// AddSensorData appends a reading to the history, dropping the oldest entries
// once the capacity is exceeded.
func (s *Store) AddSensorData(r device.SensorReading) Outcome {
	reading := r
	return s.apply(ActionAddSensorData, "", &reading, func() Outcome {
		out := OutcomeApplied
		if s.readingsCorrupt {
			s.readings = make([]device.SensorReading, 0, s.capacity)
			s.readingsCorrupt = false
			out = OutcomeRecovered
		}

		s.readings = append(s.readings, r)
		if n := len(s.readings); n > s.capacity {
			drop := n - s.capacity
			copy(s.readings, s.readings[drop:])
			s.readings = s.readings[:s.capacity]
		}
		return out
	}).Outcome
}
