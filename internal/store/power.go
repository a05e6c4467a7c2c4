package store

// TotalPowerConsumption returns the current draw in watts: the lamp rating if
// the lamp is on, the fan rating if the fan is on, plus the rated power of
// every device whose status is on. A corrupt device list counts as empty.
func (s *Store) TotalPowerConsumption() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalPowerLocked()
}

func (s *Store) totalPowerLocked() float64 {
	var total float64
	if s.lampOn {
		total += s.power.Lamp
	}
	if s.fanOn {
		total += s.power.Fan
	}
	if s.devicesCorrupt {
		return total
	}
	for _, d := range s.devices {
		if d.IsOn() {
			total += d.Power
		}
	}
	return total
}
