package device

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func validDevice() SmartDevice {
	return SmartDevice{ID: "heater1", Type: TypeLight, Power: 200, Status: StatusOn}
}

func TestValidateDevice(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *SmartDevice)
		wantErr error
	}{
		{
			name:    "valid device",
			mutate:  func(*SmartDevice) {},
			wantErr: nil,
		},
		{
			name:    "valid device with readings",
			mutate:  func(d *SmartDevice) { d.Temperature = Float(21.5); d.Humidity = Float(40) },
			wantErr: nil,
		},
		{
			name:    "zero power is allowed",
			mutate:  func(d *SmartDevice) { d.Power = 0 },
			wantErr: nil,
		},
		{
			name:    "empty id",
			mutate:  func(d *SmartDevice) { d.ID = "" },
			wantErr: ErrInvalidID,
		},
		{
			name:    "id too long",
			mutate:  func(d *SmartDevice) { d.ID = strings.Repeat("x", maxIDLength+1) },
			wantErr: ErrInvalidID,
		},
		{
			name:    "unknown type",
			mutate:  func(d *SmartDevice) { d.Type = "toaster" },
			wantErr: ErrInvalidType,
		},
		{
			name:    "bad status",
			mutate:  func(d *SmartDevice) { d.Status = "maybe" },
			wantErr: ErrInvalidStatus,
		},
		{
			name:    "negative power",
			mutate:  func(d *SmartDevice) { d.Power = -1 },
			wantErr: ErrInvalidPower,
		},
		{
			name:    "NaN power",
			mutate:  func(d *SmartDevice) { d.Power = math.NaN() },
			wantErr: ErrInvalidPower,
		},
		{
			name:    "infinite temperature",
			mutate:  func(d *SmartDevice) { d.Temperature = Float(math.Inf(1)) },
			wantErr: ErrInvalidDevice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDevice()
			tt.mutate(&d)
			err := ValidateDevice(d)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDevice() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDevice() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateReading(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		reading SensorReading
		wantErr bool
	}{
		{"valid", SensorReading{Timestamp: now, Temperature: 22.5, Humidity: 55}, false},
		{"missing timestamp", SensorReading{Temperature: 22.5, Humidity: 55}, true},
		{"humidity above 100", SensorReading{Timestamp: now, Temperature: 22.5, Humidity: 101}, true},
		{"negative humidity", SensorReading{Timestamp: now, Temperature: 22.5, Humidity: -1}, true},
		{"absurd temperature", SensorReading{Timestamp: now, Temperature: 500, Humidity: 50}, true},
		{"NaN temperature", SensorReading{Timestamp: now, Temperature: math.NaN(), Humidity: 50}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReading(tt.reading)
			if tt.wantErr && !errors.Is(err, ErrInvalidReading) {
				t.Errorf("ValidateReading() = %v, want ErrInvalidReading", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateReading() = %v, want nil", err)
			}
		})
	}
}

func TestValidatePowerTable(t *testing.T) {
	if err := ValidatePowerTable(DefaultPowerTable()); err != nil {
		t.Errorf("ValidatePowerTable(default) = %v, want nil", err)
	}

	bad := DefaultPowerTable()
	bad.Fan = -5
	err := ValidatePowerTable(bad)
	if !errors.Is(err, ErrInvalidPower) {
		t.Fatalf("ValidatePowerTable() = %v, want ErrInvalidPower", err)
	}
	if !strings.HasPrefix(err.Error(), "fan:") {
		t.Errorf("error = %q, want it to name the fan entry", err)
	}
}

func TestSanitizeDevices(t *testing.T) {
	input := []SmartDevice{
		{ID: "lamp1", Type: TypeLight, Power: 60, Status: StatusOn},
		{ID: "bad", Type: "toaster", Power: 1, Status: StatusOn},
		{ID: "fan1", Type: TypeFan, Power: 50, Status: StatusOff},
		{ID: "lamp1", Type: TypeLight, Power: 10, Status: StatusOff},
	}

	valid, rejected := SanitizeDevices(input)

	if len(valid) != 2 {
		t.Fatalf("len(valid) = %d, want 2", len(valid))
	}
	if valid[0].ID != "lamp1" || valid[1].ID != "fan1" {
		t.Errorf("valid order = [%s %s], want [lamp1 fan1]", valid[0].ID, valid[1].ID)
	}
	if valid[0].Power != 60 {
		t.Errorf("first lamp1 should win, got power %v", valid[0].Power)
	}
	if len(rejected) != 2 {
		t.Fatalf("len(rejected) = %d, want 2", len(rejected))
	}
	if !errors.Is(rejected[0], ErrInvalidType) {
		t.Errorf("rejected[0] = %v, want ErrInvalidType", rejected[0])
	}
	if !errors.Is(rejected[1], ErrDuplicateID) {
		t.Errorf("rejected[1] = %v, want ErrDuplicateID", rejected[1])
	}
}

func TestSanitizeReadings(t *testing.T) {
	now := time.Now()
	valid, rejected := SanitizeReadings([]SensorReading{
		{Timestamp: now, Temperature: 20, Humidity: 50},
		{Temperature: 20, Humidity: 50},
		{Timestamp: now.Add(time.Second), Temperature: 21, Humidity: 51},
	})

	if len(valid) != 2 || len(rejected) != 1 {
		t.Fatalf("got %d valid / %d rejected, want 2 / 1", len(valid), len(rejected))
	}
	if valid[1].Temperature != 21 {
		t.Errorf("order not preserved: %+v", valid)
	}
}
