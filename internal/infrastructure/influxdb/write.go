package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-dashboard/internal/device"
)

// Measurement names.
const (
	MeasurementSensor       = "sensor_readings"
	MeasurementEnergy       = "energy"
	MeasurementDeviceStatus = "device_status"
)

// WriteSensorReading records one appended reading, tagged with where it
// came from ("gateway" or "synthetic"). The point is stamped with the
// reading's own timestamp.
func (c *Client) WriteSensorReading(r device.SensorReading, source string) {
	c.writePoint(MeasurementSensor,
		map[string]string{"source": source},
		map[string]any{
			"temperature": r.Temperature,
			"humidity":    r.Humidity,
		},
		r.Timestamp)
}

// WritePowerConsumption records the derived total power draw in watts.
func (c *Client) WritePowerConsumption(watts float64, at time.Time) {
	c.writePoint(MeasurementEnergy,
		map[string]string{"scope": "total"},
		map[string]any{"power_watts": watts},
		at)
}

// WriteDeviceStatus records a device's status and rated power.
//
// Fields:
//   - on: 1 when the device is on, 0 otherwise (integer so it graphs)
//   - power_watts: the device's rated wattage
func (c *Client) WriteDeviceStatus(d device.SmartDevice, at time.Time) {
	on := int64(0)
	if d.IsOn() {
		on = 1
	}
	c.writePoint(MeasurementDeviceStatus,
		map[string]string{
			"device_id": d.ID,
			"type":      string(d.Type),
		},
		map[string]any{
			"on":          on,
			"power_watts": d.Power,
		},
		at)
}

func (c *Client) writePoint(measurement string, tags map[string]string, fields map[string]any, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writer.WritePoint(write.NewPoint(measurement, tags, fields, at))
}
