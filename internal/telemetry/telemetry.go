// Package telemetry turns store events and poll results into time-series
// points.
package telemetry

import (
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-dashboard/internal/device"
	"github.com/nerrad567/gray-logic-dashboard/internal/poller"
	"github.com/nerrad567/gray-logic-dashboard/internal/store"
)

// Point sources.
const (
	SourceGateway   = "gateway"
	SourceSynthetic = "synthetic"
)

// Writer is implemented by *influxdb.Client.
type Writer interface {
	WriteSensorReading(r device.SensorReading, source string)
	WritePowerConsumption(watts float64, at time.Time)
	WriteDeviceStatus(d device.SmartDevice, at time.Time)
}

// Recorder forwards dashboard activity to a Writer.
//
// Power is written after every store event. Device status is written only
// when a device appears or its status changes, so steady state does not
// produce a point per device per action.
type Recorder struct {
	w   Writer
	now func() time.Time

	mu   sync.Mutex
	last map[string]device.Status
}

// NewRecorder creates a Recorder writing to w.
func NewRecorder(w Writer) *Recorder {
	return &Recorder{
		w:    w,
		now:  time.Now,
		last: make(map[string]device.Status),
	}
}

// HandleEvent is a store.Listener.
func (r *Recorder) HandleEvent(ev store.Event) {
	if ev.State.DevicesCorrupt {
		return
	}
	at := r.now()

	if ev.Action != store.ActionAddSensorData {
		r.writeChangedDevices(ev.State.Devices, at)
	}
	r.w.WritePowerConsumption(ev.State.TotalPower, at)
}

func (r *Recorder) writeChangedDevices(devices []device.SmartDevice, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(devices))
	for _, d := range devices {
		seen[d.ID] = struct{}{}
		if prev, ok := r.last[d.ID]; ok && prev == d.Status {
			continue
		}
		r.last[d.ID] = d.Status
		r.w.WriteDeviceStatus(d, at)
	}
	// Forget removed devices so a returning one is written again.
	for id := range r.last {
		if _, ok := seen[id]; !ok {
			delete(r.last, id)
		}
	}
}

// ObservePoll writes every appended reading. It implements poller.Observer.
func (r *Recorder) ObservePoll(rep poller.Report) {
	switch rep.Result {
	case poller.ResultOK:
		r.w.WriteSensorReading(rep.Reading, SourceGateway)
	case poller.ResultSynthetic:
		r.w.WriteSensorReading(rep.Reading, SourceSynthetic)
	}
}
