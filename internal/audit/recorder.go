package audit

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-dashboard/internal/store"
)

// writeTimeout bounds each insert made from an event callback.
const writeTimeout = 5 * time.Second

// Logger is the logging interface used by the Recorder.
type Logger interface {
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Error(string, ...any) {}

// Recorder writes store events to a Repository.
type Recorder struct {
	repo   Repository
	logger Logger
	now    func() time.Time
}

// NewRecorder creates a Recorder. A nil logger discards output.
func NewRecorder(repo Repository, logger Logger) *Recorder {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Recorder{repo: repo, logger: logger, now: time.Now}
}

// HandleEvent logs one entry per store action. It is meant to be registered
// with store.Subscribe. Sensor readings arrive every poll and are skipped.
func (r *Recorder) HandleEvent(ev store.Event) {
	if ev.Action == store.ActionAddSensorData {
		return
	}

	e := &Entry{
		Action:    ev.Action,
		Outcome:   string(ev.Outcome),
		DeviceID:  ev.DeviceID,
		Details:   details(ev.State),
		CreatedAt: r.now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := r.repo.Create(ctx, e); err != nil {
		r.logger.Error("logging store action failed", "action", ev.Action, "error", err)
	}
}

// details summarises the state an action left behind.
func details(st store.State) map[string]any {
	d := map[string]any{
		"lamp_on":     st.LampOn,
		"fan_on":      st.FanOn,
		"temperature": st.Temperature,
		"total_power": st.TotalPower,
		"devices":     len(st.Devices),
	}
	if st.DevicesCorrupt {
		d["devices_corrupt"] = true
	}
	return d
}
