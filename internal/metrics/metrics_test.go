package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	dto "github.com/prometheus/client_model/go"

	"github.com/nerrad567/gray-logic-dashboard/internal/device"
	"github.com/nerrad567/gray-logic-dashboard/internal/poller"
	"github.com/nerrad567/gray-logic-dashboard/internal/store"
)

// value returns the gauge or counter value of the series whose labels
// include every given pair.
func value(t *testing.T, m *Metrics, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather() = %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, metric := range f.GetMetric() {
			if !hasLabels(metric, labels) {
				continue
			}
			switch {
			case metric.GetGauge() != nil:
				return metric.GetGauge().GetValue()
			case metric.GetCounter() != nil:
				return metric.GetCounter().GetValue()
			case metric.GetHistogram() != nil:
				return float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}
	t.Fatalf("series %s%v not found", name, labels)
	return 0
}

func hasLabels(metric *dto.Metric, want map[string]string) bool {
	found := 0
	for _, lp := range metric.GetLabel() {
		if v, ok := want[lp.GetName()]; ok && v == lp.GetValue() {
			found++
		}
	}
	return found == len(want)
}

func TestHandleEvent(t *testing.T) {
	m := New()
	s := store.New(store.Options{Power: device.DefaultPowerTable(), Temperature: 21})
	s.Subscribe(m.HandleEvent)

	s.ResetDevices()
	s.ToggleLamp()
	s.AddSensorData(device.SensorReading{Timestamp: time.Now(), Temperature: 20, Humidity: 50})

	if got := value(t, m, "graydash_power_watts", nil); got != s.TotalPowerConsumption() {
		t.Errorf("power = %v, want %v", got, s.TotalPowerConsumption())
	}
	if got := value(t, m, "graydash_devices", nil); got != 4 {
		t.Errorf("devices = %v", got)
	}
	if got := value(t, m, "graydash_sensor_history_length", nil); got != 1 {
		t.Errorf("history length = %v", got)
	}
	if got := value(t, m, "graydash_target_temperature_celsius", nil); got != 21 {
		t.Errorf("target temperature = %v", got)
	}
	if got := value(t, m, "graydash_switch_on", map[string]string{"switch": "lamp"}); got != 1 {
		t.Errorf("lamp switch = %v", got)
	}
	if got := value(t, m, "graydash_store_actions_total", map[string]string{
		"action": store.ActionToggleLamp, "outcome": string(store.OutcomeApplied),
	}); got != 1 {
		t.Errorf("toggle_lamp applied = %v", got)
	}
}

func TestObservePoll(t *testing.T) {
	m := New()

	m.ObservePoll(poller.Report{Result: poller.ResultOK, Duration: 20 * time.Millisecond})
	m.ObservePoll(poller.Report{Result: poller.ResultOK, Duration: 30 * time.Millisecond})
	m.ObservePoll(poller.Report{Result: poller.ResultSkipped})

	if got := value(t, m, "graydash_polls_total", map[string]string{"result": "ok"}); got != 2 {
		t.Errorf("ok polls = %v", got)
	}
	if got := value(t, m, "graydash_polls_total", map[string]string{"result": "skipped"}); got != 1 {
		t.Errorf("skipped polls = %v", got)
	}
	if got := value(t, m, "graydash_poll_duration_seconds", nil); got != 2 {
		t.Errorf("duration samples = %v, want 2 (skips excluded)", got)
	}
}

func TestMiddleware(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/v1/devices/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/devices/ghost", nil))

	if got := value(t, m, "graydash_http_requests_total", map[string]string{"method": "GET", "status": "404"}); got != 1 {
		t.Errorf("requests = %v", got)
	}
	if got := value(t, m, "graydash_http_request_duration_seconds", map[string]string{"route": "/api/v1/devices/{id}"}); got != 1 {
		t.Errorf("duration samples = %v", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.SetState(store.State{TotalPower: 260})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if !strings.Contains(rec.Body.String(), "graydash_power_watts 260") {
		t.Errorf("exposition missing power gauge:\n%s", rec.Body.String())
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.HandleEvent(store.Event{})
	m.ObservePoll(poller.Report{})
	m.SetState(store.State{})

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	rec := httptest.NewRecorder()
	m.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
}
