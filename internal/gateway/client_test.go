package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-dashboard/internal/device"
	"github.com/nerrad567/gray-logic-dashboard/internal/infrastructure/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.GatewayConfig{BaseURL: srv.URL + "/api/", Timeout: 2})
}

func TestNew_Defaults(t *testing.T) {
	c := New(config.GatewayConfig{})
	if c.BaseURL() != DefaultBaseURL {
		t.Errorf("BaseURL() = %q, want %q", c.BaseURL(), DefaultBaseURL)
	}
	if c.Timeout() != DefaultTimeout {
		t.Errorf("Timeout() = %v, want %v", c.Timeout(), DefaultTimeout)
	}
}

func TestNew_TrimsSlash(t *testing.T) {
	c := New(config.GatewayConfig{BaseURL: "http://gw/api/", Timeout: 3})
	if c.BaseURL() != "http://gw/api" {
		t.Errorf("BaseURL() = %q", c.BaseURL())
	}
	if c.Timeout() != 3*time.Second {
		t.Errorf("Timeout() = %v, want 3s", c.Timeout())
	}
}

func TestFetchDevices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/devices" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"id":"lamp1","type":"light","power":60,"status":"on"},
			{"id":"thermostat1","type":"thermostat","power":15,"status":"on","temperature":22.5}
		]`)
	})

	devices, err := c.FetchDevices(context.Background())
	if err != nil {
		t.Fatalf("FetchDevices() error = %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("got %d devices, want 2", len(devices))
	}
	if devices[0].ID != device.LampID || !devices[0].IsOn() {
		t.Errorf("devices[0] = %+v", devices[0])
	}
	if devices[1].Temperature == nil || *devices[1].Temperature != 22.5 {
		t.Errorf("thermostat temperature = %v, want 22.5", devices[1].Temperature)
	}
	if devices[0].Temperature != nil {
		t.Error("lamp should have no temperature")
	}
}

func TestFetchDevices_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, ErrUnexpectedStatus},
		{"not found", http.StatusNotFound, ``, ErrUnexpectedStatus},
		{"object instead of list", http.StatusOK, `{"devices":[]}`, ErrInvalidResponse},
		{"null", http.StatusOK, `null`, ErrInvalidResponse},
		{"garbage", http.StatusOK, `<html>`, ErrInvalidResponse},
		{"wrong field type", http.StatusOK, `[{"id":"x","power":"lots"}]`, ErrInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := c.FetchDevices(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("FetchDevices() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFetchDevices_EmptyList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})
	devices, err := c.FetchDevices(context.Background())
	if err != nil {
		t.Fatalf("FetchDevices() error = %v", err)
	}
	if devices == nil || len(devices) != 0 {
		t.Errorf("FetchDevices() = %v, want empty list", devices)
	}
}

func TestFetchDevices_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(config.GatewayConfig{BaseURL: url, Timeout: 1})
	_, err := c.FetchDevices(context.Background())
	if !errors.Is(err, ErrRequestFailed) {
		t.Errorf("FetchDevices() error = %v, want ErrRequestFailed", err)
	}
}

func TestFetchDevices_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.FetchDevices(ctx); !errors.Is(err, ErrRequestFailed) {
		t.Errorf("FetchDevices() error = %v, want ErrRequestFailed", err)
	}
}

func TestFetchSensorData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sensors" {
			t.Errorf("path = %s, want /api/sensors", r.URL.Path)
		}
		_, _ = io.WriteString(w, `[
			{"timestamp":"2026-05-01T10:00:00Z","temperature":21.5,"humidity":60},
			{"timestamp":"2026-05-01T10:00:30Z","temperature":21.7,"humidity":61}
		]`)
	})

	readings, err := c.FetchSensorData(context.Background())
	if err != nil {
		t.Fatalf("FetchSensorData() error = %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("got %d readings, want 2", len(readings))
	}
	want := time.Date(2026, 5, 1, 10, 0, 30, 0, time.UTC)
	if !readings[1].Timestamp.Equal(want) || readings[1].Humidity != 61 {
		t.Errorf("readings[1] = %+v", readings[1])
	}
}

func TestWriteBacks(t *testing.T) {
	type captured struct {
		method, path string
		body         map[string]any
	}

	tests := []struct {
		name string
		call func(c *Client) bool
		want captured
	}{
		{
			name: "device status",
			call: func(c *Client) bool {
				return c.UpdateDeviceStatus(context.Background(), "lamp 1", device.StatusOff)
			},
			want: captured{http.MethodPut, "/api/devices/lamp 1", map[string]any{"status": "off"}},
		},
		{
			name: "temperature",
			call: func(c *Client) bool { return c.UpdateTemperature(context.Background(), 22.5) },
			want: captured{http.MethodPut, "/api/thermostat", map[string]any{"temperature": 22.5}},
		},
		{
			name: "fan",
			call: func(c *Client) bool { return c.UpdateFanStatus(context.Background(), true, 2) },
			want: captured{http.MethodPut, "/api/fan", map[string]any{"isOn": true, "speed": float64(2)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got captured
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				got.method = r.Method
				got.path = r.URL.Path
				if ct := r.Header.Get("Content-Type"); ct != "application/json" {
					t.Errorf("Content-Type = %q", ct)
				}
				_ = json.NewDecoder(r.Body).Decode(&got.body)
				w.WriteHeader(http.StatusNoContent)
			})

			if !tt.call(c) {
				t.Fatal("write-back returned false")
			}
			if got.method != tt.want.method || got.path != tt.want.path {
				t.Errorf("request = %s %s, want %s %s", got.method, got.path, tt.want.method, tt.want.path)
			}
			for k, v := range tt.want.body {
				if got.body[k] != v {
					t.Errorf("body[%s] = %v, want %v", k, got.body[k], v)
				}
			}
		})
	}
}

func TestWriteBack_Failure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	})
	if c.UpdateTemperature(context.Background(), 20) {
		t.Error("UpdateTemperature() = true on 502")
	}
}

// recordingLogger captures warnings for assertions.
type recordingLogger struct {
	warns []string
}

func (r *recordingLogger) Debug(string, ...any)      {}
func (r *recordingLogger) Error(string, ...any)      {}
func (r *recordingLogger) Warn(msg string, _ ...any) { r.warns = append(r.warns, msg) }

func TestClient_LogsErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	log := &recordingLogger{}
	c := New(config.GatewayConfig{BaseURL: srv.URL}, WithLogger(log))
	_, _ = c.FetchSensorData(context.Background())

	if len(log.warns) != 1 || log.warns[0] != "gateway error response" {
		t.Errorf("warns = %v", log.warns)
	}
}
