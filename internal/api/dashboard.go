package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-dashboard/internal/audit"
	"github.com/nerrad567/gray-logic-dashboard/internal/device"
	"github.com/nerrad567/gray-logic-dashboard/internal/history"
	"github.com/nerrad567/gray-logic-dashboard/internal/store"
)

// componentCheckTimeout bounds each dependency check in /health.
const componentCheckTimeout = 2 * time.Second

// ActionResponse is returned by every endpoint that runs a store action.
type ActionResponse struct {
	Action  string        `json:"action"`
	Outcome store.Outcome `json:"outcome"`
	State   store.State   `json:"state"`

	// WriteBack is the gateway write-back result; absent when no gateway
	// is configured or the action does not write back.
	WriteBack *bool `json:"write_back,omitempty"`
}

// handleHealth reports the server version and each registered component.
// Any unhealthy component turns the status to "degraded" with a 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	components := make(map[string]string, len(s.components))

	for name, c := range s.components {
		ctx, cancel := context.WithTimeout(r.Context(), componentCheckTimeout)
		err := c.HealthCheck(ctx)
		cancel()
		if err != nil {
			components[name] = err.Error()
			status = "degraded"
			continue
		}
		components[name] = "ok"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":     status,
		"version":    s.version,
		"components": components,
	})
}

func (s *Server) handleGetState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.State())
}

func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.store.Devices()
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, ok := s.store.Device(id)
	if !ok {
		writeNotFound(w, "device not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// UpdateDeviceRequest is the body of PUT /devices/{id}.
type UpdateDeviceRequest struct {
	Status device.Status `json:"status"`
}

// handleUpdateDevice sets one device's status. An unknown ID still runs the
// store action (which may heal corrupt state) and then answers 404.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateDeviceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Status != device.StatusOn && req.Status != device.StatusOff {
		writeValidationError(w, `status must be "on" or "off"`)
		return
	}

	res := s.store.UpdateDeviceStatusResult(id, req.Status.IsOn())
	if res.Outcome == store.OutcomeDeviceMissing {
		writeNotFound(w, "device not found: "+id)
		return
	}

	resp := ActionResponse{Action: store.ActionUpdateDeviceStatus, Outcome: res.Outcome, State: res.State}
	if s.gateway != nil && res.Outcome == store.OutcomeApplied {
		resp.WriteBack = boolPtr(s.gateway.UpdateDeviceStatus(r.Context(), id, req.Status))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResetDevices(w http.ResponseWriter, _ *http.Request) {
	res := s.store.ResetDevicesResult()
	writeJSON(w, http.StatusOK, ActionResponse{
		Action:  store.ActionResetDevices,
		Outcome: res.Outcome,
		State:   res.State,
	})
}

func (s *Server) handleToggleLamp(w http.ResponseWriter, r *http.Request) {
	res := s.store.ToggleLampResult()
	st := res.State

	resp := ActionResponse{Action: store.ActionToggleLamp, Outcome: res.Outcome, State: st}
	if s.gateway != nil {
		resp.WriteBack = boolPtr(s.gateway.UpdateDeviceStatus(r.Context(), device.LampID, device.StatusFromBool(st.LampOn)))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ToggleFanRequest is the optional body of POST /fan/toggle.
type ToggleFanRequest struct {
	Speed *int `json:"speed"`
}

// handleToggleFan flips the fan and writes {isOn, speed} back. Speed comes
// from the body or the configured default, and is 0 when the fan is off.
func (s *Server) handleToggleFan(w http.ResponseWriter, r *http.Request) {
	var req ToggleFanRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}
	speed := s.fanSpeed
	if req.Speed != nil {
		if *req.Speed < 0 {
			writeValidationError(w, "speed must not be negative")
			return
		}
		speed = *req.Speed
	}

	res := s.store.ToggleFanResult()
	st := res.State

	resp := ActionResponse{Action: store.ActionToggleFan, Outcome: res.Outcome, State: st}
	if s.gateway != nil {
		if !st.FanOn {
			speed = 0
		}
		resp.WriteBack = boolPtr(s.gateway.UpdateFanStatus(r.Context(), st.FanOn, speed))
	}
	writeJSON(w, http.StatusOK, resp)
}

// SetThermostatRequest is the body of PUT /thermostat.
type SetThermostatRequest struct {
	Temperature *float64 `json:"temperature"`
}

func (s *Server) handleSetThermostat(w http.ResponseWriter, r *http.Request) {
	var req SetThermostatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Temperature == nil || math.IsNaN(*req.Temperature) || math.IsInf(*req.Temperature, 0) {
		writeValidationError(w, "temperature must be a finite number")
		return
	}

	res := s.store.SetTemperatureResult(*req.Temperature)
	resp := ActionResponse{Action: store.ActionSetTemperature, Outcome: res.Outcome, State: res.State}
	if s.gateway != nil && res.Outcome == store.OutcomeApplied {
		resp.WriteBack = boolPtr(s.gateway.UpdateTemperature(r.Context(), *req.Temperature))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListSensors(w http.ResponseWriter, _ *http.Request) {
	readings := s.store.Readings()
	writeJSON(w, http.StatusOK, map[string]any{"readings": readings, "count": len(readings)})
}

// handleSensorHistory serves the persisted reading log, newest first.
//
// Query parameters:
//   - limit: 1..500, default 50
func (s *Server) handleSensorHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeUnavailable(w, "sensor history is not enabled")
		return
	}

	limit := history.DefaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > history.MaxRecentLimit {
			writeBadRequest(w, "limit must be between 1 and "+strconv.Itoa(history.MaxRecentLimit))
			return
		}
		limit = n
	}

	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("loading sensor history failed", "error", err, "request_id", requestID(r.Context()))
		writeInternalError(w, "failed to load sensor history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"readings": entries, "count": len(entries)})
}

// handleListActions serves the action log, newest first.
//
// Query parameters:
//   - action, outcome, device: exact-match filters
//   - limit: 1..200, default 50
//   - offset: >= 0
func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	if s.actions == nil {
		writeUnavailable(w, "action log is not enabled")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action:   q.Get("action"),
		Outcome:  q.Get("outcome"),
		DeviceID: q.Get("device"),
		Limit:    audit.DefaultLimit,
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > audit.MaxLimit {
			writeBadRequest(w, "limit must be between 1 and "+strconv.Itoa(audit.MaxLimit))
			return
		}
		filter.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeBadRequest(w, "offset must be a non-negative integer")
			return
		}
		filter.Offset = n
	}

	page, err := s.actions.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("loading action log failed", "error", err, "request_id", requestID(r.Context()))
		writeInternalError(w, "failed to load action log")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handlePower(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]float64{"watts": s.store.TotalPowerConsumption()})
}

// decodeBody decodes a required JSON body, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return false
	}
	return true
}

// decodeOptionalBody is decodeBody that accepts an empty body.
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "invalid JSON body")
		return false
	}
	return true
}

func boolPtr(b bool) *bool {
	return &b
}
