package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-dashboard/internal/device"
	"github.com/nerrad567/gray-logic-dashboard/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-dashboard/internal/store"
)

// Client is the part of *mqtt.Client the relay uses.
type Client interface {
	PublishRetained(topic string, payload []byte) error
	PublishEvent(topic string, payload []byte) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Controller is the part of *store.Store commands are applied to.
type Controller interface {
	ToggleLamp() store.Outcome
	ToggleFan() store.Outcome
	SetLamp(on bool) store.Outcome
	SetFan(on bool) store.Outcome
	UpdateDeviceStatus(id string, on bool) store.Outcome
	SetTemperature(t float64) store.Outcome
	ResetDevices() store.Outcome
}

// Logger is the logging interface used by the relay.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// PowerPayload is published retained on the power total topic.
type PowerPayload struct {
	Watts     float64   `json:"watts"`
	Timestamp time.Time `json:"timestamp"`
}

// Relay publishes store events and applies MQTT commands.
type Relay struct {
	client Client
	topics mqtt.Topics
	ctrl   Controller
	logger Logger
	now    func() time.Time
	qos    byte
}

// New creates a relay publishing under topics. ctrl may be nil for a
// publish-only relay.
func New(client Client, topics mqtt.Topics, ctrl Controller, logger Logger) *Relay {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Relay{
		client: client,
		topics: topics,
		ctrl:   ctrl,
		logger: logger,
		now:    time.Now,
		qos:    1,
	}
}

// Start subscribes to the command subtree. It is a no-op without a controller.
func (r *Relay) Start() error {
	if r.ctrl == nil {
		return nil
	}
	if err := r.client.Subscribe(r.topics.AllCommands(), r.qos, r.HandleCommand); err != nil {
		return fmt.Errorf("subscribing to commands: %w", err)
	}
	r.logger.Info("relay listening for commands", "topic", r.topics.AllCommands())
	return nil
}

// PublishState publishes a full snapshot: dashboard state, every device
// and the power total. Used at startup and after reconnects.
func (r *Relay) PublishState(st store.State) error {
	return errors.Join(
		r.publishDashboard(st),
		r.publishDevices(st.Devices),
		r.publishPower(st.TotalPower),
	)
}

// HandleEvent is a store.Listener.
func (r *Relay) HandleEvent(ev store.Event) {
	var err error
	switch ev.Action {
	case store.ActionAddSensorData:
		err = r.publishDashboard(ev.State)
		if ev.Reading != nil {
			err = errors.Join(err, r.publishJSON(r.topics.SensorReading(), ev.Reading, false))
		}
	case store.ActionUpdateDeviceStatus:
		err = r.publishDashboard(ev.State)
		if d, ok := ev.State.Device(ev.DeviceID); ok && ev.Outcome == store.OutcomeApplied {
			err = errors.Join(err, r.publishDevices([]device.SmartDevice{d}))
		} else {
			err = errors.Join(err, r.publishDevices(ev.State.Devices))
		}
		err = errors.Join(err, r.publishPower(ev.State.TotalPower))
	default:
		err = r.PublishState(ev.State)
	}

	if err != nil {
		r.logger.Warn("relay publish failed", "action", ev.Action, "error", err)
	}
}

func (r *Relay) publishDashboard(st store.State) error {
	return r.publishJSON(r.topics.DashboardState(), st, true)
}

func (r *Relay) publishDevices(devices []device.SmartDevice) error {
	var errs []error
	for _, d := range devices {
		errs = append(errs, r.publishJSON(r.topics.DeviceState(d.ID), d, true))
	}
	return errors.Join(errs...)
}

func (r *Relay) publishPower(watts float64) error {
	return r.publishJSON(r.topics.PowerTotal(), PowerPayload{Watts: watts, Timestamp: r.now().UTC()}, true)
}

func (r *Relay) publishJSON(topic string, v any, retained bool) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", topic, err)
	}
	if retained {
		return r.client.PublishRetained(topic, payload)
	}
	return r.client.PublishEvent(topic, payload)
}

// switchCommand is the payload of lamp and fan commands.
type switchCommand struct {
	Action string `json:"action"`
	On     *bool  `json:"on"`
}

type thermostatCommand struct {
	Temperature *float64 `json:"temperature"`
}

type deviceCommand struct {
	Status device.Status `json:"status"`
}

// HandleCommand applies one inbound command. It has the mqtt.MessageHandler
// signature; returned errors are logged by the MQTT client.
func (r *Relay) HandleCommand(topic string, payload []byte) error {
	kind, deviceID, ok := r.topics.ParseCommand(topic)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, topic)
	}

	var outcome store.Outcome
	var err error
	switch kind {
	case mqtt.CommandLamp:
		outcome, err = r.applySwitch(payload, r.ctrl.SetLamp, r.ctrl.ToggleLamp)
	case mqtt.CommandFan:
		outcome, err = r.applySwitch(payload, r.ctrl.SetFan, r.ctrl.ToggleFan)
	case mqtt.CommandThermostat:
		var cmd thermostatCommand
		if err = decode(payload, &cmd); err == nil {
			if cmd.Temperature == nil || math.IsNaN(*cmd.Temperature) || math.IsInf(*cmd.Temperature, 0) {
				err = fmt.Errorf("%w: temperature must be a finite number", ErrInvalidCommand)
			} else {
				outcome = r.ctrl.SetTemperature(*cmd.Temperature)
			}
		}
	case mqtt.CommandDevice:
		var cmd deviceCommand
		if err = decode(payload, &cmd); err == nil {
			if cmd.Status != device.StatusOn && cmd.Status != device.StatusOff {
				err = fmt.Errorf("%w: status must be %q or %q", ErrInvalidCommand, device.StatusOn, device.StatusOff)
			} else {
				outcome = r.ctrl.UpdateDeviceStatus(deviceID, cmd.Status.IsOn())
			}
		}
	case mqtt.CommandReset:
		outcome = r.ctrl.ResetDevices()
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, kind)
	}
	if err != nil {
		return err
	}

	r.logger.Debug("mqtt command applied", "command", kind, "device_id", deviceID, "outcome", outcome)
	return nil
}

// applySwitch handles {"action":"toggle"}, {"on":bool} and an empty
// payload (treated as toggle). "on" is applied as a single store action, so
// a concurrent toggle cannot invert it.
func (r *Relay) applySwitch(payload []byte, set func(on bool) store.Outcome, toggle func() store.Outcome) (store.Outcome, error) {
	if len(strings.TrimSpace(string(payload))) == 0 {
		return toggle(), nil
	}

	var cmd switchCommand
	if err := decode(payload, &cmd); err != nil {
		return "", err
	}
	switch {
	case cmd.On != nil:
		return set(*cmd.On), nil
	case cmd.Action == "toggle":
		return toggle(), nil
	default:
		return "", fmt.Errorf("%w: expected {\"action\":\"toggle\"} or {\"on\":bool}", ErrInvalidCommand)
	}
}

func decode(payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	return nil
}
