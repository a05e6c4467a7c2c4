package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-dashboard/internal/device"
)

// DefaultHistoryCapacity is the sensor history size used when Options leaves
// it unset.
const DefaultHistoryCapacity = 100

// DeviceSource fetches the remote device list. Implemented by gateway.Client.
type DeviceSource interface {
	FetchDevices(ctx context.Context) ([]device.SmartDevice, error)
}

// Logger defines the logging interface used by the Store.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a new Store.
type Options struct {
	// Source provides the remote device list for InitDevices. May be nil,
	// in which case InitDevices always falls back to the default set.
	Source DeviceSource

	// Power is the rated wattage table.
	Power device.PowerTable

	// LampOn and FanOn are the initial switch states.
	LampOn bool
	FanOn  bool

	// Temperature is the initial thermostat target.
	Temperature float64

	// HistoryCapacity bounds the sensor history. Defaults to 100.
	HistoryCapacity int
}

// Store is the dashboard's device state container.
// All public methods are thread-safe.
type Store struct {
	mu sync.RWMutex

	devices        []device.SmartDevice
	devicesCorrupt bool

	readings        []device.SensorReading
	readingsCorrupt bool
	capacity        int

	lampOn      bool
	fanOn       bool
	temperature float64
	power       device.PowerTable

	source DeviceSource
	logger Logger

	listeners   []Listener
	listenersMu sync.RWMutex

	// seq numbers actions under mu; delivered is the last seq whose event
	// reached every listener. Events go out strictly in seq order.
	seq       uint64
	delivered uint64
	emitMu    sync.Mutex
	emitCond  *sync.Cond

	onActionError func(action string, err error)
	hookMu        sync.RWMutex
}

// New creates a store with an empty device list. Call InitDevices (or
// Restore followed by InitDevices) to populate it.
func New(opts Options) *Store {
	capacity := opts.HistoryCapacity
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}

	s := &Store{
		devices:     []device.SmartDevice{},
		readings:    make([]device.SensorReading, 0, capacity),
		capacity:    capacity,
		lampOn:      opts.LampOn,
		fanOn:       opts.FanOn,
		temperature: opts.Temperature,
		power:       opts.Power,
		source:      opts.Source,
		logger:      noopLogger{},
	}
	s.emitCond = sync.NewCond(&s.emitMu)
	return s
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	s.logger = logger
}

// Subscribe registers a listener for store events.
func (s *Store) Subscribe(l Listener) {
	if l == nil {
		return
	}
	s.listenersMu.Lock()
	s.listeners = append(s.listeners, l)
	s.listenersMu.Unlock()
}

// SetOnActionError sets a callback invoked after an action panicked and the
// device list was force-reset.
func (s *Store) SetOnActionError(callback func(action string, err error)) {
	s.hookMu.Lock()
	s.onActionError = callback
	s.hookMu.Unlock()
}

// apply runs fn under the write lock, recovers panics, and emits an event
// once the lock has been released. The returned State is the one fn
// produced, regardless of actions that ran since.
func (s *Store) apply(action, deviceID string, reading *device.SensorReading, fn func() Outcome) Result {
	var (
		out       Outcome
		actionErr error
	)

	s.mu.Lock()
	func() {
		defer func() {
			if r := recover(); r != nil {
				actionErr = fmt.Errorf("%w: %s: %v", ErrActionPanicked, action, r)
				s.logger.Error("store action failed", "action", action, "error", actionErr)
				s.resetDevicesLocked()
				out = OutcomeRecovered
			}
		}()
		out = fn()
	}()
	s.seq++
	seq := s.seq
	state := s.stateLocked()
	s.mu.Unlock()

	if actionErr != nil {
		s.hookMu.RLock()
		hook := s.onActionError
		s.hookMu.RUnlock()
		if hook != nil {
			hook(action, actionErr)
		}
	}

	if out == OutcomeRecovered {
		s.logger.Warn("store recovered from corrupt state", "action", action)
	} else {
		s.logger.Debug("store action", "action", action, "outcome", out)
	}

	s.emit(Event{
		Seq:      seq,
		Action:   action,
		Outcome:  out,
		State:    state,
		DeviceID: deviceID,
		Reading:  reading,
	})
	return Result{Outcome: out, State: state}
}

// emit delivers an event to every listener in registration order, after
// the events of all earlier actions have been delivered.
func (s *Store) emit(ev Event) {
	s.emitMu.Lock()
	for s.delivered != ev.Seq-1 {
		s.emitCond.Wait()
	}
	s.emitMu.Unlock()

	// Advance even if a listener panics, or every later action would block.
	defer func() {
		s.emitMu.Lock()
		s.delivered = ev.Seq
		s.emitCond.Broadcast()
		s.emitMu.Unlock()
	}()

	s.listenersMu.RLock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.listenersMu.RUnlock()

	for _, l := range listeners {
		l(ev)
	}
}
