// Package poller drives the periodic sensor fetch that feeds the store.
package poller

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-dashboard/internal/device"
	"github.com/nerrad567/gray-logic-dashboard/internal/store"
)

// Defaults applied when Options leaves them unset.
const (
	DefaultInterval = 30 * time.Second
	DefaultTimeout  = 10 * time.Second
)

// Synthetic reading ranges: temperature in [20, 30), humidity in [50, 80).
const (
	syntheticTempBase     = 20.0
	syntheticTempSpan     = 10.0
	syntheticHumidityBase = 50.0
	syntheticHumiditySpan = 30.0
)

// Result classifies a single poll.
type Result string

// Result constants.
const (
	// ResultOK means the newest gateway reading was appended.
	ResultOK Result = "ok"
	// ResultSynthetic means a generated reading was appended.
	ResultSynthetic Result = "synthetic"
	// ResultFailed means nothing was appended: the fetch failed with the
	// fallback disabled, or the poll was cancelled.
	ResultFailed Result = "failed"
	// ResultSkipped means the tick fired while a poll was still running.
	ResultSkipped Result = "skipped"
)

// Report describes the outcome of one poll.
type Report struct {
	Result   Result
	Reading  device.SensorReading
	Err      error
	Rejected int
	Duration time.Duration
}

// Appended reports whether a reading reached the store.
func (r Report) Appended() bool {
	return r.Result == ResultOK || r.Result == ResultSynthetic
}

// SensorSource fetches sensor readings. Implemented by gateway.Client.
type SensorSource interface {
	FetchSensorData(ctx context.Context) ([]device.SensorReading, error)
}

// Sink receives the chosen reading. Implemented by store.Store.
type Sink interface {
	AddSensorData(r device.SensorReading) store.Outcome
}

// Observer is notified after every poll, including skipped ones.
type Observer interface {
	ObservePoll(r Report)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Report)

// ObservePoll calls f(r).
func (f ObserverFunc) ObservePoll(r Report) { f(r) }

// Logger defines the logging interface used by the Poller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Options configures a Poller.
type Options struct {
	Interval time.Duration
	// Timeout bounds each fetch.
	Timeout time.Duration
	// SyntheticFallback appends a generated reading when the gateway fails
	// or has nothing usable.
	SyntheticFallback bool
	Observers         []Observer
	Logger            Logger

	// Now and Rand are injectable for tests. Rand must return values in [0, 1).
	Now  func() time.Time
	Rand func() float64
}

// Poller fetches sensor data on a fixed interval.
//
// One poll runs immediately when Run starts, then one per tick. A tick that
// fires while the previous poll is still in flight is skipped rather than
// overlapping it.
type Poller struct {
	source SensorSource
	sink   Sink

	interval  time.Duration
	timeout   time.Duration
	synthetic bool
	observers []Observer
	logger    Logger
	now       func() time.Time
	rand      func() float64

	running atomic.Bool
	wg      sync.WaitGroup
}

// New creates a Poller.
func New(source SensorSource, sink Sink, opts Options) *Poller {
	p := &Poller{
		source:    source,
		sink:      sink,
		interval:  opts.Interval,
		timeout:   opts.Timeout,
		synthetic: opts.SyntheticFallback,
		observers: opts.Observers,
		logger:    opts.Logger,
		now:       opts.Now,
		rand:      opts.Rand,
	}
	if p.interval <= 0 {
		p.interval = DefaultInterval
	}
	if p.timeout <= 0 {
		p.timeout = DefaultTimeout
	}
	if p.logger == nil {
		p.logger = noopLogger{}
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.rand == nil {
		p.rand = rand.Float64
	}
	return p
}

// Run polls until ctx is cancelled, then waits for any in-flight poll and
// returns nil. The ticker is stopped on return.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("sensor polling started", "interval", p.interval)

	// Poll immediately on start
	p.trigger(ctx)

	for {
		select {
		case <-ctx.Done():
			p.wg.Wait()
			p.logger.Info("sensor polling stopped")
			return nil
		case <-ticker.C:
			p.trigger(ctx)
		}
	}
}

// trigger starts a poll in the background unless one is running.
func (p *Poller) trigger(ctx context.Context) {
	if !p.running.CompareAndSwap(false, true) {
		p.skip()
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.running.Store(false)
		p.poll(ctx)
	}()
}

// PollOnce runs a single poll synchronously. It honours the overlap guard:
// if another poll is in flight it returns a skipped report immediately.
func (p *Poller) PollOnce(ctx context.Context) Report {
	if !p.running.CompareAndSwap(false, true) {
		return p.skip()
	}
	defer p.running.Store(false)
	return p.poll(ctx)
}

func (p *Poller) skip() Report {
	p.logger.Warn("poll skipped, previous poll still running")
	rep := Report{Result: ResultSkipped}
	p.notify(rep)
	return rep
}

func (p *Poller) poll(ctx context.Context) Report {
	start := p.now()
	rep := p.fetch(ctx)

	switch {
	case rep.Result == ResultOK:
		p.sink.AddSensorData(rep.Reading)
		p.logger.Debug("sensor reading appended",
			"temperature", rep.Reading.Temperature,
			"humidity", rep.Reading.Humidity,
		)
	case ctx.Err() != nil:
		// Shutting down: nothing is appended, synthetic or otherwise.
		rep.Result = ResultFailed
		p.logger.Debug("sensor poll cancelled", "error", rep.Err)
	case p.synthetic:
		rep.Result = ResultSynthetic
		rep.Reading = p.syntheticReading()
		p.sink.AddSensorData(rep.Reading)
		p.logger.Warn("using synthetic sensor reading", "error", rep.Err)
	default:
		rep.Result = ResultFailed
		p.logger.Warn("sensor poll failed", "error", rep.Err)
	}

	rep.Duration = p.now().Sub(start)
	p.notify(rep)
	return rep
}

// fetch calls the source and picks the newest valid reading.
func (p *Poller) fetch(ctx context.Context) Report {
	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	readings, err := p.source.FetchSensorData(fetchCtx)
	if err != nil {
		return Report{Err: err}
	}

	valid, rejected := device.SanitizeReadings(readings)
	for _, r := range rejected {
		p.logger.Warn("dropping invalid sensor reading", "error", r)
	}
	if len(valid) == 0 {
		return Report{Err: errNoReadings, Rejected: len(rejected)}
	}
	return Report{
		Result:   ResultOK,
		Reading:  valid[len(valid)-1],
		Rejected: len(rejected),
	}
}

// syntheticReading generates a plausible reading stamped with the current time.
func (p *Poller) syntheticReading() device.SensorReading {
	return device.SensorReading{
		Timestamp:   p.now().UTC(),
		Temperature: syntheticTempBase + p.rand()*syntheticTempSpan,
		Humidity:    syntheticHumidityBase + p.rand()*syntheticHumiditySpan,
	}
}

func (p *Poller) notify(rep Report) {
	for _, o := range p.observers {
		o.ObservePoll(rep)
	}
}
