package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-dashboard/internal/device"
	"github.com/nerrad567/gray-logic-dashboard/internal/store"
)

// fakeSource is a test implementation of SensorSource.
type fakeSource struct {
	mu       sync.Mutex
	readings []device.SensorReading
	err      error
	calls    int
	block    chan struct{}
	started  chan struct{}
}

func (f *fakeSource) FetchSensorData(ctx context.Context) ([]device.SensorReading, error) {
	f.mu.Lock()
	f.calls++
	block, started := f.block, f.started
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.readings, nil
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeSink records appended readings.
type fakeSink struct {
	mu       sync.Mutex
	readings []device.SensorReading
}

func (f *fakeSink) AddSensorData(r device.SensorReading) store.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readings = append(f.readings, r)
	return store.OutcomeApplied
}

func (f *fakeSink) Readings() []device.SensorReading {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]device.SensorReading(nil), f.readings...)
}

var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func testOptions(synthetic bool) Options {
	return Options{
		Interval:          time.Hour,
		Timeout:           time.Second,
		SyntheticFallback: synthetic,
		Now:               func() time.Time { return fixedNow },
		Rand:              func() float64 { return 0.5 },
	}
}

func TestPollOnce_AppendsLastReading(t *testing.T) {
	src := &fakeSource{readings: []device.SensorReading{
		{Timestamp: fixedNow.Add(-time.Minute), Temperature: 20, Humidity: 50},
		{Timestamp: fixedNow, Temperature: 21, Humidity: 55},
	}}
	sink := &fakeSink{}
	p := New(src, sink, testOptions(true))

	rep := p.PollOnce(context.Background())
	if rep.Result != ResultOK {
		t.Fatalf("Result = %s, want %s", rep.Result, ResultOK)
	}
	got := sink.Readings()
	if len(got) != 1 || got[0].Temperature != 21 {
		t.Errorf("sink got %+v, want only the newest reading", got)
	}
}

func TestPollOnce_SkipsInvalidTail(t *testing.T) {
	src := &fakeSource{readings: []device.SensorReading{
		{Timestamp: fixedNow, Temperature: 21, Humidity: 55},
		{Timestamp: fixedNow, Temperature: 21, Humidity: 400},
	}}
	sink := &fakeSink{}
	p := New(src, sink, testOptions(true))

	rep := p.PollOnce(context.Background())
	if rep.Result != ResultOK || rep.Rejected != 1 {
		t.Fatalf("report = %+v", rep)
	}
	if got := sink.Readings(); len(got) != 1 || got[0].Humidity != 55 {
		t.Errorf("sink got %+v", got)
	}
}

func TestPollOnce_SyntheticFallback(t *testing.T) {
	tests := []struct {
		name string
		src  *fakeSource
	}{
		{"gateway error", &fakeSource{err: errors.New("timeout")}},
		{"empty batch", &fakeSource{readings: []device.SensorReading{}}},
		{"only invalid", &fakeSource{readings: []device.SensorReading{{Temperature: 20}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &fakeSink{}
			p := New(tt.src, sink, testOptions(true))

			rep := p.PollOnce(context.Background())
			if rep.Result != ResultSynthetic {
				t.Fatalf("Result = %s, want %s", rep.Result, ResultSynthetic)
			}
			if rep.Err == nil {
				t.Error("report should carry the cause")
			}
			got := sink.Readings()
			if len(got) != 1 {
				t.Fatalf("sink got %d readings, want 1", len(got))
			}
			r := got[0]
			if r.Temperature != 25 || r.Humidity != 65 || !r.Timestamp.Equal(fixedNow) {
				t.Errorf("synthetic reading = %+v, want 25/65 at %v", r, fixedNow)
			}
		})
	}
}

func TestSyntheticReading_Range(t *testing.T) {
	for _, v := range []float64{0, 0.25, 0.999999} {
		p := New(&fakeSource{}, &fakeSink{}, Options{Rand: func() float64 { return v }})
		r := p.syntheticReading()
		if r.Temperature < 20 || r.Temperature >= 30 {
			t.Errorf("rand=%v temperature %v outside [20,30)", v, r.Temperature)
		}
		if r.Humidity < 50 || r.Humidity >= 80 {
			t.Errorf("rand=%v humidity %v outside [50,80)", v, r.Humidity)
		}
		if err := device.ValidateReading(r); err != nil {
			t.Errorf("synthetic reading invalid: %v", err)
		}
	}
}

func TestPollOnce_FallbackDisabled(t *testing.T) {
	sink := &fakeSink{}
	p := New(&fakeSource{err: errors.New("down")}, sink, testOptions(false))

	rep := p.PollOnce(context.Background())
	if rep.Result != ResultFailed || rep.Appended() {
		t.Errorf("report = %+v, want failed", rep)
	}
	if len(sink.Readings()) != 0 {
		t.Error("nothing should be appended")
	}
}

func TestPollOnce_OverlapGuard(t *testing.T) {
	src := &fakeSource{
		readings: []device.SensorReading{{Timestamp: fixedNow, Temperature: 22, Humidity: 60}},
		block:    make(chan struct{}),
		started:  make(chan struct{}, 1),
	}
	sink := &fakeSink{}

	var (
		mu      sync.Mutex
		reports []Report
	)
	opts := testOptions(true)
	opts.Observers = []Observer{ObserverFunc(func(r Report) {
		mu.Lock()
		reports = append(reports, r)
		mu.Unlock()
	})}
	p := New(src, sink, opts)

	done := make(chan Report)
	go func() { done <- p.PollOnce(context.Background()) }()
	<-src.started

	if rep := p.PollOnce(context.Background()); rep.Result != ResultSkipped {
		t.Errorf("overlapping poll Result = %s, want %s", rep.Result, ResultSkipped)
	}

	close(src.block)
	if rep := <-done; rep.Result != ResultOK {
		t.Errorf("first poll Result = %s, want %s", rep.Result, ResultOK)
	}
	if src.Calls() != 1 {
		t.Errorf("source called %d times, want 1", src.Calls())
	}

	mu.Lock()
	defer mu.Unlock()
	if len(reports) != 2 || reports[0].Result != ResultSkipped || reports[1].Result != ResultOK {
		t.Errorf("observer reports = %+v", reports)
	}
}

func TestRun_ImmediatePollAndShutdown(t *testing.T) {
	src := &fakeSource{readings: []device.SensorReading{{Timestamp: fixedNow, Temperature: 22, Humidity: 60}}}
	sink := &fakeSink{}

	polled := make(chan Report, 4)
	opts := testOptions(true)
	opts.Observers = []Observer{ObserverFunc(func(r Report) { polled <- r })}
	p := New(src, sink, opts)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	select {
	case rep := <-polled:
		if rep.Result != ResultOK {
			t.Errorf("first poll Result = %s", rep.Result)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no immediate poll")
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	// Interval is an hour, so only the startup poll ran.
	if src.Calls() != 1 {
		t.Errorf("source called %d times, want 1", src.Calls())
	}
}

func TestRun_CancelledFetchAppendsNothing(t *testing.T) {
	src := &fakeSource{block: make(chan struct{}), started: make(chan struct{}, 1)}
	sink := &fakeSink{}

	polled := make(chan Report, 4)
	opts := testOptions(true)
	opts.Observers = []Observer{ObserverFunc(func(r Report) { polled <- r })}
	p := New(src, sink, opts)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	select {
	case <-src.started:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch never started")
	}
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	rep := <-polled
	if rep.Result != ResultFailed || !errors.Is(rep.Err, context.Canceled) {
		t.Errorf("report = %s/%v, want failed with context.Canceled", rep.Result, rep.Err)
	}
	if got := sink.Readings(); len(got) != 0 {
		t.Errorf("appended %d readings during shutdown, want 0", len(got))
	}
}

func TestRun_Ticks(t *testing.T) {
	src := &fakeSource{readings: []device.SensorReading{{Timestamp: fixedNow, Temperature: 22, Humidity: 60}}}
	sink := &fakeSink{}

	polled := make(chan Report, 16)
	p := New(src, sink, Options{
		Interval:  10 * time.Millisecond,
		Timeout:   time.Second,
		Observers: []Observer{ObserverFunc(func(r Report) { polled <- r })},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	ok := 0
	for ok < 3 {
		select {
		case rep := <-polled:
			if rep.Result == ResultOK {
				ok++
			}
		case <-deadline:
			t.Fatalf("only %d polls completed", ok)
		}
	}
}

func TestNew_Defaults(t *testing.T) {
	p := New(&fakeSource{}, &fakeSink{}, Options{})
	if p.interval != DefaultInterval || p.timeout != DefaultTimeout {
		t.Errorf("interval=%v timeout=%v", p.interval, p.timeout)
	}
}
