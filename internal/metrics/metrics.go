// Package metrics exposes dashboard state and activity as Prometheus
// metrics on a private registry.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/gray-logic-dashboard/internal/poller"
	"github.com/nerrad567/gray-logic-dashboard/internal/store"
)

const namespace = "graydash"

// Metrics holds the dashboard collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	powerWatts     prometheus.Gauge
	devices        prometheus.Gauge
	historyLength  prometheus.Gauge
	targetTemp     prometheus.Gauge
	switchOn       *prometheus.GaugeVec
	actionsTotal   *prometheus.CounterVec
	pollsTotal     *prometheus.CounterVec
	pollDuration   prometheus.Histogram
	requestsTotal  *prometheus.CounterVec
	requestSeconds *prometheus.HistogramVec
}

// New creates and registers all collectors, plus the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		powerWatts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "power_watts",
			Help:      "Derived total power consumption in watts.",
		}),
		devices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "devices",
			Help:      "Number of devices in the store.",
		}),
		historyLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensor_history_length",
			Help:      "Number of readings held in the sensor history.",
		}),
		targetTemp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "target_temperature_celsius",
			Help:      "Thermostat target temperature.",
		}),
		switchOn: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "switch_on",
			Help:      "Lamp and fan switch state (1 on, 0 off).",
		}, []string{"switch"}),
		actionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_actions_total",
			Help:      "Store actions by action and outcome.",
		}, []string{"action", "outcome"}),
		pollsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Sensor polls by result.",
		}, []string{"result"}),
		pollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Duration of sensor polls that ran.",
			Buckets:   prometheus.DefBuckets,
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "status"}),
		requestSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		m.powerWatts,
		m.devices,
		m.historyLength,
		m.targetTemp,
		m.switchOn,
		m.actionsTotal,
		m.pollsTotal,
		m.pollDuration,
		m.requestsTotal,
		m.requestSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the registry backing Handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SetState updates the gauges from a store snapshot.
func (m *Metrics) SetState(st store.State) {
	if m == nil {
		return
	}
	m.powerWatts.Set(st.TotalPower)
	m.devices.Set(float64(len(st.Devices)))
	m.historyLength.Set(float64(len(st.SensorData)))
	m.targetTemp.Set(st.Temperature)
	m.switchOn.WithLabelValues("lamp").Set(boolValue(st.LampOn))
	m.switchOn.WithLabelValues("fan").Set(boolValue(st.FanOn))
}

// HandleEvent is a store.Listener.
func (m *Metrics) HandleEvent(ev store.Event) {
	if m == nil {
		return
	}
	m.actionsTotal.WithLabelValues(ev.Action, string(ev.Outcome)).Inc()
	m.SetState(ev.State)
}

// ObservePoll implements poller.Observer.
func (m *Metrics) ObservePoll(rep poller.Report) {
	if m == nil {
		return
	}
	m.pollsTotal.WithLabelValues(string(rep.Result)).Inc()
	if rep.Result != poller.ResultSkipped {
		m.pollDuration.Observe(rep.Duration.Seconds())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Hijack passes through to the underlying writer for WebSocket upgrades.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer does not support hijacking")
	}
	return h.Hijack()
}

// Middleware counts requests and times them by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		m.requestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		m.requestSeconds.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
