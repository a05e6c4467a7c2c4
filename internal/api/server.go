package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-dashboard/internal/audit"
	"github.com/nerrad567/gray-logic-dashboard/internal/device"
	"github.com/nerrad567/gray-logic-dashboard/internal/history"
	"github.com/nerrad567/gray-logic-dashboard/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-dashboard/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-dashboard/internal/metrics"
	"github.com/nerrad567/gray-logic-dashboard/internal/store"
)

// gracefulShutdownTimeout bounds how long Close waits for in-flight requests.
const gracefulShutdownTimeout = 10 * time.Second

// StateStore is the store surface the API drives. Implemented by *store.Store.
type StateStore interface {
	State() store.State
	Devices() []device.SmartDevice
	Device(id string) (device.SmartDevice, bool)
	Readings() []device.SensorReading
	TotalPowerConsumption() float64
	ResetDevicesResult() store.Result
	ToggleLampResult() store.Result
	ToggleFanResult() store.Result
	UpdateDeviceStatusResult(id string, on bool) store.Result
	SetTemperatureResult(t float64) store.Result
	Subscribe(l store.Listener)
}

// WriteBack pushes user changes to the remote gateway. Implemented by
// *gateway.Client. Each call reports success and never fails the request.
type WriteBack interface {
	UpdateDeviceStatus(ctx context.Context, id string, status device.Status) bool
	UpdateTemperature(ctx context.Context, temperature float64) bool
	UpdateFanStatus(ctx context.Context, on bool, speed int) bool
}

// ReadingHistory serves the persisted reading log.
type ReadingHistory interface {
	Recent(ctx context.Context, limit int) ([]history.ReadingEntry, error)
}

// ActionLog serves the persisted trail of store actions.
type ActionLog interface {
	List(ctx context.Context, filter audit.Filter) (*audit.ListResult, error)
}

// HealthChecker is any component that can report its health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the server's dependencies. Only Logger and Store are required.
type Deps struct {
	Config      config.APIConfig
	WS          config.WebSocketConfig
	MetricsPath string
	Logger      *logging.Logger
	Store       StateStore
	Gateway     WriteBack
	History     ReadingHistory
	Actions     ActionLog
	Metrics     *metrics.Metrics
	FanSpeed    int
	Components  map[string]HealthChecker
	Version     string
}

// Server is the dashboard HTTP server.
type Server struct {
	cfg         config.APIConfig
	wsCfg       config.WebSocketConfig
	metricsPath string
	logger      *logging.Logger
	store       StateStore
	gateway     WriteBack
	history     ReadingHistory
	actions     ActionLog
	metrics     *metrics.Metrics
	fanSpeed    int
	components  map[string]HealthChecker
	version     string

	hub      *Hub
	server   *http.Server
	listener net.Listener
	cancel   context.CancelFunc
}

// New creates a server and subscribes its WebSocket hub to store events.
// The server does not listen until Start is called.
//
// Parameters:
//   - deps: Logger and Store are required, the rest is optional
//
// Returns:
//   - *Server: configured server
//   - error: if a required dependency is missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}

	s := &Server{
		cfg:         deps.Config,
		wsCfg:       deps.WS,
		metricsPath: deps.MetricsPath,
		logger:      deps.Logger,
		store:       deps.Store,
		gateway:     deps.Gateway,
		history:     deps.History,
		actions:     deps.Actions,
		metrics:     deps.Metrics,
		fanSpeed:    deps.FanSpeed,
		components:  deps.Components,
		version:     deps.Version,
	}
	s.hub = NewHub(s.wsCfg, s.logger)
	s.store.Subscribe(s.broadcastEvent)

	return s, nil
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start binds the listener and serves in the background. Bind errors are
// returned; errors after that are logged.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = ln

	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var serveErr error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS", "address", ln.Addr().String(), "cert", s.cfg.TLS.CertFile)
			serveErr = s.server.ServeTLS(ln, s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", ln.Addr().String())
			serveErr = s.server.Serve(ln)
		}
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", serveErr)
		}
	}()

	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close stops the hub and shuts the server down, waiting up to ten seconds
// for in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("api health check: %w", err)
	}
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
