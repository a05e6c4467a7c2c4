package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
		if s.metricsPath != "" {
			r.Method(http.MethodGet, s.metricsPath, s.metrics.Handler())
		}
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/state", s.handleGetState)

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Post("/reset", s.handleResetDevices)
			r.Get("/{id}", s.handleGetDevice)
			r.Put("/{id}", s.handleUpdateDevice)
		})

		r.Post("/lamp/toggle", s.handleToggleLamp)
		r.Post("/fan/toggle", s.handleToggleFan)
		r.Put("/thermostat", s.handleSetThermostat)

		r.Get("/sensors", s.handleListSensors)
		r.Get("/sensors/history", s.handleSensorHistory)
		r.Get("/power", s.handlePower)
		r.Get("/actions", s.handleListActions)

		r.Get(s.wsPath(), s.handleWebSocket)
	})

	return r
}

// wsPath is the WebSocket route under /api/v1.
func (s *Server) wsPath() string {
	p := s.wsCfg.Path
	if p == "" {
		return "/ws"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
