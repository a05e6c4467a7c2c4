package main

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/gray-logic-dashboard/internal/api"
	"github.com/nerrad567/gray-logic-dashboard/internal/audit"
	"github.com/nerrad567/gray-logic-dashboard/internal/device"
	"github.com/nerrad567/gray-logic-dashboard/internal/gateway"
	"github.com/nerrad567/gray-logic-dashboard/internal/history"
	"github.com/nerrad567/gray-logic-dashboard/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-dashboard/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-dashboard/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-dashboard/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-dashboard/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-dashboard/internal/metrics"
	"github.com/nerrad567/gray-logic-dashboard/internal/poller"
	"github.com/nerrad567/gray-logic-dashboard/internal/relay"
	"github.com/nerrad567/gray-logic-dashboard/internal/store"
	"github.com/nerrad567/gray-logic-dashboard/internal/telemetry"
	"github.com/nerrad567/gray-logic-dashboard/migrations"
)

// pruneInterval is how often the persisted reading log is trimmed.
const pruneInterval = 6 * time.Hour

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - configPath: Value of --config, may be empty
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, configPath string) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Gray Logic dashboard",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	path, _ := config.Resolve(configPath)
	cfg, err := config.LoadPath(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", path)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	components := map[string]api.HealthChecker{"database": db}

	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("closing MQTT connection")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		components["mqtt"] = mqttClient
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
			"topic_prefix", mqttClient.Topics().Prefix,
		)
	} else {
		log.Info("MQTT relay disabled")
	}

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		components["influxdb"] = influxClient
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB telemetry disabled")
	}

	gw := gateway.New(cfg.Gateway, gateway.WithLogger(log))
	repo := history.NewSQLiteRepository(db.DB)
	recorder := history.NewRecorder(repo, log)
	actionLog := audit.NewSQLiteRepository(db.DB)

	st := newStore(cfg, gw, log)

	// Observers shared between store events and poll reports.
	observers := []poller.Observer{recorder}
	st.Subscribe(recorder.HandleEvent)
	st.Subscribe(audit.NewRecorder(actionLog, log).HandleEvent)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		st.Subscribe(m.HandleEvent)
		observers = append(observers, m)
	}

	if influxClient != nil {
		tel := telemetry.NewRecorder(influxClient)
		st.Subscribe(tel.HandleEvent)
		observers = append(observers, tel)
	}

	restored, err := history.Restore(ctx, repo, st, log)
	if err != nil {
		// A damaged snapshot is not fatal; the store starts from the gateway.
		log.Warn("restoring snapshot failed", "error", err)
	}
	outcome := st.InitDevices(ctx)
	log.Info("devices initialised",
		"outcome", outcome,
		"restored", restored,
		"devices", len(st.Devices()),
	)

	if mqttClient != nil {
		r := relay.New(mqttClient, mqttClient.Topics(), st, log)
		if startErr := r.Start(); startErr != nil {
			return fmt.Errorf("starting MQTT relay: %w", startErr)
		}
		st.Subscribe(r.HandleEvent)
		mqttClient.SetOnConnect(func() {
			if pubErr := r.PublishState(st.State()); pubErr != nil {
				log.Warn("republishing state after reconnect failed", "error", pubErr)
			}
		})
		if pubErr := r.PublishState(st.State()); pubErr != nil {
			log.Warn("publishing initial state failed", "error", pubErr)
		}
	}
	if m != nil {
		m.SetState(st.State())
	}

	p := poller.New(gw, st, poller.Options{
		Interval:          cfg.GetPollInterval(),
		Timeout:           cfg.GetGatewayTimeout(),
		SyntheticFallback: cfg.Polling.SyntheticFallback,
		Observers:         observers,
		Logger:            log,
	})

	server, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		MetricsPath: cfg.Metrics.Path,
		Logger:      log,
		Store:       st,
		Gateway:     gw,
		History:     repo,
		Actions:     actionLog,
		Metrics:     m,
		FanSpeed:    cfg.Gateway.FanSpeed,
		Components:  components,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	log.Info("API server listening", "address", server.Addr())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.Run(gctx)
	})
	if retention := cfg.GetReadingRetention(); retention > 0 {
		g.Go(func() error {
			pruneHistory(gctx, retention, log, map[string]pruner{
				"sensor_readings": repo,
				"action_log":      actionLog,
			})
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, cleaning up")
		return server.Close()
	})

	log.Info("initialisation complete, waiting for shutdown signal")
	if err := g.Wait(); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}

	log.Info("Gray Logic dashboard stopped")
	return nil
}

// newStore builds the device store from the configured initial state.
func newStore(cfg *config.Config, source store.DeviceSource, log *logging.Logger) *store.Store {
	st := store.New(store.Options{
		Source: source,
		Power: device.PowerTable{
			Lamp:       cfg.Store.DevicePower.Lamp,
			Fan:        cfg.Store.DevicePower.Fan,
			Thermostat: cfg.Store.DevicePower.Thermostat,
			Sensor:     cfg.Store.DevicePower.Sensor,
		},
		LampOn:          cfg.Store.LampOn,
		FanOn:           cfg.Store.FanOn,
		Temperature:     cfg.Store.Temperature,
		HistoryCapacity: cfg.Store.HistoryCapacity,
	})
	st.SetLogger(log)
	st.SetOnActionError(func(action string, err error) {
		log.Error("store action failed, devices reset", "action", action, "error", err)
	})
	return st
}

// pruner is implemented by the history and audit SQLite repositories.
type pruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// pruneHistory trims every persisted log once immediately, then every
// pruneInterval until ctx is cancelled.
func pruneHistory(ctx context.Context, retention time.Duration, log *logging.Logger, tables map[string]pruner) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		for table, p := range tables {
			n, err := p.Prune(ctx, retention)
			switch {
			case err != nil && ctx.Err() == nil:
				log.Warn("pruning history failed", "table", table, "error", err)
			case n > 0:
				log.Info("pruned old history", "table", table, "deleted", n, "retention", retention)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
