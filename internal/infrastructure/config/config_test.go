package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
dashboard:
  id: "test-dash"
gateway:
  base_url: "http://gateway.local/api"
  timeout: 5
polling:
  interval: 15
store:
  history_capacity: 50
  lamp_on: false
  temperature: 21.5
  device_power:
    lamp: 40
database:
  path: "/tmp/test.db"
  wal_mode: true
mqtt:
  enabled: true
  broker:
    host: "localhost"
    port: 1883
  qos: 1
api:
  port: 9000
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Dashboard.ID != "test-dash" {
		t.Errorf("Dashboard.ID = %q, want %q", cfg.Dashboard.ID, "test-dash")
	}
	if cfg.Gateway.BaseURL != "http://gateway.local/api" {
		t.Errorf("Gateway.BaseURL = %q", cfg.Gateway.BaseURL)
	}
	if got := cfg.GetGatewayTimeout().Seconds(); got != 5 {
		t.Errorf("GetGatewayTimeout() = %vs, want 5s", got)
	}
	if got := cfg.GetPollInterval().Seconds(); got != 15 {
		t.Errorf("GetPollInterval() = %vs, want 15s", got)
	}
	if cfg.Store.HistoryCapacity != 50 || cfg.Store.LampOn || cfg.Store.Temperature != 21.5 {
		t.Errorf("Store = %+v", cfg.Store)
	}
	// Unset keys keep their defaults.
	if cfg.Store.DevicePower.Lamp != 40 || cfg.Store.DevicePower.Fan != 50 {
		t.Errorf("DevicePower = %+v, want lamp 40 fan 50", cfg.Store.DevicePower)
	}
	if !cfg.Store.FanOn {
		t.Error("Store.FanOn should keep default true")
	}
	if cfg.MQTT.TopicPrefix != "graydash" {
		t.Errorf("MQTT.TopicPrefix = %q, want graydash", cfg.MQTT.TopicPrefix)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
gateway:
  base_url: ""
polling:
  interval: 0
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("Load() expected validation error, got nil")
	}
	for _, want := range []string{"gateway.base_url", "polling.interval"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoadPath(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		path := writeConfig(t, "api:\n  port: 9100\n")
		cfg, err := LoadPath(path)
		if err != nil {
			t.Fatalf("LoadPath() error = %v", err)
		}
		if cfg.API.Port != 9100 {
			t.Errorf("API.Port = %d, want 9100", cfg.API.Port)
		}
	})

	t.Run("explicit missing path fails", func(t *testing.T) {
		if _, err := LoadPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("LoadPath() expected error for missing explicit file")
		}
	})

	t.Run("env path", func(t *testing.T) {
		path := writeConfig(t, "api:\n  port: 9200\n")
		t.Setenv("GRAYDASH_CONFIG", path)
		cfg, err := LoadPath("")
		if err != nil {
			t.Fatalf("LoadPath() error = %v", err)
		}
		if cfg.API.Port != 9200 {
			t.Errorf("API.Port = %d, want 9200", cfg.API.Port)
		}
	})

	t.Run("implicit missing falls back to defaults", func(t *testing.T) {
		t.Setenv("GRAYDASH_CONFIG", "")
		t.Chdir(t.TempDir())
		cfg, err := LoadPath("")
		if err != nil {
			t.Fatalf("LoadPath() error = %v", err)
		}
		if cfg.Polling.Interval != 30 {
			t.Errorf("Polling.Interval = %d, want 30", cfg.Polling.Interval)
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return defaultConfig() }

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{"missing gateway url", func(c *Config) { c.Gateway.BaseURL = "" }, "gateway.base_url"},
		{"zero gateway timeout", func(c *Config) { c.Gateway.Timeout = 0 }, "gateway.timeout"},
		{"zero poll interval", func(c *Config) { c.Polling.Interval = 0 }, "polling.interval"},
		{"zero history capacity", func(c *Config) { c.Store.HistoryCapacity = 0 }, "store.history_capacity"},
		{"negative power", func(c *Config) { c.Store.DevicePower.Fan = -1 }, "store.device_power.fan"},
		{"missing database path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"negative retention", func(c *Config) { c.Database.RetentionDays = -1 }, "database.retention_days"},
		{"invalid QoS", func(c *Config) { c.MQTT.QoS = 3 }, "mqtt.qos"},
		{"mqtt without prefix", func(c *Config) { c.MQTT.Enabled = true; c.MQTT.TopicPrefix = "" }, "mqtt.topic_prefix"},
		{"invalid port low", func(c *Config) { c.API.Port = 0 }, "api.port"},
		{"invalid port high", func(c *Config) { c.API.Port = 70000 }, "api.port"},
		{"influx without url", func(c *Config) { c.InfluxDB.Enabled = true }, "influxdb.url"},
		{"metrics path", func(c *Config) { c.Metrics.Path = "metrics" }, "metrics.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}

	cfg.Database.RetentionDays = 2
	if got := cfg.GetReadingRetention().Hours(); got != 48 {
		t.Errorf("GetReadingRetention() = %vh, want 48h", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("GRAYDASH_GATEWAY_URL", "http://10.0.0.5/api")
	t.Setenv("GRAYDASH_DATABASE_PATH", "/custom/path.db")
	t.Setenv("GRAYDASH_MQTT_HOST", "mqtt.example.com")
	t.Setenv("GRAYDASH_MQTT_USERNAME", "testuser")
	t.Setenv("GRAYDASH_MQTT_PASSWORD", "testpass")
	t.Setenv("GRAYDASH_API_HOST", "192.168.1.1")
	t.Setenv("GRAYDASH_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("GRAYDASH_LOG_LEVEL", "debug")

	applyEnvOverrides(cfg)

	checks := []struct {
		name, got, want string
	}{
		{"Gateway.BaseURL", cfg.Gateway.BaseURL, "http://10.0.0.5/api"},
		{"Database.Path", cfg.Database.Path, "/custom/path.db"},
		{"MQTT.Broker.Host", cfg.MQTT.Broker.Host, "mqtt.example.com"},
		{"MQTT.Auth.Username", cfg.MQTT.Auth.Username, "testuser"},
		{"MQTT.Auth.Password", cfg.MQTT.Auth.Password, "testpass"},
		{"API.Host", cfg.API.Host, "192.168.1.1"},
		{"InfluxDB.Token", cfg.InfluxDB.Token, "secret-token"},
		{"Logging.Level", cfg.Logging.Level, "debug"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.name, c.got, c.want)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Gateway.BaseURL != "http://localhost:8080/api" {
		t.Errorf("Gateway.BaseURL = %q", cfg.Gateway.BaseURL)
	}
	if cfg.Gateway.Timeout != 10 {
		t.Errorf("Gateway.Timeout = %d, want 10", cfg.Gateway.Timeout)
	}
	if cfg.Polling.Interval != 30 {
		t.Errorf("Polling.Interval = %d, want 30", cfg.Polling.Interval)
	}
	if cfg.Store.HistoryCapacity != 100 {
		t.Errorf("Store.HistoryCapacity = %d, want 100", cfg.Store.HistoryCapacity)
	}
	p := cfg.Store.DevicePower
	if p.Lamp != 60 || p.Fan != 50 || p.Thermostat != 15 || p.Sensor != 5 {
		t.Errorf("DevicePower = %+v", p)
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
}
