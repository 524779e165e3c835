package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var testEnvKeys = []string{
	"CONFIG_FILE", "API_BASE_URL", "DASHBOARD_PORT", "METRICS_PORT", "REST_TIMEOUT",
	"LIVE_STATUS_REFRESH", "TRADE_HISTORY_REFRESH", "SIGNALS_REFRESH", "PERFORMANCE_REFRESH",
	"TARGET_EQUITY", "LOG_LEVEL",
}

func clearTestEnv(t *testing.T) {
	t.Helper()
	for _, key := range testEnvKeys {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		wantErr  bool
		validate func(t *testing.T, settings Settings)
	}{
		{
			name:    "defaults",
			envVars: map[string]string{},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.APIBaseURL != "http://localhost:5000" {
					t.Errorf("expected default APIBaseURL, got %s", settings.APIBaseURL)
				}
				if settings.DashboardPort != 8090 {
					t.Errorf("expected default DashboardPort 8090, got %d", settings.DashboardPort)
				}
				if settings.RESTTimeout != 5*time.Second {
					t.Errorf("expected default RESTTimeout 5s, got %v", settings.RESTTimeout)
				}
				if settings.Refresh.LiveStatus != 5*time.Second {
					t.Errorf("expected default live status refresh 5s, got %v", settings.Refresh.LiveStatus)
				}
				if settings.TargetEquity != 10000 {
					t.Errorf("expected default TargetEquity 10000, got %f", settings.TargetEquity)
				}
				if settings.DrawdownSoft != -0.05 || settings.DrawdownHard != -0.10 {
					t.Errorf("expected default drawdown limits, got %f/%f", settings.DrawdownSoft, settings.DrawdownHard)
				}
			},
		},
		{
			name: "custom values",
			envVars: map[string]string{
				"API_BASE_URL":        "https://backend.example.com/",
				"DASHBOARD_PORT":      "9000",
				"METRICS_PORT":        "9091",
				"LIVE_STATUS_REFRESH": "0",
				"SIGNALS_REFRESH":     "2s",
				"TARGET_EQUITY":       "25000",
				"LOG_LEVEL":           "debug",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.APIBaseURL != "https://backend.example.com" {
					t.Errorf("expected trailing slash trimmed, got %s", settings.APIBaseURL)
				}
				if settings.DashboardPort != 9000 || settings.MetricsPort != 9091 {
					t.Errorf("unexpected ports %d/%d", settings.DashboardPort, settings.MetricsPort)
				}
				if settings.Refresh.LiveStatus != 0 {
					t.Errorf("expected manual live status refresh, got %v", settings.Refresh.LiveStatus)
				}
				if settings.Refresh.Signals != 2*time.Second {
					t.Errorf("expected signals refresh 2s, got %v", settings.Refresh.Signals)
				}
				if settings.TargetEquity != 25000 {
					t.Errorf("expected TargetEquity 25000, got %f", settings.TargetEquity)
				}
			},
		},
		{
			name:    "relative base URL",
			envVars: map[string]string{"API_BASE_URL": "/api"},
			wantErr: true,
		},
		{
			name:    "same ports",
			envVars: map[string]string{"DASHBOARD_PORT": "9000", "METRICS_PORT": "9000"},
			wantErr: true,
		},
		{
			name:    "refresh too short",
			envVars: map[string]string{"TRADE_HISTORY_REFRESH": "100ms"},
			wantErr: true,
		},
		{
			name:    "unknown log level",
			envVars: map[string]string{"LOG_LEVEL": "verbose"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			settings, err := loadFromEnv()

			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.wantErr && tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	tests := []struct {
		name         string
		yamlContent  string
		envOverrides map[string]string
		wantErr      bool
		validate     func(t *testing.T, settings Settings)
	}{
		{
			name: "valid YAML config",
			yamlContent: `
api:
  baseURL: "http://10.0.0.5:5000"
  restTimeout: "10s"

refresh:
  liveStatus: "3s"
  tradeHistory: "0"
  signals: "15s"
  performance: "1m"

charts:
  targetEquity: 12000
  drawdownSoft: -0.04
  drawdownHard: -0.08

system:
  dashboardPort: 8100
  metricsPort: 9100
  logLevel: "warn"
`,
			validate: func(t *testing.T, settings Settings) {
				if settings.APIBaseURL != "http://10.0.0.5:5000" {
					t.Errorf("expected APIBaseURL from YAML, got %s", settings.APIBaseURL)
				}
				if settings.RESTTimeout != 10*time.Second {
					t.Errorf("expected RESTTimeout 10s, got %v", settings.RESTTimeout)
				}
				if settings.Refresh.TradeHistory != 0 {
					t.Errorf("expected manual trade history refresh, got %v", settings.Refresh.TradeHistory)
				}
				if settings.Refresh.Performance != time.Minute {
					t.Errorf("expected performance refresh 1m, got %v", settings.Refresh.Performance)
				}
				if settings.TargetEquity != 12000 {
					t.Errorf("expected TargetEquity 12000, got %f", settings.TargetEquity)
				}
				if settings.DrawdownSoft != -0.04 || settings.DrawdownHard != -0.08 {
					t.Errorf("unexpected drawdown limits %f/%f", settings.DrawdownSoft, settings.DrawdownHard)
				}
				if settings.DashboardPort != 8100 || settings.MetricsPort != 9100 {
					t.Errorf("unexpected ports %d/%d", settings.DashboardPort, settings.MetricsPort)
				}
				if settings.LogLevel != "warn" {
					t.Errorf("expected log level warn, got %s", settings.LogLevel)
				}
			},
		},
		{
			name: "environment overrides YAML",
			yamlContent: `
api:
  baseURL: "http://10.0.0.5:5000"
system:
  dashboardPort: 8100
`,
			envOverrides: map[string]string{
				"API_BASE_URL":   "http://override:5000",
				"DASHBOARD_PORT": "8200",
			},
			validate: func(t *testing.T, settings Settings) {
				if settings.APIBaseURL != "http://override:5000" {
					t.Errorf("expected env override for APIBaseURL, got %s", settings.APIBaseURL)
				}
				if settings.DashboardPort != 8200 {
					t.Errorf("expected env override for DashboardPort, got %d", settings.DashboardPort)
				}
			},
		},
		{
			name:        "invalid YAML",
			yamlContent: "api: [unclosed",
			wantErr:     true,
		},
		{
			name: "inverted drawdown limits",
			yamlContent: `
charts:
  drawdownSoft: -0.10
  drawdownHard: -0.05
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)
			for key, value := range tt.envOverrides {
				t.Setenv(key, value)
			}

			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yamlContent), 0o600); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			settings, err := loadFromYAML(path)

			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.wantErr && tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoad_UsesConfigFile(t *testing.T) {
	clearTestEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "system:\n  dashboardPort: 8300\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	settings, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.DashboardPort != 8300 {
		t.Errorf("expected DashboardPort 8300 from file, got %d", settings.DashboardPort)
	}
}

func TestLoadFromYAML_MissingFile(t *testing.T) {
	_, err := loadFromYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestRefreshSettings_For(t *testing.T) {
	r := RefreshSettings{
		LiveStatus:   time.Second,
		TradeHistory: 2 * time.Second,
		Signals:      3 * time.Second,
		Performance:  4 * time.Second,
	}

	cases := map[string]time.Duration{
		"live_status":         time.Second,
		"trade_history":       2 * time.Second,
		"quantum_signals":     3 * time.Second,
		"performance_metrics": 4 * time.Second,
		"unknown":             0,
	}
	for resource, want := range cases {
		if got := r.For(resource); got != want {
			t.Errorf("For(%q) = %v, want %v", resource, got, want)
		}
	}
}
