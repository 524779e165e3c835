package cfg

import (
	"strings"
	"testing"
	"time"
)

// createValidSettings creates a valid Settings struct for testing
func createValidSettings() *Settings {
	return &Settings{
		APIBaseURL:    "http://localhost:5000",
		DashboardPort: 8090,
		MetricsPort:   8080,
		RESTTimeout:   5 * time.Second,
		Refresh: RefreshSettings{
			LiveStatus:   5 * time.Second,
			TradeHistory: 30 * time.Second,
			Signals:      10 * time.Second,
			Performance:  30 * time.Second,
		},
		TargetEquity: 10000,
		DrawdownSoft: -0.05,
		DrawdownHard: -0.10,
		LogLevel:     "info",
	}
}

func TestValidateSettings_ValidConfig(t *testing.T) {
	settings := createValidSettings()

	if err := validateSettings(settings); err != nil {
		t.Errorf("Expected valid config to pass, got error: %v", err)
	}
}

func TestValidateSettings_ManualRefreshAllowed(t *testing.T) {
	settings := createValidSettings()
	settings.Refresh = RefreshSettings{}

	if err := validateSettings(settings); err != nil {
		t.Errorf("Expected zero refresh intervals to be valid, got: %v", err)
	}
}

func TestValidateSettings_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantMsg string
	}{
		{"empty base URL", func(s *Settings) { s.APIBaseURL = "" }, "API base URL cannot be empty"},
		{"unsupported scheme", func(s *Settings) { s.APIBaseURL = "ftp://host" }, "absolute http(s) URL"},
		{"dashboard port too low", func(s *Settings) { s.DashboardPort = 80 }, "dashboard port"},
		{"metrics port too high", func(s *Settings) { s.MetricsPort = 70000 }, "metrics port"},
		{"ports collide", func(s *Settings) { s.MetricsPort = s.DashboardPort }, "must differ"},
		{"timeout too short", func(s *Settings) { s.RESTTimeout = 100 * time.Millisecond }, "REST timeout"},
		{"timeout too long", func(s *Settings) { s.RESTTimeout = 2 * time.Minute }, "REST timeout"},
		{"refresh too long", func(s *Settings) { s.Refresh.Signals = 2 * time.Hour }, "quantum_signals refresh"},
		{"zero target equity", func(s *Settings) { s.TargetEquity = 0 }, "target equity"},
		{"positive soft limit", func(s *Settings) { s.DrawdownSoft = 0.05 }, "negative fractions"},
		{"hard above soft", func(s *Settings) { s.DrawdownHard = -0.01 }, "must not be above"},
		{"bad log level", func(s *Settings) { s.LogLevel = "loud" }, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := createValidSettings()
			tt.mutate(settings)

			err := validateSettings(settings)
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantMsg, err)
			}
		})
	}
}
