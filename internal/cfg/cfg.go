package cfg

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"quantum-dashboard/internal/common"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	APIBaseURL    string
	DashboardPort int
	MetricsPort   int
	RESTTimeout   time.Duration
	Refresh       RefreshSettings
	TargetEquity  float64
	DrawdownSoft  float64
	DrawdownHard  float64
	LogLevel      string
}

// RefreshSettings holds the polling interval of each backend resource.
// A zero interval means the resource is fetched once and then only on demand.
type RefreshSettings struct {
	LiveStatus   time.Duration
	TradeHistory time.Duration
	Signals      time.Duration
	Performance  time.Duration
}

// For returns the interval configured for a resource name.
func (r RefreshSettings) For(resource string) time.Duration {
	switch resource {
	case common.ResourceLiveStatus:
		return r.LiveStatus
	case common.ResourceTradeHistory:
		return r.TradeHistory
	case common.ResourceSignals:
		return r.Signals
	case common.ResourcePerformance:
		return r.Performance
	default:
		return 0
	}
}

type ConfigFile struct {
	API struct {
		BaseURL     string `yaml:"baseURL"`
		RESTTimeout string `yaml:"restTimeout"`
	} `yaml:"api"`

	Refresh struct {
		LiveStatus   string `yaml:"liveStatus"`
		TradeHistory string `yaml:"tradeHistory"`
		Signals      string `yaml:"signals"`
		Performance  string `yaml:"performance"`
	} `yaml:"refresh"`

	Charts struct {
		TargetEquity float64 `yaml:"targetEquity"`
		DrawdownSoft float64 `yaml:"drawdownSoft"`
		DrawdownHard float64 `yaml:"drawdownHard"`
	} `yaml:"charts"`

	System struct {
		DashboardPort int    `yaml:"dashboardPort"`
		MetricsPort   int    `yaml:"metricsPort"`
		LogLevel      string `yaml:"logLevel"`
	} `yaml:"system"`
}

// Load reads the optional .env file, then builds settings from the YAML file named by
// CONFIG_FILE, falling back to environment variables alone.
func Load() (Settings, error) {
	// a missing .env is the normal case
	_ = godotenv.Load()

	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	settings := Settings{
		APIBaseURL:    getEnvOrDefault(common.EnvAPIBaseURL, orString(config.API.BaseURL, common.DefaultAPIBaseURL)),
		DashboardPort: getIntFromEnvOrConfig(common.EnvDashboardPort, config.System.DashboardPort, common.DefaultDashboardPort),
		MetricsPort:   getIntFromEnvOrConfig(common.EnvMetricsPort, config.System.MetricsPort, common.DefaultMetricsPort),
		RESTTimeout:   getDurationFromEnvOrConfig(common.EnvRESTTimeout, config.API.RESTTimeout, 5*time.Second),
		Refresh: RefreshSettings{
			LiveStatus:   getDurationFromEnvOrConfig(common.EnvLiveStatusRefresh, config.Refresh.LiveStatus, 5*time.Second),
			TradeHistory: getDurationFromEnvOrConfig(common.EnvTradeHistoryRefresh, config.Refresh.TradeHistory, 30*time.Second),
			Signals:      getDurationFromEnvOrConfig(common.EnvSignalsRefresh, config.Refresh.Signals, 10*time.Second),
			Performance:  getDurationFromEnvOrConfig(common.EnvPerformanceRefresh, config.Refresh.Performance, 30*time.Second),
		},
		TargetEquity: getFloatFromEnvOrConfig(common.EnvTargetEquity, config.Charts.TargetEquity, common.DefaultTargetEquity),
		DrawdownSoft: orFloat(config.Charts.DrawdownSoft, common.DefaultDrawdownSoftLimit),
		DrawdownHard: orFloat(config.Charts.DrawdownHard, common.DefaultDrawdownHardLimit),
		LogLevel:     getEnvOrDefault(common.EnvLogLevel, orString(config.System.LogLevel, common.DefaultLogLevel)),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		APIBaseURL:    getEnvOrDefault(common.EnvAPIBaseURL, common.DefaultAPIBaseURL),
		DashboardPort: getIntOrDefault(common.EnvDashboardPort, common.DefaultDashboardPort),
		MetricsPort:   getIntOrDefault(common.EnvMetricsPort, common.DefaultMetricsPort),
		RESTTimeout:   getDurationOrDefault(common.EnvRESTTimeout, 5*time.Second),
		Refresh: RefreshSettings{
			LiveStatus:   getDurationOrDefault(common.EnvLiveStatusRefresh, 5*time.Second),
			TradeHistory: getDurationOrDefault(common.EnvTradeHistoryRefresh, 30*time.Second),
			Signals:      getDurationOrDefault(common.EnvSignalsRefresh, 10*time.Second),
			Performance:  getDurationOrDefault(common.EnvPerformanceRefresh, 30*time.Second),
		},
		TargetEquity: getFloatOrDefault(common.EnvTargetEquity, common.DefaultTargetEquity),
		DrawdownSoft: common.DefaultDrawdownSoftLimit,
		DrawdownHard: common.DefaultDrawdownHardLimit,
		LogLevel:     getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

// validateSettings performs range checks on every configuration value
func validateSettings(settings *Settings) error {
	if settings.APIBaseURL == "" {
		return fmt.Errorf("API base URL cannot be empty")
	}
	u, err := url.Parse(settings.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("API base URL must be an absolute http(s) URL, got %q", settings.APIBaseURL)
	}
	settings.APIBaseURL = strings.TrimRight(settings.APIBaseURL, "/")

	if settings.DashboardPort < common.MinPort || settings.DashboardPort > common.MaxPort {
		return fmt.Errorf("dashboard port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.DashboardPort)
	}
	if settings.MetricsPort < common.MinPort || settings.MetricsPort > common.MaxPort {
		return fmt.Errorf("metrics port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.MetricsPort)
	}
	if settings.MetricsPort == settings.DashboardPort {
		return fmt.Errorf("metrics port and dashboard port must differ, both are %d", settings.MetricsPort)
	}

	if settings.RESTTimeout < common.MinTimeoutSec*time.Second || settings.RESTTimeout > common.MaxTimeoutSec*time.Second {
		return fmt.Errorf("REST timeout must be between 1s and 1m, got %v", settings.RESTTimeout)
	}

	refresh := map[string]time.Duration{
		common.ResourceLiveStatus:   settings.Refresh.LiveStatus,
		common.ResourceTradeHistory: settings.Refresh.TradeHistory,
		common.ResourceSignals:      settings.Refresh.Signals,
		common.ResourcePerformance:  settings.Refresh.Performance,
	}
	for name, d := range refresh {
		if d == 0 {
			continue
		}
		if d < common.MinRefresh*time.Second || d > common.MaxRefresh*time.Second {
			return fmt.Errorf("%s refresh must be 0 (manual) or between 1s and 1h, got %v", name, d)
		}
	}

	if settings.TargetEquity <= 0 || settings.TargetEquity > common.MaxTargetEq {
		return fmt.Errorf("target equity must be positive, got %f", settings.TargetEquity)
	}
	if settings.DrawdownSoft >= 0 || settings.DrawdownHard >= 0 {
		return fmt.Errorf("drawdown limits must be negative fractions, got soft %f hard %f", settings.DrawdownSoft, settings.DrawdownHard)
	}
	if settings.DrawdownHard > settings.DrawdownSoft {
		return fmt.Errorf("hard drawdown limit %f must not be above soft limit %f", settings.DrawdownHard, settings.DrawdownSoft)
	}

	switch strings.ToLower(settings.LogLevel) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be one of trace, debug, info, warn, error, got %q", settings.LogLevel)
	}

	return nil
}
