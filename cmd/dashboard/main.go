package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quantum-dashboard/internal/backend"
	"quantum-dashboard/internal/cfg"
	"quantum-dashboard/internal/charts"
	"quantum-dashboard/internal/common"
	"quantum-dashboard/internal/dashboard"
	"quantum-dashboard/internal/feed"
	"quantum-dashboard/internal/metrics"
	"quantum-dashboard/internal/orders"
	"quantum-dashboard/internal/termui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli"
)

const tuiLogFile = "dashboard-tui.log"

func main() {
	app := cli.NewApp()
	app.Name = "dashboard"
	app.Usage = "Monitoring dashboard for the quantum trading system"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config",
			Usage:  "path to the YAML configuration file",
			EnvVar: common.EnvConfigFile,
		},
	}
	app.Action = serveAction

	app.Commands = []cli.Command{
		serveCMD,
		tuiCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	serveCMD = cli.Command{
		Name:        "serve",
		Usage:       "run the web dashboard",
		Action:      serveAction,
		Description: `Serve the dashboard page, widget fragments and the update WebSocket`,
	}
	tuiCMD = cli.Command{
		Name:        "tui",
		Usage:       "run the terminal dashboard",
		Action:      tuiAction,
		Description: `Render the dashboard widgets in the terminal`,
	}
)

// components are shared by both front-ends
type components struct {
	settings cfg.Settings
	client   *backend.Client
	metrics  *metrics.Metrics
	wrapper  *metrics.MetricsWrapper
	hub      *feed.Hub
	orders   *orders.Manager
}

func loadSettings(c *cli.Context) cfg.Settings {
	path := c.GlobalString("config")
	if path == "" {
		path = c.String("config")
	}
	if path != "" {
		if err := os.Setenv(common.EnvConfigFile, path); err != nil {
			log.Fatal().Err(err).Msg("failed to set config path")
		}
	}

	settings, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	level, err := zerolog.ParseLevel(settings.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Str("level", settings.LogLevel).Msg("invalid log level")
	}
	zerolog.SetGlobalLevel(level)
	return settings
}

func newComponents(settings cfg.Settings) *components {
	a := &components{settings: settings}
	a.client = backend.NewClient(settings.APIBaseURL)
	a.metrics = metrics.New()
	a.wrapper = metrics.NewWrapper(a.metrics)
	a.hub = feed.NewHub(a.client, settings.Refresh, settings.RESTTimeout, a.wrapper)
	a.orders = orders.NewManager(a.client, a.hub, common.DefaultActionLogSize)
	a.orders.SetMetrics(a.wrapper)

	a.hub.LiveStatus.OnUpdate(func(string) {
		if res := a.hub.LiveStatus.Snapshot(); res.Loaded {
			a.metrics.UpdateLiveStatus(res.Value)
		}
	})
	return a
}

func serveAction(c *cli.Context) error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	settings := loadSettings(c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := newComponents(settings)
	startMetricsServer(ctx, settings, a.metrics)

	orchestrator := charts.NewOrchestrator(a.hub.Performance.Snapshot, a.client.GetPerformanceMetrics,
		settings.RESTTimeout, charts.Options{
			TargetEquity: settings.TargetEquity,
			SoftLimit:    settings.DrawdownSoft,
			HardLimit:    settings.DrawdownHard,
		})

	srv, err := dashboard.NewServer(a.hub, a.orders, orchestrator, a.wrapper, settings.DashboardPort, settings.RESTTimeout)
	if err != nil {
		return fmt.Errorf("create dashboard: %w", err)
	}

	if err := a.hub.Start(ctx); err != nil {
		return fmt.Errorf("start subscriptions: %w", err)
	}
	if err := srv.Start(); err != nil {
		return fmt.Errorf("start dashboard: %w", err)
	}

	log.Info().
		Str("api", settings.APIBaseURL).
		Int("port", settings.DashboardPort).
		Msg("Dashboard running")

	waitForShutdown(ctx, cancel)

	if err := srv.Stop(); err != nil {
		log.Error().Err(err).Msg("dashboard shutdown failed")
	}
	a.hub.Stop()
	return nil
}

func tuiAction(c *cli.Context) error {
	// the terminal belongs to the UI; logs go to a file
	f, err := os.OpenFile(tuiLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	log.Logger = zerolog.New(f).With().Timestamp().Logger()

	settings := loadSettings(c)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newComponents(settings)
	startMetricsServer(ctx, settings, a.metrics)

	program := termui.NewProgram(ctx, a.hub, a.orders, settings.RESTTimeout, tea.WithAltScreen())

	if err := a.hub.Start(ctx); err != nil {
		return fmt.Errorf("start subscriptions: %w", err)
	}
	defer a.hub.Stop()

	return termui.Run(ctx, program)
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(ctx context.Context, c cfg.Settings, m *metrics.Metrics) {
	go func() {
		mux := http.NewServeMux()

		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = fmt.Fprintf(w, "OK fetch_error_rate=%.3f\n", m.GetFetchErrorRate())
		})
		mux.Handle("/metrics", promhttp.Handler())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", c.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("failed to shutdown metrics server")
			}
		}()

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// waitForShutdown waits for shutdown signals
func waitForShutdown(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	log.Info().Msg("shutting down gracefully...")
	cancel()
}
