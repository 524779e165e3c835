package common

// Backend resources, also used as subscription and metric label names
const (
	ResourceLiveStatus   = "live_status"
	ResourceTradeHistory = "trade_history"
	ResourceSignals      = "quantum_signals"
	ResourcePerformance  = "performance_metrics"
)

// Backend endpoint paths
const (
	PathLiveStatus   = "/api/live_status"
	PathTradeHistory = "/api/trade_history"
	PathSignals      = "/api/quantum_signals"
	PathPerformance  = "/api/performance_metrics"
	PathOrder        = "/api/order"
	PathOrderModify  = "/api/order/modify"
	PathOrderClose   = "/api/order/close"
)

// Order actions, used as metric labels and in the action log
const (
	ActionSend   = "send"
	ActionModify = "modify"
	ActionClose  = "close"
)

// Chart types selectable from the filter control
const (
	ChartEquity      = "equity"
	ChartDrawdown    = "drawdown"
	ChartPL          = "pl"
	ChartPerformance = "performance"
)

// Environment variable keys
const (
	EnvConfigFile          = "CONFIG_FILE"
	EnvAPIBaseURL          = "API_BASE_URL"
	EnvDashboardPort       = "DASHBOARD_PORT"
	EnvMetricsPort         = "METRICS_PORT"
	EnvRESTTimeout         = "REST_TIMEOUT"
	EnvLiveStatusRefresh   = "LIVE_STATUS_REFRESH"
	EnvTradeHistoryRefresh = "TRADE_HISTORY_REFRESH"
	EnvSignalsRefresh      = "SIGNALS_REFRESH"
	EnvPerformanceRefresh  = "PERFORMANCE_REFRESH"
	EnvTargetEquity        = "TARGET_EQUITY"
	EnvLogLevel            = "LOG_LEVEL"
)

// Configuration defaults
const (
	DefaultAPIBaseURL          = "http://localhost:5000"
	DefaultDashboardPort       = 8090
	DefaultMetricsPort         = 8080
	DefaultTargetEquity        = 10000.0
	DefaultDrawdownSoftLimit   = -0.05
	DefaultDrawdownHardLimit   = -0.10
	DefaultLogLevel            = "info"
	DefaultActionLogSize       = 50
	DefaultDrawdownDomainFloor = -0.2
)

// Validation constants
const (
	MinPort       = 1024
	MaxPort       = 65535
	MinRefresh    = 1 // seconds, when refresh is enabled
	MaxRefresh    = 3600
	MaxTargetEq   = 1e12
	MinTimeoutSec = 1
	MaxTimeoutSec = 60
)
