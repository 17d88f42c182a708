package config

import "time"

// Application info.
const (
	AppName    = "Inventory RL Dashboard"
	AppVersion = "1.0.0"
)

// Defaults shared by Default and the struct tags' documentation.
const (
	DefaultPort            = 8080
	DefaultDataDir         = "app_data"
	DefaultLogsDir         = "logs"
	DefaultReportsDir      = "reports"
	DefaultConfigFile      = "config.yaml"
	DefaultRequestTimeout  = 60 * time.Second
	DefaultCacheSize       = 64
	DefaultRateLimitRPS    = 100
	DefaultRateLimitBurst  = 50
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 30 * time.Second
)

// API paths.
const (
	APIBasePath       = "/api"
	DashboardEndpoint = "/api/dashboard"
	HealthEndpoint    = "/api/health"
	MetricsEndpoint   = "/metrics"
)

// ConfigFileEnv names the variable that points at a YAML config file.
const ConfigFileEnv = "INVDASH_CONFIG"

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "INVDASH"
