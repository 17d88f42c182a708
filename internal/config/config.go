package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"invdash/internal/frame"
	"invdash/internal/selection"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
}

// PipelineConfig holds the selection pipeline knobs.
type PipelineConfig struct {
	TimeCutoff       int    `yaml:"time_cutoff" envconfig:"TIME_CUTOFF"`
	DivisionPolicy   string `yaml:"division_policy" envconfig:"DIVISION_POLICY"`
	Rounding         string `yaml:"rounding" envconfig:"ROUNDING"`
	SmoothingWindow  int    `yaml:"smoothing_window" envconfig:"SMOOTHING_WINDOW"`
	Schema           string `yaml:"schema" envconfig:"SCHEMA"`
	DeriveRatio      bool   `yaml:"derive_ratio" envconfig:"DERIVE_RATIO"`
	TimingSheet      string `yaml:"timing_sheet" envconfig:"TIMING_SHEET"`
	CacheSize        int    `yaml:"cache_size" envconfig:"CACHE_SIZE"`
	DefaultOrderType string `yaml:"default_order_type" envconfig:"DEFAULT_ORDER_TYPE"`
}

// TelemetryConfig selects the OpenTelemetry exporters.
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	EnableTracing  bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	EnableMetrics  bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER"`
}

// Load builds the configuration from defaults, the YAML file named by
// INVDASH_CONFIG (or found in a default location) and INVDASH_*
// environment variables, in increasing precedence.
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile is Load with an explicit config file. An empty path skips the
// file.
func LoadFile(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Unset variables leave the field alone since no tag carries a default.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file on cfg. Keys absent from the file keep
// their current value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Selection converts the pipeline section into the pipeline's own config.
func (c *Config) Selection() (selection.Config, error) {
	division, err := frame.ParseDivisionPolicy(c.Pipeline.DivisionPolicy)
	if err != nil {
		return selection.Config{}, err
	}
	rounding, err := frame.ParseRounding(c.Pipeline.Rounding)
	if err != nil {
		return selection.Config{}, err
	}
	schema, err := selection.ParseSchema(c.Pipeline.Schema)
	if err != nil {
		return selection.Config{}, err
	}
	sc := selection.Config{
		DataDir:         c.Paths.DataDir,
		TimeCutoff:      c.Pipeline.TimeCutoff,
		Division:        division,
		Rounding:        rounding,
		SmoothingWindow: c.Pipeline.SmoothingWindow,
		Schema:          schema,
		DeriveRatio:     c.Pipeline.DeriveRatio,
		TimingSheet:     c.Pipeline.TimingSheet,
	}
	return sc, sc.Validate()
}

// OrderType returns the order type used when a request names none.
func (c *Config) OrderType() selection.OrderType {
	return selection.OrderType(c.Pipeline.DefaultOrderType)
}

// validate validates the configuration
func (c *Config) validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port: %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, errors.New("server read timeout must be positive"))
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server write timeout must be positive"))
	}
	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("at least one allowed origin must be specified"))
	}
	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("rate limit rps and burst must be positive"))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}
	if c.Paths.DataDir == "" {
		errs = append(errs, errors.New("data directory is required"))
	}
	if c.Pipeline.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("cache size must be positive, got %d", c.Pipeline.CacheSize))
	}
	if _, err := selection.ParseOrderType(c.Pipeline.DefaultOrderType); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Selection(); err != nil {
		errs = append(errs, err)
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("sample ratio must be within [0,1], got %g", c.Telemetry.SampleRatio))
	}

	if c.Logging.Output != "both" && c.Logging.Output != "file" && c.Logging.Output != "console" {
		c.Logging.Output = "console"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = filepath.Join(c.Paths.LogsDir, "app.log")
	}
	return errors.Join(errs...)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if p := os.Getenv(ConfigFileEnv); p != "" {
		return p
	}
	for _, location := range []string{DefaultConfigFile, filepath.Join("configs", DefaultConfigFile)} {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    DefaultRequestTimeout + 15*time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: DefaultShutdownTimeout,
			RequestTimeout:  DefaultRequestTimeout,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimitRPS,
				Burst:   DefaultRateLimitBurst,
			},
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Output:   "console",
			FilePath: filepath.Join(DefaultLogsDir, "app.log"),
		},
		Paths: PathsConfig{
			DataDir:    DefaultDataDir,
			LogsDir:    DefaultLogsDir,
			ReportsDir: DefaultReportsDir,
		},
		Pipeline: PipelineConfig{
			TimeCutoff:       selection.DefaultTimeCutoff,
			DivisionPolicy:   string(frame.DivideNaN),
			Rounding:         string(frame.RoundHalfEven),
			SmoothingWindow:  selection.DefaultSmoothingWindow,
			Schema:           string(selection.SchemaFull),
			DeriveRatio:      true,
			TimingSheet:      selection.DefaultTimingSheet,
			CacheSize:        DefaultCacheSize,
			DefaultOrderType: string(selection.OrderUpToLevelEq),
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			EnableTracing:  false,
			EnableMetrics:  true,
			TraceExporter:  "stdout",
			SampleRatio:    1.0,
			MetricExporter: "prometheus",
		},
	}
}
