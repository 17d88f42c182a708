package selection

import (
	"errors"
	"fmt"

	"invdash/internal/frame"
)

// Pipeline defaults.
const (
	DefaultTimeCutoff      = 40
	DefaultSmoothingWindow = 3
	DefaultTimingSheet     = "time-taken"
)

// Config holds the pipeline knobs. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	DataDir         string
	TimeCutoff      int
	Division        frame.DivisionPolicy
	Rounding        frame.Rounding
	SmoothingWindow int
	Schema          Schema
	// DeriveRatio adds the order-to-demand ratio to state sheets carrying
	// both Order and Demand.
	DeriveRatio bool
	TimingSheet string
}

// DefaultConfig returns the configuration matching the published charts.
func DefaultConfig(dataDir string) Config {
	return Config{
		DataDir:         dataDir,
		TimeCutoff:      DefaultTimeCutoff,
		Division:        frame.DivideNaN,
		Rounding:        frame.RoundHalfEven,
		SmoothingWindow: DefaultSmoothingWindow,
		Schema:          SchemaFull,
		DeriveRatio:     true,
		TimingSheet:     DefaultTimingSheet,
	}
}

// Validate checks every field.
func (c Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data directory is required"))
	}
	if c.TimeCutoff < 0 {
		errs = append(errs, fmt.Errorf("time cutoff must not be negative, got %d", c.TimeCutoff))
	}
	if c.SmoothingWindow < 1 {
		errs = append(errs, fmt.Errorf("smoothing window must be at least 1, got %d", c.SmoothingWindow))
	}
	if _, err := frame.ParseDivisionPolicy(string(c.Division)); err != nil {
		errs = append(errs, err)
	}
	if _, err := frame.ParseRounding(string(c.Rounding)); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseSchema(string(c.Schema)); err != nil {
		errs = append(errs, err)
	}
	if c.TimingSheet == "" {
		errs = append(errs, errors.New("timing sheet name is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid pipeline config: %w", errors.Join(errs...))
	}
	return nil
}
