// Package config holds run settings and builds the logger from them
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/anggasct/mavmon/pkg/utils"
)

// Defaults
const (
	DefaultTickRate            = 1
	DefaultDayLength     int64 = 86400
	DefaultCrossingTicks       = 1
	DefaultThreshold           = 4
)

// Fault modes
const (
	FaultAbort    = "abort"
	FaultGraceful = "graceful"
)

// LogConfig selects the logger level and output format
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Timestamps bool   `yaml:"timestamps"`
}

// Config holds everything a run needs besides the schedule
type Config struct {
	TickRate            int       `yaml:"tick_rate"`
	DayLength           int64     `yaml:"day_length"`
	CrossingTicks       int       `yaml:"crossing_ticks"`
	StarvationThreshold int       `yaml:"starvation_threshold"`
	FaultMode           string    `yaml:"fault_mode"`
	Summary             bool      `yaml:"summary"`
	CheckInvariants     bool      `yaml:"validate"`
	Log                 LogConfig `yaml:"log"`
}

// Default returns the settings of a plain run
func Default() Config {
	return Config{
		TickRate:            DefaultTickRate,
		DayLength:           DefaultDayLength,
		CrossingTicks:       DefaultCrossingTicks,
		StarvationThreshold: DefaultThreshold,
		FaultMode:           FaultAbort,
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, utils.NewConfigError(path, "cannot read file").WithCause(err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, utils.NewConfigError(path, "cannot parse file").WithCause(err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks every field and returns the first problem found
func (c Config) Validate() error {
	if c.TickRate < 1 {
		return utils.NewConfigError("tick_rate", "must be positive")
	}
	if c.DayLength < 1 {
		return utils.NewConfigError("day_length", "must be positive")
	}
	if c.CrossingTicks < 1 {
		return utils.NewConfigError("crossing_ticks", "must be at least 1")
	}
	if c.StarvationThreshold < 1 {
		return utils.NewConfigError("starvation_threshold", "must be at least 1")
	}
	switch c.FaultMode {
	case FaultAbort, FaultGraceful:
	default:
		return utils.NewConfigError("fault_mode", "must be abort or graceful")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return utils.NewConfigError("log.level", "unknown level").WithCause(err)
	}
	if _, err := c.formatter(); err != nil {
		return err
	}
	return nil
}

func (c Config) formatter() (log.Formatter, error) {
	switch strings.ToLower(c.Log.Format) {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	default:
		return 0, utils.NewConfigError("log.format", "must be text, json or logfmt")
	}
}

// NewLogger builds the run logger writing to w
func (c Config) NewLogger(w io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, utils.NewConfigError("log.level", "unknown level").WithCause(err)
	}
	formatter, err := c.formatter()
	if err != nil {
		return nil, err
	}

	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: c.Log.Timestamps,
	}), nil
}
