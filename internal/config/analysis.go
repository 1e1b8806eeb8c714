package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/routecast/internal/units"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
const DefaultConfigPath = "config/analysis.defaults.json"

// AnalysisConfig holds the parameters of a path analysis. Fields are
// pointers so a partial JSON file only overrides what it names; the Get*
// methods supply defaults for the rest.
type AnalysisConfig struct {
	// Horizon and bucketing, in hours
	ObservationHours *float64 `json:"observation_hours,omitempty"`
	TimeslotHours    *float64 `json:"timeslot_hours,omitempty"`

	// Latency forecast
	RTTMetric *string `json:"rtt_metric,omitempty"` // min, avg, max or mdev

	// Zone TIMESTAMP: values are recorded in
	Timezone *string `json:"timezone,omitempty"`

	// Outputs
	LogDir           *string `json:"log_dir,omitempty"`
	OutputDir        *string `json:"output_dir,omitempty"`
	WriteDiagnostics *bool   `json:"write_diagnostics,omitempty"`
	DBPath           *string `json:"db_path,omitempty"`
	PlotDir          *string `json:"plot_dir,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }

// EmptyAnalysisConfig returns an AnalysisConfig with all fields nil.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// DefaultAnalysisConfig returns a config with every field set to its
// default value.
func DefaultAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		ObservationHours: ptrFloat64(168),
		TimeslotHours:    ptrFloat64(12),
		RTTMetric:        ptrString(units.RTTMin),
		Timezone:         ptrString(units.DefaultLogTimezone),
		LogDir:           ptrString("logs"),
		OutputDir:        ptrString("output"),
		WriteDiagnostics: ptrBool(true),
		DBPath:           ptrString(""),
		PlotDir:          ptrString(""),
	}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file.
// The file must have a .json extension and be at most 1MB.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAnalysisConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the defaults from DefaultConfigPath, searching
// the current directory and its parents. Panics if the file cannot be
// loaded; intended for test setup.
func MustLoadDefaultConfig() *AnalysisConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadAnalysisConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *AnalysisConfig) Validate() error {
	if c.ObservationHours != nil && *c.ObservationHours <= 0 {
		return fmt.Errorf("observation_hours must be > 0, got %v", *c.ObservationHours)
	}
	if c.TimeslotHours != nil && *c.TimeslotHours <= 0 {
		return fmt.Errorf("timeslot_hours must be > 0, got %v", *c.TimeslotHours)
	}
	if c.RTTMetric != nil && !units.IsValidRTTMetric(*c.RTTMetric) {
		return fmt.Errorf("rtt_metric must be one of %s, got %q", units.GetValidRTTMetricsString(), *c.RTTMetric)
	}
	if c.Timezone != nil && *c.Timezone != "" && !units.IsTimezoneValid(*c.Timezone) {
		return fmt.Errorf("invalid timezone %q", *c.Timezone)
	}
	return nil
}

// GetObservationHours returns the observation horizon or the default.
func (c *AnalysisConfig) GetObservationHours() float64 {
	if c.ObservationHours == nil {
		return 168
	}
	return *c.ObservationHours
}

// GetTimeslotHours returns the timeslot width or the default.
func (c *AnalysisConfig) GetTimeslotHours() float64 {
	if c.TimeslotHours == nil {
		return 12
	}
	return *c.TimeslotHours
}

// GetRTTMetric returns the RTT metric or the default.
func (c *AnalysisConfig) GetRTTMetric() string {
	if c.RTTMetric == nil || *c.RTTMetric == "" {
		return units.RTTMin
	}
	return *c.RTTMetric
}

// GetTimezone returns the log timezone or the default.
func (c *AnalysisConfig) GetTimezone() string {
	if c.Timezone == nil || *c.Timezone == "" {
		return units.DefaultLogTimezone
	}
	return *c.Timezone
}

// GetLogDir returns the diagnostic log directory or the default.
func (c *AnalysisConfig) GetLogDir() string {
	if c.LogDir == nil || *c.LogDir == "" {
		return "logs"
	}
	return *c.LogDir
}

// GetOutputDir returns the prediction output directory or the default.
func (c *AnalysisConfig) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return "output"
	}
	return *c.OutputDir
}

// GetWriteDiagnostics returns whether diagnostic feature logs are written.
func (c *AnalysisConfig) GetWriteDiagnostics() bool {
	if c.WriteDiagnostics == nil {
		return true
	}
	return *c.WriteDiagnostics
}

// GetDBPath returns the results database path; empty disables persistence.
func (c *AnalysisConfig) GetDBPath() string {
	if c.DBPath == nil {
		return ""
	}
	return *c.DBPath
}

// GetPlotDir returns the plot output directory; empty disables plots.
func (c *AnalysisConfig) GetPlotDir() string {
	if c.PlotDir == nil {
		return ""
	}
	return *c.PlotDir
}

// SetObservationHours overrides the observation horizon.
func (c *AnalysisConfig) SetObservationHours(h float64) { c.ObservationHours = ptrFloat64(h) }

// SetTimeslotHours overrides the timeslot width.
func (c *AnalysisConfig) SetTimeslotHours(h float64) { c.TimeslotHours = ptrFloat64(h) }

// SetDBPath overrides the results database path.
func (c *AnalysisConfig) SetDBPath(p string) { c.DBPath = ptrString(p) }

// SetPlotDir sets the report directory; empty disables reports.
func (c *AnalysisConfig) SetPlotDir(p string) { c.PlotDir = ptrString(p) }

// SetRTTMetric sets the RTT statistic used for latency features.
func (c *AnalysisConfig) SetRTTMetric(m string) { c.RTTMetric = ptrString(m) }
