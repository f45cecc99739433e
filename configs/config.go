package configs

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose" json:"verbose"`
	LogLevel     string `mapstructure:"log_level" json:"log_level"`
	OutputFormat string `mapstructure:"output_format" json:"output_format"`
	CacheDir     string `mapstructure:"cache_dir" json:"cache_dir"`

	// Audio input configuration
	Audio AudioConfig `mapstructure:"audio" json:"audio"`

	// Spectral analysis configuration
	Analysis AnalysisConfig `mapstructure:"analysis" json:"analysis"`

	// Note tracking configuration
	Tracker TrackerConfig `mapstructure:"tracker" json:"tracker"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" json:"output"`
}

// AudioConfig contains decoding and truncation settings
type AudioConfig struct {
	SampleRate  int           `mapstructure:"sample_rate" json:"sample_rate"`
	MaxDuration time.Duration `mapstructure:"max_duration" json:"max_duration"`
}

// AnalysisConfig contains the time-frequency decomposition settings. Window
// and hop size set the frequency/temporal resolution trade-off of the whole
// pipeline.
type AnalysisConfig struct {
	WindowSize         int     `mapstructure:"window_size" json:"window_size"`
	HopSize            int     `mapstructure:"hop_size" json:"hop_size"`
	WindowFunction     string  `mapstructure:"window_function" json:"window_function"`
	MagnitudeThreshold float64 `mapstructure:"magnitude_threshold" json:"magnitude_threshold"`
	HarmonicTolerance  float64 `mapstructure:"harmonic_tolerance" json:"harmonic_tolerance"`
	FundamentalRatio   float64 `mapstructure:"fundamental_ratio" json:"fundamental_ratio"`
	MaxHarmonic        int     `mapstructure:"max_harmonic" json:"max_harmonic"`
	MaxPeaks           int     `mapstructure:"max_peaks" json:"max_peaks"`
	MedianFilterLength int     `mapstructure:"median_filter_length" json:"median_filter_length"`
	CentsPenalty       float64 `mapstructure:"cents_penalty" json:"cents_penalty"`
}

// TrackerConfig contains the note state machine hysteresis settings
type TrackerConfig struct {
	ActivationThreshold float64 `mapstructure:"activation_threshold" json:"activation_threshold"`
	OnsetRun            int     `mapstructure:"onset_run" json:"onset_run"`
	ReleaseGrace        int     `mapstructure:"release_grace" json:"release_grace"`
}

// OutputConfig contains output formatting settings
type OutputConfig struct {
	Precision    int  `mapstructure:"precision" json:"precision"`
	IncludeDebug bool `mapstructure:"include_debug" json:"include_debug"`
}

// LoadConfig loads configuration from viper
func LoadConfig() (*Config, error) {
	config := &Config{}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if config.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio sample rate must be positive")
	}

	if config.Audio.MaxDuration < 0 {
		return fmt.Errorf("max duration cannot be negative")
	}

	if config.Analysis.WindowSize <= 0 {
		return fmt.Errorf("analysis window size must be positive")
	}

	if config.Analysis.HopSize <= 0 || config.Analysis.HopSize > config.Analysis.WindowSize {
		return fmt.Errorf("analysis hop size must be in (0, window_size]")
	}

	if config.Analysis.MagnitudeThreshold < 0 || config.Analysis.MagnitudeThreshold > 1 {
		return fmt.Errorf("magnitude threshold must be between 0 and 1")
	}

	if config.Analysis.HarmonicTolerance < 0 || config.Analysis.HarmonicTolerance > 0.5 {
		return fmt.Errorf("harmonic tolerance must be between 0 and 0.5")
	}

	if config.Tracker.ActivationThreshold < 0 || config.Tracker.ActivationThreshold > 1 {
		return fmt.Errorf("activation threshold must be between 0 and 1")
	}

	if config.Tracker.OnsetRun < 1 {
		return fmt.Errorf("onset run must be at least 1 frame")
	}

	if config.Tracker.ReleaseGrace < 1 {
		return fmt.Errorf("release grace must be at least 1 frame")
	}

	return nil
}
