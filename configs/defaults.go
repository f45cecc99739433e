package configs

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// SetDefaults registers the default configuration values with viper
func SetDefaults() {
	// Application defaults
	viper.SetDefault("verbose", false)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("output_format", "json")

	home, _ := os.UserHomeDir()
	viper.SetDefault("cache_dir", filepath.Join(home, ".cache", "aposynthese"))

	// Audio defaults
	viper.SetDefault("audio.sample_rate", 44100)
	viper.SetDefault("audio.max_duration", "0s")

	// Analysis defaults. The 4096/1024 window-hop pair favors frequency
	// resolution (~10.8 Hz bins at 44.1 kHz) while keeping ~23 ms hops.
	viper.SetDefault("analysis.window_size", 4096)
	viper.SetDefault("analysis.hop_size", 1024)
	viper.SetDefault("analysis.window_function", "hann")
	viper.SetDefault("analysis.magnitude_threshold", 0.1)
	viper.SetDefault("analysis.harmonic_tolerance", 0.015)
	viper.SetDefault("analysis.fundamental_ratio", 0.5)
	viper.SetDefault("analysis.max_harmonic", 6)
	viper.SetDefault("analysis.max_peaks", 8)
	viper.SetDefault("analysis.median_filter_length", 0)
	viper.SetDefault("analysis.cents_penalty", 0.5)

	// Tracker defaults
	viper.SetDefault("tracker.activation_threshold", 0.5)
	viper.SetDefault("tracker.onset_run", 2)
	viper.SetDefault("tracker.release_grace", 3)

	// Output defaults
	viper.SetDefault("output.precision", 3)
	viper.SetDefault("output.include_debug", false)
}

// DefaultConfig returns a Config populated with the defaults only, without
// touching the process-wide viper state. Used by tests and library callers.
func DefaultConfig() *Config {
	return &Config{
		Verbose:      false,
		LogLevel:     "info",
		OutputFormat: "json",
		Audio: AudioConfig{
			SampleRate: 44100,
		},
		Analysis: AnalysisConfig{
			WindowSize:         4096,
			HopSize:            1024,
			WindowFunction:     "hann",
			MagnitudeThreshold: 0.1,
			HarmonicTolerance:  0.015,
			FundamentalRatio:   0.5,
			MaxHarmonic:        6,
			MaxPeaks:           8,
			MedianFilterLength: 0,
			CentsPenalty:       0.5,
		},
		Tracker: TrackerConfig{
			ActivationThreshold: 0.5,
			OnsetRun:            2,
			ReleaseGrace:        3,
		},
		Output: OutputConfig{
			Precision: 3,
		},
	}
}
