package app

import (
	"fmt"
	"time"

	"github.com/bniss/aposynthese/configs"
	"github.com/bniss/aposynthese/pkg/logging"
)

// Context holds the CLI arguments and runtime state for one invocation
type Context struct {
	// CLI arguments
	Input        string
	OutputFile   string
	OutputFormat string
	MIDIFile     string
	MaxTime      time.Duration
	NoCache      bool
	Debug        bool
	NoProgress   bool
	Verbose      bool

	// Runtime context
	Logger logging.Logger
	Config *configs.Config
}

// setupLogging configures the package-level logger from the loaded config
func setupLogging(ctx *Context) logging.Logger {
	level := ctx.Config.LogLevel
	if ctx.Verbose || ctx.Config.Verbose {
		level = "debug"
	}
	logging.Configure(level)
	return logging.WithFields(logging.Fields{"component": "app"})
}

// loadConfig loads and validates the viper-backed configuration, applying
// CLI overrides that bypass the flag binding.
func loadConfig(ctx *Context) (*configs.Config, error) {
	config, err := configs.LoadConfig()
	if err != nil {
		return nil, err
	}

	if ctx.MaxTime > 0 {
		config.Audio.MaxDuration = ctx.MaxTime
	}
	if ctx.OutputFormat != "" {
		config.OutputFormat = ctx.OutputFormat
	}
	if ctx.Debug {
		config.Output.IncludeDebug = true
	}

	if err := configs.ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}
