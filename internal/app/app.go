package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"gopkg.in/yaml.v3"

	"github.com/bniss/aposynthese/configs"
	"github.com/bniss/aposynthese/internal/cache"
	"github.com/bniss/aposynthese/internal/decomposer"
	"github.com/bniss/aposynthese/internal/transcode"
	"github.com/bniss/aposynthese/pkg/export"
	"github.com/bniss/aposynthese/pkg/logging"
)

// DecomposerApp wires decoding, caching, the analysis engine and the output
// writers together for one CLI invocation.
type DecomposerApp struct {
	ctx    *Context
	config *configs.Config
	logger logging.Logger
}

// NewDecomposerApp loads configuration and prepares the application
func NewDecomposerApp(ctx *Context) (*DecomposerApp, error) {
	config, err := loadConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	ctx.Config = config

	logger := setupLogging(ctx)
	ctx.Logger = logger

	logger.Debug("application initialized", logging.Fields{
		"input":         ctx.Input,
		"output_format": config.OutputFormat,
		"window_size":   config.Analysis.WindowSize,
		"hop_size":      config.Analysis.HopSize,
	})

	return &DecomposerApp{ctx: ctx, config: config, logger: logger}, nil
}

// Run executes the full decomposition for the configured input
func (a *DecomposerApp) Run(ctx context.Context) error {
	result, err := a.decompose(ctx)
	if err != nil {
		return err
	}

	if meta, err := transcode.ReadMetadata(a.ctx.Input); err == nil {
		result.SetTrackMetadata(meta)
	} else {
		a.logger.Debug("no readable container tags", logging.Fields{"error": err.Error()})
	}
	result.Metadata.Source = a.ctx.Input

	if err := a.writeResult(result); err != nil {
		return err
	}

	if a.ctx.MIDIFile != "" {
		if err := export.WriteMIDI(a.ctx.MIDIFile, result.Events); err != nil {
			return fmt.Errorf("MIDI export: %w", err)
		}
		a.logger.Info("wrote MIDI export", logging.Fields{
			"path":   a.ctx.MIDIFile,
			"events": len(result.Events),
		})
	}
	return nil
}

// decompose runs the engine, consulting the result cache first
func (a *DecomposerApp) decompose(ctx context.Context) (*decomposer.Result, error) {
	var (
		store *cache.Store
		key   uint64
	)

	if !a.ctx.NoCache {
		cfgBytes, err := json.Marshal(a.config.Analysis)
		if err == nil {
			key, err = cache.Fingerprint(a.ctx.Input, cfgBytes)
		}
		if err != nil {
			return nil, fmt.Errorf("fingerprinting input: %w", err)
		}

		store, err = cache.Open(a.config.CacheDir)
		if err != nil {
			a.logger.Warn("cache unavailable, analyzing without it", logging.Fields{
				"dir":   a.config.CacheDir,
				"error": err.Error(),
			})
		} else {
			defer store.Close()
			if payload, found, err := store.Get(key); err == nil && found {
				var cached decomposer.Result
				if err := json.Unmarshal(payload, &cached); err == nil {
					a.logger.Info("result served from cache", logging.Fields{"key": key})
					return &cached, nil
				}
			}
		}
	}

	wave, err := transcode.NewDecoder(a.config.Audio.SampleRate).Decode(ctx, a.ctx.Input)
	if err != nil {
		return nil, err
	}

	opts := []decomposer.Option{
		decomposer.WithDebug(a.config.Output.IncludeDebug),
	}
	if !a.ctx.NoProgress {
		progress := mpb.New(mpb.WithWidth(64))
		var bar *mpb.Bar
		opts = append(opts, decomposer.WithProgress(func(done, total int) {
			if bar == nil {
				bar = progress.AddBar(int64(total),
					mpb.PrependDecorators(
						decor.Name("Decomposing: "),
						decor.CountersNoUnit("%d / %d"),
					),
					mpb.AppendDecorators(decor.Percentage()),
				)
			}
			bar.Increment()
		}))
		defer progress.Wait()
	}

	engine, err := decomposer.NewEngine(a.config, opts...)
	if err != nil {
		return nil, err
	}

	result, err := engine.Decompose(ctx, wave)
	if err != nil {
		return nil, err
	}

	if store != nil {
		if payload, err := json.Marshal(result); err == nil {
			if err := store.Set(key, payload); err != nil {
				a.logger.Warn("failed to cache result", logging.Fields{"error": err.Error()})
			}
		}
	}
	return result, nil
}

// writeResult encodes the result as JSON or YAML to the output file or stdout
func (a *DecomposerApp) writeResult(result *decomposer.Result) error {
	var out io.Writer = os.Stdout
	if a.ctx.OutputFile != "" {
		f, err := os.Create(a.ctx.OutputFile)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch a.config.OutputFormat {
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(result)
	case "", "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	default:
		return fmt.Errorf("unsupported output format: %s", a.config.OutputFormat)
	}
}
