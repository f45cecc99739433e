package decomposer

import (
	"context"
	"runtime"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"github.com/bniss/aposynthese/configs"
	"github.com/bniss/aposynthese/pkg/audio"
	"github.com/bniss/aposynthese/pkg/audio/analyzers"
	"github.com/bniss/aposynthese/pkg/logging"
	"github.com/bniss/aposynthese/pkg/notes"
	"github.com/bniss/aposynthese/pkg/piano"
)

// Engine runs the decomposition pipeline: waveform → frames → spectrogram →
// peaks → pitch candidates → tracked note events → emitted frames. Frames are
// independent through the mapping stage and are analyzed in parallel; note
// tracking is sequential in time by construction.
type Engine struct {
	cfg      *configs.Config
	logger   logging.Logger
	debug    bool
	progress func(done, total int)
}

// Option customizes an engine
type Option func(*Engine)

// WithLogger overrides the engine logger
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithDebug captures raw spectrogram slices, unfiltered peaks and the
// chromagram into the result
func WithDebug(debug bool) Option {
	return func(e *Engine) { e.debug = debug }
}

// WithProgress reports per-frame tracking progress
func WithProgress(fn func(done, total int)) Option {
	return func(e *Engine) { e.progress = fn }
}

// NewEngine creates an engine for the given configuration
func NewEngine(cfg *configs.Config, opts ...Option) (*Engine, error) {
	if err := configs.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg: cfg,
		logger: logging.WithFields(logging.Fields{
			"component": "decomposer",
		}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Decompose analyzes a waveform into note events and frame records
func (e *Engine) Decompose(ctx context.Context, wave *audio.Waveform) (*Result, error) {
	if wave == nil || len(wave.Samples) == 0 {
		return nil, &audio.InvalidInputError{Reason: "waveform has zero samples"}
	}

	wave = wave.Truncate(e.cfg.Audio.MaxDuration)

	ac := e.cfg.Analysis
	framer, err := analyzers.NewFramer(wave, ac.WindowSize, ac.HopSize)
	if err != nil {
		return nil, err
	}
	analyzer, err := analyzers.NewSpectralAnalyzer(wave.SampleRate, ac.WindowSize, ac.WindowFunction)
	if err != nil {
		return nil, err
	}

	total := framer.Count()
	e.logger.Info("starting decomposition", logging.Fields{
		"duration":    wave.Seconds(),
		"sample_rate": wave.SampleRate,
		"frames":      total,
		"window_size": ac.WindowSize,
		"hop_size":    ac.HopSize,
	})

	frames := make([]*analyzers.Frame, 0, total)
	for {
		frame, ok := framer.Next()
		if !ok {
			break
		}
		frames = append(frames, frame)
	}

	slices, err := e.analyzeFrames(ctx, analyzer, frames)
	if err != nil {
		return nil, err
	}

	// the debug tap exposes the spectrogram as analyzed, before smoothing
	rawSlices := slices
	if ac.MedianFilterLength > 0 {
		if e.debug {
			rawSlices = cloneSlices(slices)
		}
		analyzers.TemporalMedianFilter(slices, ac.MedianFilterLength)
	}

	rawPeaks, candidates, err := e.extractCandidates(ctx, analyzer, slices)
	if err != nil {
		return nil, err
	}

	tracker := notes.NewNoteTracker(notes.TrackerParams{
		ActivationThreshold: e.cfg.Tracker.ActivationThreshold,
		OnsetRun:            e.cfg.Tracker.OnsetRun,
		ReleaseGrace:        e.cfg.Tracker.ReleaseGrace,
	})
	emitter := notes.NewPianoFrameEmitter(tracker)

	for i, slice := range slices {
		tracker.Advance(slice.Time, candidates[i])
		emitter.Emit(slice.Index, slice.Time)
		if e.progress != nil {
			e.progress(i+1, total)
		}
	}
	tracker.Flush(wave.Seconds())

	events := tracker.Events()
	frameRecords := emitter.Frames()

	result := &Result{
		Metadata: Metadata{
			SampleRate: wave.SampleRate,
			Duration:   wave.Seconds(),
			WindowSize: ac.WindowSize,
			HopSize:    ac.HopSize,
		},
		Frames: frameRecords,
		Events: events,
		Stats:  computeStats(frameRecords, events),
	}
	if e.debug {
		result.Debug = &Debug{
			Slices:     rawSlices,
			RawPeaks:   rawPeaks,
			Chromagram: buildChromagram(candidates),
		}
	}

	e.logger.Info("decomposition complete", logging.Fields{
		"frames": len(frameRecords),
		"events": len(events),
	})
	return result, nil
}

// analyzeFrames computes spectrogram slices with a bounded worker fan-out,
// preserving frame order in the output.
func (e *Engine) analyzeFrames(ctx context.Context, analyzer *analyzers.SpectralAnalyzer, frames []*analyzers.Frame) ([]*analyzers.SpectrogramSlice, error) {
	slices := make([]*analyzers.SpectrogramSlice, len(frames))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, frame := range frames {
		i, frame := i, frame
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slices[i] = analyzer.Analyze(frame)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slices, nil
}

// extractCandidates runs peak extraction and note mapping per frame, also
// with a bounded fan-out. Each frame's resolution is a pure function of its
// own slice.
func (e *Engine) extractCandidates(ctx context.Context, analyzer *analyzers.SpectralAnalyzer, slices []*analyzers.SpectrogramSlice) ([][]analyzers.Peak, []map[int]piano.PitchCandidate, error) {
	ac := e.cfg.Analysis
	extractor := analyzers.NewPeakExtractor(analyzer.BinFrequencies(), analyzers.PeakExtractorParams{
		MagnitudeThreshold: ac.MagnitudeThreshold,
		HarmonicTolerance:  ac.HarmonicTolerance,
		FundamentalRatio:   ac.FundamentalRatio,
		MaxHarmonic:        ac.MaxHarmonic,
		MaxPeaks:           ac.MaxPeaks,
	})
	mapper := piano.NewNoteMapper(ac.CentsPenalty)

	rawPeaks := make([][]analyzers.Peak, len(slices))
	candidates := make([]map[int]piano.PitchCandidate, len(slices))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, slice := range slices {
		i, slice := i, slice
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var peaks []analyzers.Peak
			if e.debug {
				// capture the local maxima before harmonic collapsing
				raw := extractor.Candidates(slice)
				rawPeaks[i] = raw
				peaks = extractor.Collapse(raw)
			} else {
				peaks = extractor.Extract(slice)
			}
			candidates[i] = mapper.MapSlice(peaks)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return rawPeaks, candidates, nil
}

// cloneSlices deep-copies the magnitude data so in-place filtering cannot
// reach the debug snapshot
func cloneSlices(slices []*analyzers.SpectrogramSlice) []*analyzers.SpectrogramSlice {
	out := make([]*analyzers.SpectrogramSlice, len(slices))
	for i, s := range slices {
		mags := make([]float64, len(s.Magnitudes))
		copy(mags, s.Magnitudes)
		out[i] = &analyzers.SpectrogramSlice{Index: s.Index, Time: s.Time, Magnitudes: mags}
	}
	return out
}

func computeStats(frames []notes.FrameRecord, events []notes.NoteEvent) Stats {
	s := Stats{
		FrameCount: len(frames),
		EventCount: len(events),
	}

	if len(events) > 0 {
		durations := make([]float64, len(events))
		for i, ev := range events {
			durations[i] = ev.Duration()
		}
		s.MeanEventDuration, _ = stats.Mean(durations)
		s.MedianEventDuration, _ = stats.Median(durations)
	}

	if len(frames) > 0 {
		active := 0
		for _, f := range frames {
			if len(f.Keys) > 0 {
				active++
			}
		}
		s.ActiveFrameRatio = float64(active) / float64(len(frames))
	}
	return s
}

// buildChromagram lays candidate confidences out as an 88-column matrix per
// frame, the piano-roll analog of a chromagram.
func buildChromagram(candidates []map[int]piano.PitchCandidate) [][]float64 {
	chroma := make([][]float64, len(candidates))
	for i, cands := range candidates {
		row := make([]float64, piano.KeyCount)
		for k, c := range cands {
			row[k-1] = c.Confidence
		}
		chroma[i] = row
	}
	return chroma
}
