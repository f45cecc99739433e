package decomposer

import (
	"github.com/bniss/aposynthese/internal/transcode"
	"github.com/bniss/aposynthese/pkg/audio/analyzers"
	"github.com/bniss/aposynthese/pkg/notes"
)

// Result is the full output of one decomposition run: the frame-aligned
// active-key sequence for the rendering collaborator plus the finalized note
// events for offline consumers.
type Result struct {
	Metadata Metadata            `json:"metadata" yaml:"metadata"`
	Frames   []notes.FrameRecord `json:"frames" yaml:"frames"`
	Events   []notes.NoteEvent   `json:"events" yaml:"events"`
	Stats    Stats               `json:"stats" yaml:"stats"`
	Debug    *Debug              `json:"debug,omitempty" yaml:"debug,omitempty"`
}

// Metadata describes the analyzed signal and the configuration used
type Metadata struct {
	Source     string  `json:"source,omitempty" yaml:"source,omitempty"`
	Title      string  `json:"title,omitempty" yaml:"title,omitempty"`
	Artist     string  `json:"artist,omitempty" yaml:"artist,omitempty"`
	SampleRate int     `json:"sample_rate" yaml:"sample_rate"`
	Duration   float64 `json:"duration" yaml:"duration"`
	WindowSize int     `json:"window_size" yaml:"window_size"`
	HopSize    int     `json:"hop_size" yaml:"hop_size"`
}

// Stats summarizes a run
type Stats struct {
	FrameCount          int     `json:"frame_count" yaml:"frame_count"`
	EventCount          int     `json:"event_count" yaml:"event_count"`
	MeanEventDuration   float64 `json:"mean_event_duration" yaml:"mean_event_duration"`
	MedianEventDuration float64 `json:"median_event_duration" yaml:"median_event_duration"`
	ActiveFrameRatio    float64 `json:"active_frame_ratio" yaml:"active_frame_ratio"`
}

// Debug exposes the raw spectrogram slices, unfiltered peak lists and the
// 88-row chromagram for external plotting. Capturing it never alters pipeline
// state or timing.
type Debug struct {
	Slices     []*analyzers.SpectrogramSlice `json:"slices" yaml:"slices"`
	RawPeaks   [][]analyzers.Peak            `json:"raw_peaks" yaml:"raw_peaks"`
	Chromagram [][]float64                   `json:"chromagram" yaml:"chromagram"`
}

// SetTrackMetadata merges container tags into the result metadata
func (r *Result) SetTrackMetadata(meta *transcode.TrackMetadata) {
	if meta == nil {
		return
	}
	r.Metadata.Title = meta.Title
	r.Metadata.Artist = meta.Artist
}
