package transcode

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"os/exec"
	"strconv"

	"github.com/bniss/aposynthese/pkg/audio"
	"github.com/bniss/aposynthese/pkg/logging"
)

// Decoder converts compressed containers (mp3, m4a, ...) to mono PCM by
// shelling out to ffmpeg. Container decoding is an external collaborator of
// the analysis pipeline; the waveform it returns is fully materialized before
// analysis begins.
type Decoder struct {
	ffmpegBin  string
	ffprobeBin string
	sampleRate int
	logger     logging.Logger
}

// ProbeInfo is the subset of ffprobe output the pipeline cares about
type ProbeInfo struct {
	FormatName string  `json:"format_name"`
	Duration   float64 `json:"duration"`
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
}

// NewDecoder creates a decoder that resamples to the given rate
func NewDecoder(sampleRate int) *Decoder {
	return &Decoder{
		ffmpegBin:  "ffmpeg",
		ffprobeBin: "ffprobe",
		sampleRate: sampleRate,
		logger: logging.WithFields(logging.Fields{
			"component":   "transcode",
			"sample_rate": sampleRate,
		}),
	}
}

// Decode renders the file as signed 16-bit little-endian mono PCM at the
// decoder's sample rate and converts it to a normalized waveform.
func (d *Decoder) Decode(ctx context.Context, path string) (*audio.Waveform, error) {
	cmd := exec.CommandContext(ctx, d.ffmpegBin,
		"-hide_banner", "-loglevel", "error",
		"-i", path,
		"-f", "s16le", "-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", strconv.Itoa(d.sampleRate),
		"-")

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	d.logger.Debug("decoding source file", logging.Fields{"path": path})

	if err := cmd.Run(); err != nil {
		return nil, &audio.DecodeError{
			Path:    path,
			Message: "ffmpeg failed: " + errBuf.String(),
			Cause:   err,
		}
	}

	data := out.Bytes()
	samples := make([]float64, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		v := int16(binary.LittleEndian.Uint16(data[i:]))
		samples = append(samples, float64(v)/32768.0)
	}

	wave, err := audio.New(samples, d.sampleRate)
	if err != nil {
		return nil, &audio.DecodeError{Path: path, Message: "ffmpeg produced no samples", Cause: err}
	}

	d.logger.Debug("decoded source file", logging.Fields{
		"path":     path,
		"samples":  len(samples),
		"duration": wave.Seconds(),
	})
	return wave, nil
}

// Probe returns container metadata via ffprobe
func (d *Decoder) Probe(ctx context.Context, path string) (*ProbeInfo, error) {
	cmd := exec.CommandContext(ctx, d.ffprobeBin,
		"-v", "error",
		"-show_format", "-show_streams",
		"-of", "json",
		path)

	out, err := cmd.Output()
	if err != nil {
		return nil, &audio.DecodeError{Path: path, Message: "ffprobe failed", Cause: err}
	}

	var raw struct {
		Format struct {
			FormatName string `json:"format_name"`
			Duration   string `json:"duration"`
		} `json:"format"`
		Streams []struct {
			CodecType  string `json:"codec_type"`
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, &audio.DecodeError{Path: path, Message: "unparseable ffprobe output", Cause: err}
	}

	info := &ProbeInfo{FormatName: raw.Format.FormatName}
	info.Duration, _ = strconv.ParseFloat(raw.Format.Duration, 64)
	for _, s := range raw.Streams {
		if s.CodecType == "audio" {
			info.SampleRate, _ = strconv.Atoi(s.SampleRate)
			info.Channels = s.Channels
			break
		}
	}
	return info, nil
}
