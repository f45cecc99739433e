package transcode

import (
	"os"

	"github.com/dhowden/tag"
)

// TrackMetadata carries container tags into the analysis result
type TrackMetadata struct {
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
	Album  string `json:"album,omitempty"`
}

// ReadMetadata extracts ID3/MP4 tags from the source file. Missing or
// unreadable tags are not an error for the pipeline; callers treat the result
// as best effort.
func ReadMetadata(path string) (*TrackMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, err
	}
	return &TrackMetadata{
		Title:  m.Title(),
		Artist: m.Artist(),
		Album:  m.Album(),
	}, nil
}
