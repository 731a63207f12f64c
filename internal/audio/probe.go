package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// Fallback duration estimate: bytes per minute at an assumed 160 kbit/s,
// with a 30 second floor.
const (
	assumedBytesPerMinute = 160 * 1024
	minEstimatedSeconds   = 30
)

// Extensions treated as audio when scanning a directory
var audioExts = map[string]bool{
	".mp3": true, ".m4a": true, ".flac": true, ".ogg": true, ".wav": true,
}

// IsAudioFile reports whether name has a known audio extension
func IsAudioFile(name string) bool {
	return audioExts[strings.ToLower(filepath.Ext(name))]
}

// EstimateDuration derives a best-effort duration in seconds from file size.
// It is not accurate and is only used when nothing better is known.
func EstimateDuration(size int64) int {
	secs := int(float64(size) / assumedBytesPerMinute * 60)
	return max(minEstimatedSeconds, secs)
}

// Metadata is what can be learned about an audio file before cataloguing it
type Metadata struct {
	Title    string
	Artist   string
	Duration int
}

// Probe reads tag metadata from the file at path. Unreadable or missing tags
// are not an error: title falls back to the file name and artist to
// "Unknown Artist". Duration always comes from EstimateDuration.
func Probe(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to stat audio file: %w", err)
	}

	md := Metadata{Duration: EstimateDuration(info.Size())}
	if m, err := tag.ReadFrom(f); err == nil {
		md.Title = strings.TrimSpace(m.Title())
		md.Artist = strings.TrimSpace(m.Artist())
	}

	if md.Title == "" {
		base := filepath.Base(path)
		md.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if md.Artist == "" {
		md.Artist = "Unknown Artist"
	}
	return md, nil
}
