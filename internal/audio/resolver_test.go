package audio

import (
	"testing"
)

func TestLocalResolver(t *testing.T) {
	resolver := NewResolver("static/songs/")

	tests := []struct {
		name     string
		filePath string
		want     string
	}{
		{"simple path", "track.mp3", "/static/songs/track.mp3"},
		{"nested path", "hindi/track1.mp3", "/static/songs/hindi/track1.mp3"},
		{"traversal attempt", "../../../etc/passwd", "/static/songs/etc/passwd"},
		{"leading slash", "/focus/track.mp3", "/static/songs/focus/track.mp3"},
		{"double dots in middle", "focus/../calm/track.mp3", "/static/songs/calm/track.mp3"},
		{"spaces escaped", "my song.mp3", "/static/songs/my%20song.mp3"},
		{"empty filename", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.ResolveURL(tt.filePath)
			if err != nil {
				t.Fatalf("ResolveURL() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveURL(%q) = %q, want %q", tt.filePath, got, tt.want)
			}
		})
	}
}

func TestLocalResolver_RejectsBareTraversal(t *testing.T) {
	resolver := NewResolver(CoversURLPath)

	if _, err := resolver.ResolveURL(".."); err == nil {
		t.Error("expected error for a filename that cleans to nothing")
	}
}
