package audio

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Public URL prefixes for stored media
const (
	SongsURLPath  = "/static/songs"
	CoversURLPath = "/static/covers"
)

// Resolver resolves stored filenames to playable URLs
type Resolver interface {
	ResolveURL(filename string) (string, error)
}

// NewResolver creates a local file resolver for the given base path
func NewResolver(basePath string) Resolver {
	// Normalize path to avoid double slashes
	return &LocalResolver{BasePath: "/" + strings.Trim(basePath, "/")}
}

// sanitizePath cleans a file path to prevent traversal attacks
func sanitizePath(filePath string) string {
	// Clean the path and remove any traversal attempts
	cleaned := path.Clean("/" + filePath)
	return strings.TrimPrefix(cleaned, "/")
}

// escapeSegments percent-encodes each path segment
func escapeSegments(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// LocalResolver returns local file server paths
type LocalResolver struct {
	BasePath string // e.g., "/static/songs"
}

// ResolveURL returns the local URL for a stored file. An empty filename
// resolves to an empty URL.
func (r *LocalResolver) ResolveURL(filename string) (string, error) {
	if filename == "" {
		return "", nil
	}
	safe := sanitizePath(filename)
	if safe == "" || safe == "." {
		return "", fmt.Errorf("invalid media filename %q", filename)
	}
	return fmt.Sprintf("%s/%s", r.BasePath, escapeSegments(safe)), nil
}
