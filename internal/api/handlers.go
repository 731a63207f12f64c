// Package api wires the feed, catalog, engagement and account services
// onto HTTP routes, rendering HTML pages and JSON player endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/1mb-dev/tunebox/internal/apperr"
	"github.com/1mb-dev/tunebox/internal/catalog"
	"github.com/1mb-dev/tunebox/internal/engagement"
	"github.com/1mb-dev/tunebox/internal/feed"
	"github.com/1mb-dev/tunebox/internal/session"
)

// DefaultMaxFormBytes caps request bodies when Options.MaxFormBytes is unset
const DefaultMaxFormBytes = 16 << 20

// Feed builds the home page and library
type Feed interface {
	Home(ctx context.Context, query string, viewer *session.Identity) (*feed.Home, error)
	Library(ctx context.Context, viewer *session.Identity) (*feed.Library, error)
}

// Catalog serves category listings and song detail
type Catalog interface {
	CategorySongs(ctx context.Context, categoryID int64) (*catalog.Listing, error)
	PlayAndFetch(ctx context.Context, songID int64, viewer *session.Identity) (*catalog.SongView, error)
	Next(ctx context.Context, songID int64) (*catalog.SongView, error)
	Previous(ctx context.Context, songID int64) (*catalog.SongView, error)
}

// Engagement toggles and reports likes
type Engagement interface {
	ToggleLike(ctx context.Context, songID int64, viewer *session.Identity) (engagement.LikeState, error)
	LikeStatus(ctx context.Context, songID int64, viewer *session.Identity) (engagement.LikeState, error)
}

// Accounts registers and authenticates listeners
type Accounts interface {
	Register(ctx context.Context, username, password string) (int64, error)
	Login(ctx context.Context, username, password string) (*session.Identity, error)
}

// Sessions issues and clears session cookies
type Sessions interface {
	Start(w http.ResponseWriter, id session.Identity) error
	Clear(w http.ResponseWriter)
}

// Options holds the handler's dependencies
type Options struct {
	Feed       Feed
	Catalog    Catalog
	Engagement Engagement
	Accounts   Accounts
	Sessions   Sessions

	// Songs and Covers hold the media served under /static/songs and /static/covers
	Songs  fs.FS
	Covers fs.FS

	MaxFormBytes int64
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	feed         Feed
	catalog      Catalog
	engagement   Engagement
	accounts     Accounts
	sessions     Sessions
	songs        fs.FS
	covers       fs.FS
	maxFormBytes int64
	pages        map[string]*template.Template
}

// NewHandler creates a handler and parses its page templates
func NewHandler(opts Options) (*Handler, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	maxForm := opts.MaxFormBytes
	if maxForm <= 0 {
		maxForm = DefaultMaxFormBytes
	}
	return &Handler{
		feed:         opts.Feed,
		catalog:      opts.Catalog,
		engagement:   opts.Engagement,
		accounts:     opts.Accounts,
		sessions:     opts.Sessions,
		songs:        opts.Songs,
		covers:       opts.Covers,
		maxFormBytes: maxForm,
		pages:        pages,
	}, nil
}

// RegisterRoutes registers all application routes on the given mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.home)
	mux.HandleFunc("GET /category/{id}", h.category)
	mux.HandleFunc("GET /library", h.library)

	mux.HandleFunc("GET /register", h.registerForm)
	mux.HandleFunc("POST /register", h.register)
	mux.HandleFunc("GET /login", h.loginForm)
	mux.HandleFunc("POST /login", h.login)
	mux.HandleFunc("GET /logout", h.logout)

	mux.HandleFunc("GET /song-data/{id}", h.songData)
	mux.HandleFunc("POST /next/{id}", h.next)
	mux.HandleFunc("POST /prev/{id}", h.prev)
	mux.HandleFunc("GET /like-status/{id}", h.likeStatus)
	mux.HandleFunc("POST /like/{id}", h.toggleLike)

	mux.Handle("GET /static/songs/{filename}", serveMedia(h.songs))
	mux.Handle("GET /static/covers/{filename}", serveMedia(h.covers))
}

// pathID parses the {id} path segment as a non-negative integer
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response", "err", err)
	}
}

// jsonMessages are the client-facing texts for each error kind on JSON routes
var jsonMessages = map[int]string{
	http.StatusBadRequest:   "Invalid song ID",
	http.StatusUnauthorized: "Login required",
	http.StatusNotFound:     "Song not found",
}

// writeJSONError maps err to a status and an {"error": ...} body.
// Internal errors are logged and reported generically.
func writeJSONError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)
	if !apperr.IsClient(err) {
		log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeJSON(w, status, map[string]string{"error": "Internal error"})
		return
	}
	msg, ok := jsonMessages[status]
	if !ok {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeTextError is the plain-text counterpart of writeJSONError for page routes
func writeTextError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	status := apperr.Status(err)
	switch {
	case !apperr.IsClient(err):
		log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		http.Error(w, "Internal error", status)
	case status == http.StatusNotFound:
		http.Error(w, notFound, status)
	default:
		http.Error(w, http.StatusText(status), status)
	}
}

func badSongID(w http.ResponseWriter, r *http.Request) {
	writeJSONError(w, r, apperr.ErrBadRequest)
}

func (h *Handler) songData(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badSongID(w, r)
		return
	}
	song, err := h.catalog.PlayAndFetch(r.Context(), id, session.FromContext(r.Context()))
	if err != nil {
		writeJSONError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

func (h *Handler) next(w http.ResponseWriter, r *http.Request) {
	h.adjacent(w, r, h.catalog.Next)
}

func (h *Handler) prev(w http.ResponseWriter, r *http.Request) {
	h.adjacent(w, r, h.catalog.Previous)
}

func (h *Handler) adjacent(w http.ResponseWriter, r *http.Request, step func(context.Context, int64) (*catalog.SongView, error)) {
	id, ok := pathID(r)
	if !ok {
		badSongID(w, r)
		return
	}
	song, err := step(r.Context(), id)
	if err != nil {
		writeJSONError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

func (h *Handler) likeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badSongID(w, r)
		return
	}
	state, err := h.engagement.LikeStatus(r.Context(), id, session.FromContext(r.Context()))
	if err != nil {
		writeJSONError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) toggleLike(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badSongID(w, r)
		return
	}
	state, err := h.engagement.ToggleLike(r.Context(), id, session.FromContext(r.Context()))
	if err != nil {
		writeJSONError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// serveMedia serves single files from fsys by their {filename} path value.
// Directories and invalid names are reported as not found.
func serveMedia(fsys fs.FS) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("filename")
		if fsys == nil || !fs.ValidPath(name) || name == "." {
			http.NotFound(w, r)
			return
		}

		f, err := fsys.Open(name)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				log.Warn("failed to open media", "name", name, "err", err)
			}
			http.NotFound(w, r)
			return
		}
		defer func() { _ = f.Close() }()

		info, err := f.Stat()
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		content, ok := f.(io.ReadSeeker)
		if !ok {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=86400")
		http.ServeContent(w, r, info.Name(), info.ModTime(), content)
	})
}
