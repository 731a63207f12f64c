package api

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/1mb-dev/tunebox/internal/apperr"
	"github.com/1mb-dev/tunebox/internal/metrics"
	"github.com/1mb-dev/tunebox/internal/session"
)

//go:embed templates/*.html
var templatesFS embed.FS

// pageNames are the templates rendered inside templates/layout.html
var pageNames = []string{"home", "category", "library", "login", "register"}

var templateFuncs = template.FuncMap{
	// clock formats a duration in seconds as m:ss
	"clock": func(seconds int) string {
		return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
	},
	// safeCSS marks configured card styles as trusted CSS
	"safeCSS": func(s string) template.CSS {
		return template.CSS(s)
	},
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(templatesFS,
			"templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

// pageData is the value every page template receives
type pageData struct {
	Viewer *session.Identity
	Query  string
	Data   any
}

// render executes a page into a buffer so template errors never produce a
// half-written response.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	t, ok := h.pages[name]
	if !ok {
		writeTextError(w, r, fmt.Errorf("unknown page %q", name), "")
		return
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, pageData{
		Viewer: session.FromContext(r.Context()),
		Query:  strings.TrimSpace(r.URL.Query().Get("q")),
		Data:   data,
	}); err != nil {
		writeTextError(w, r, fmt.Errorf("failed to render %s: %w", name, err), "")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		log.Debug("failed to write page", "page", name, "err", err)
	}
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	home, err := h.feed.Home(r.Context(), r.URL.Query().Get("q"), session.FromContext(r.Context()))
	if err != nil {
		writeTextError(w, r, err, "Not found")
		return
	}
	h.render(w, r, "home", home)
}

func (h *Handler) category(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid category ID", http.StatusBadRequest)
		return
	}
	listing, err := h.catalog.CategorySongs(r.Context(), id)
	if err != nil {
		writeTextError(w, r, err, "Category not found")
		return
	}
	h.render(w, r, "category", listing)
}

func (h *Handler) library(w http.ResponseWriter, r *http.Request) {
	viewer := session.FromContext(r.Context())
	if viewer == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	lib, err := h.feed.Library(r.Context(), viewer)
	if err != nil {
		writeTextError(w, r, err, "Not found")
		return
	}
	h.render(w, r, "library", lib)
}

// parseForm limits and parses a form body, reporting failures to the client
func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFormBytes)
	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) registerForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "register", nil)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	_, err := h.accounts.Register(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	switch {
	case err == nil:
		metrics.Get().RecordSignup()
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case errors.Is(err, apperr.ErrBadRequest):
		http.Error(w, "Username and password are required", http.StatusBadRequest)
	case errors.Is(err, apperr.ErrConflict):
		http.Error(w, "Username already taken", http.StatusConflict)
	default:
		writeTextError(w, r, err, "")
	}
}

func (h *Handler) loginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "login", nil)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	id, err := h.accounts.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		if errors.Is(err, apperr.ErrUnauthorized) {
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}
		writeTextError(w, r, err, "")
		return
	}

	// Start overwrites whatever session cookie the browser sent
	if err := h.sessions.Start(w, *id); err != nil {
		writeTextError(w, r, fmt.Errorf("failed to start session: %w", err), "")
		return
	}
	metrics.Get().RecordLogin()
	log.Info("login", "user_id", id.UserID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
