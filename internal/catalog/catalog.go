// Package catalog serves category shelves, category listings and song
// detail, resolving stored filenames into playable URLs.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/1mb-dev/tunebox/internal/apperr"
	"github.com/1mb-dev/tunebox/internal/audio"
	"github.com/1mb-dev/tunebox/internal/cache"
	"github.com/1mb-dev/tunebox/internal/inventory"
	"github.com/1mb-dev/tunebox/internal/session"
)

// ShelfSize is the number of categories of each type on the home page
const ShelfSize = 4

// Repository defines the catalog reads the service needs
type Repository interface {
	GetSong(ctx context.Context, id int64) (*inventory.Song, error)
	AdjacentSong(ctx context.Context, id int64, forward bool) (*inventory.Song, error)
	GetCategory(ctx context.Context, id int64) (*inventory.Category, error)
	ListCategories(ctx context.Context, categoryType string, limit int) ([]inventory.Category, error)
	SongsByCategory(ctx context.Context, categoryID int64) ([]*inventory.Song, error)
}

// PlayRecorder appends play-history rows
type PlayRecorder interface {
	RecordPlay(ctx context.Context, userID, songID int64) error
}

// SongView is a song with its media URLs resolved
type SongView struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Filename string `json:"filename"`
	CoverURL string `json:"cover_url"`
	Duration int    `json:"duration"`
	URL      string `json:"url"`
}

// Card is a category on a home-page shelf
type Card struct {
	ID    int64
	Name  string
	Type  string
	Style string
}

// Listing is a category together with its songs
type Listing struct {
	Category inventory.Category
	Songs    []SongView
}

// Service implements the catalog queries
type Service struct {
	repo   Repository
	plays  PlayRecorder
	songs  audio.Resolver
	covers audio.Resolver
	styles *Styles
	cache  *cache.Cache
}

// NewService creates a catalog service. c may be nil to disable shelf caching.
func NewService(repo Repository, plays PlayRecorder, styles *Styles, c *cache.Cache) *Service {
	return &Service{
		repo:   repo,
		plays:  plays,
		songs:  audio.NewResolver(audio.SongsURLPath),
		covers: audio.NewResolver(audio.CoversURLPath),
		styles: styles,
		cache:  c,
	}
}

// View resolves a song's media URLs
func (s *Service) View(song *inventory.Song) SongView {
	v := SongView{
		ID:       song.ID,
		Title:    song.Title,
		Artist:   song.Artist,
		Filename: song.Filename,
		Duration: song.Duration,
	}

	var err error
	if v.URL, err = s.songs.ResolveURL(song.Filename); err != nil {
		log.Warn("failed to resolve song URL", "song_id", song.ID, "err", err)
	}
	if v.CoverURL, err = s.covers.ResolveURL(song.CoverFilename); err != nil {
		log.Warn("failed to resolve cover URL", "song_id", song.ID, "err", err)
	}
	return v
}

// Views resolves a list of songs; the result is never nil
func (s *Service) Views(songs []*inventory.Song) []SongView {
	out := make([]SongView, len(songs))
	for i, song := range songs {
		out[i] = s.View(song)
	}
	return out
}

// Shelf returns up to ShelfSize categories of a type, alphabetically, each
// with its display style.
func (s *Service) Shelf(ctx context.Context, categoryType string) ([]Card, error) {
	key := cache.ShelfKey(categoryType)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cached.([]Card), nil
		}
	}

	categories, err := s.repo.ListCategories(ctx, categoryType, ShelfSize)
	if err != nil {
		return nil, err
	}

	cards := make([]Card, len(categories))
	for i, c := range categories {
		cards[i] = Card{ID: c.ID, Name: c.Name, Type: c.Type, Style: s.styles.For(c.Name)}
	}

	if s.cache != nil {
		if err := s.cache.Set(key, cards); err != nil {
			log.Warn("failed to cache shelf", "type", categoryType, "err", err)
		}
	}
	return cards, nil
}

// CategorySongs lists the songs of a category
func (s *Service) CategorySongs(ctx context.Context, categoryID int64) (*Listing, error) {
	c, err := s.repo.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("category %d: %w", categoryID, apperr.ErrNotFound)
	}

	songs, err := s.repo.SongsByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	return &Listing{Category: *c, Songs: s.Views(songs)}, nil
}

// PlayAndFetch returns a song's detail and, when viewer is authenticated,
// records exactly one play for them. Both effects are part of the contract:
// the player fetches detail at the moment playback starts. A session whose
// user has since been deleted still gets the detail but records nothing.
func (s *Service) PlayAndFetch(ctx context.Context, songID int64, viewer *session.Identity) (*SongView, error) {
	song, err := s.repo.GetSong(ctx, songID)
	if err != nil {
		return nil, err
	}
	if song == nil {
		return nil, fmt.Errorf("song %d: %w", songID, apperr.ErrNotFound)
	}

	if viewer != nil {
		err := s.plays.RecordPlay(ctx, viewer.UserID, songID)
		switch {
		case errors.Is(err, inventory.ErrMissingReference):
			log.Warn("play not recorded for stale session", "user_id", viewer.UserID, "song_id", songID)
		case err != nil:
			return nil, err
		}
	}

	v := s.View(song)
	return &v, nil
}

// Next returns the song after songID, wrapping to the first. songID 0 starts
// at the beginning. No play is recorded.
func (s *Service) Next(ctx context.Context, songID int64) (*SongView, error) {
	return s.adjacent(ctx, songID, true)
}

// Previous returns the song before songID, wrapping to the last.
func (s *Service) Previous(ctx context.Context, songID int64) (*SongView, error) {
	return s.adjacent(ctx, songID, false)
}

func (s *Service) adjacent(ctx context.Context, songID int64, forward bool) (*SongView, error) {
	song, err := s.repo.AdjacentSong(ctx, songID, forward)
	if err != nil {
		return nil, err
	}
	if song == nil {
		return nil, fmt.Errorf("catalog is empty: %w", apperr.ErrNotFound)
	}
	v := s.View(song)
	return &v, nil
}
