// Package feed assembles the home page and the per-listener library.
package feed

import (
	"context"
	"strings"

	"github.com/1mb-dev/tunebox/internal/catalog"
	"github.com/1mb-dev/tunebox/internal/inventory"
	"github.com/1mb-dev/tunebox/internal/session"
)

// Fixed feed sizes
const (
	FeaturedSize       = 8
	RecentSize         = 4
	LibraryRecentSize  = 12
	DefaultSearchLimit = 50
)

// Repository defines the song queries the feed needs
type Repository interface {
	TopPlayed(ctx context.Context, userID int64, limit int) ([]*inventory.Song, error)
	RecentlyPlayed(ctx context.Context, userID int64, limit int) ([]*inventory.Song, error)
	RandomSongs(ctx context.Context, limit int, exclude []int64) ([]*inventory.Song, error)
	SearchSongs(ctx context.Context, term string, limit int) ([]*inventory.Song, error)
	LikedSongs(ctx context.Context, userID int64) ([]*inventory.Song, error)
}

// Catalog provides category shelves and URL resolution
type Catalog interface {
	Shelf(ctx context.Context, categoryType string) ([]catalog.Card, error)
	Views(songs []*inventory.Song) []catalog.SongView
}

// Home is the home-page view model
type Home struct {
	Query         string
	Languages     []catalog.Card
	Genres        []catalog.Card
	Featured      []catalog.SongView
	Recent        []catalog.SongView
	SearchResults []catalog.SongView
}

// Library is a listener's liked and recently played songs
type Library struct {
	Liked  []catalog.SongView
	Recent []catalog.SongView
}

// Assembler builds feeds from the catalog and play history
type Assembler struct {
	repo        Repository
	catalog     Catalog
	searchLimit int
}

// NewAssembler creates an assembler. searchLimit <= 0 selects DefaultSearchLimit.
func NewAssembler(repo Repository, c Catalog, searchLimit int) *Assembler {
	if searchLimit <= 0 {
		searchLimit = DefaultSearchLimit
	}
	return &Assembler{repo: repo, catalog: c, searchLimit: searchLimit}
}

// Home assembles the home page for viewer (nil when anonymous). A blank
// query skips search.
func (a *Assembler) Home(ctx context.Context, query string, viewer *session.Identity) (*Home, error) {
	h := &Home{Query: strings.TrimSpace(query)}

	var err error
	if h.Languages, err = a.catalog.Shelf(ctx, inventory.TypeLanguage); err != nil {
		return nil, err
	}
	if h.Genres, err = a.catalog.Shelf(ctx, inventory.TypeGenre); err != nil {
		return nil, err
	}

	featured, err := a.featured(ctx, viewer)
	if err != nil {
		return nil, err
	}
	h.Featured = a.catalog.Views(featured)

	h.Recent = []catalog.SongView{}
	if viewer != nil {
		recent, err := a.repo.RecentlyPlayed(ctx, viewer.UserID, RecentSize)
		if err != nil {
			return nil, err
		}
		h.Recent = a.catalog.Views(recent)
	}

	h.SearchResults = []catalog.SongView{}
	if h.Query != "" {
		found, err := a.repo.SearchSongs(ctx, h.Query, a.searchLimit)
		if err != nil {
			return nil, err
		}
		h.SearchResults = a.catalog.Views(found)
	}

	return h, nil
}

// featured ranks the viewer's most played songs and pads with random songs
// not already chosen; anonymous viewers get a random selection.
func (a *Assembler) featured(ctx context.Context, viewer *session.Identity) ([]*inventory.Song, error) {
	if viewer == nil {
		return a.repo.RandomSongs(ctx, FeaturedSize, nil)
	}

	top, err := a.repo.TopPlayed(ctx, viewer.UserID, FeaturedSize)
	if err != nil {
		return nil, err
	}
	if len(top) >= FeaturedSize {
		return top, nil
	}

	chosen := make([]int64, len(top))
	for i, s := range top {
		chosen[i] = s.ID
	}
	padding, err := a.repo.RandomSongs(ctx, FeaturedSize-len(top), chosen)
	if err != nil {
		return nil, err
	}
	return append(top, padding...), nil
}

// Library returns viewer's liked songs and most recently played songs.
// viewer must be non-nil; the web layer redirects anonymous requests.
func (a *Assembler) Library(ctx context.Context, viewer *session.Identity) (*Library, error) {
	liked, err := a.repo.LikedSongs(ctx, viewer.UserID)
	if err != nil {
		return nil, err
	}
	recent, err := a.repo.RecentlyPlayed(ctx, viewer.UserID, LibraryRecentSize)
	if err != nil {
		return nil, err
	}
	return &Library{Liked: a.catalog.Views(liked), Recent: a.catalog.Views(recent)}, nil
}
