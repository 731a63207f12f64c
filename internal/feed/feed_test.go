package feed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1mb-dev/tunebox/internal/catalog"
	"github.com/1mb-dev/tunebox/internal/inventory"
	"github.com/1mb-dev/tunebox/internal/session"
	"github.com/1mb-dev/tunebox/internal/testutil"
)

var alice = &session.Identity{UserID: 1, Username: "alice"}

func setupAssembler(t *testing.T, searchLimit int) (*Assembler, *inventory.Repository) {
	t.Helper()
	path := testutil.DBPath(t)
	repo, err := inventory.NewRepository(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	testutil.Seed(t, path, testutil.CatalogFixture)

	svc := catalog.NewService(repo, repo, catalog.NewStyles(nil, ""), nil)
	return NewAssembler(repo, svc, searchLimit), repo
}

func play(t *testing.T, repo *inventory.Repository, userID int64, songIDs ...int64) {
	t.Helper()
	for _, id := range songIDs {
		require.NoError(t, repo.RecordPlay(context.Background(), userID, id))
	}
}

func ids(views []catalog.SongView) []int64 {
	out := make([]int64, len(views))
	for i, v := range views {
		out[i] = v.ID
	}
	return out
}

func assertUnique(t *testing.T, got []int64) {
	t.Helper()
	seen := make(map[int64]bool, len(got))
	for _, id := range got {
		assert.False(t, seen[id], "duplicate song %d in %v", id, got)
		seen[id] = true
	}
}

func TestHome_Anonymous(t *testing.T) {
	a, _ := setupAssembler(t, 0)

	h, err := a.Home(context.Background(), "", nil)
	require.NoError(t, err)

	assert.Len(t, h.Featured, FeaturedSize)
	assertUnique(t, ids(h.Featured))
	assert.Empty(t, h.Recent)
	assert.Empty(t, h.SearchResults)

	require.Len(t, h.Languages, 4)
	assert.Equal(t, "English", h.Languages[0].Name)
	assert.Equal(t, "linear-gradient(135deg, #6a5acd, #00bfff)", h.Languages[0].Style)
	require.Len(t, h.Genres, 4)
	assert.Equal(t, "Chill", h.Genres[0].Name)
	assert.Equal(t, catalog.DefaultFallbackStyle, h.Genres[0].Style)
}

func TestHome_FeaturedRanksByPlayCountThenPads(t *testing.T) {
	a, repo := setupAssembler(t, 0)
	// Alice: song 1 three times, song 2 once. Bob's plays are ignored.
	play(t, repo, 1, 2, 1, 1, 1)
	play(t, repo, 2, 9, 9, 9, 9, 9)

	h, err := a.Home(context.Background(), "", alice)
	require.NoError(t, err)

	got := ids(h.Featured)
	require.Len(t, got, FeaturedSize)
	assertUnique(t, got)
	assert.Equal(t, []int64{1, 2}, got[:2])
}

func TestHome_FeaturedNoPaddingWhenEnoughPlays(t *testing.T) {
	a, repo := setupAssembler(t, 0)
	play(t, repo, 1, 10, 10, 9, 8, 7, 6, 5, 4, 3, 2)

	h, err := a.Home(context.Background(), "", alice)
	require.NoError(t, err)

	got := ids(h.Featured)
	require.Len(t, got, FeaturedSize)
	assert.Equal(t, int64(10), got[0])
	assert.NotContains(t, got, int64(1), "song 1 was never played and must not pad a full list")
}

func TestHome_Recent(t *testing.T) {
	a, repo := setupAssembler(t, 0)
	play(t, repo, 1, 1, 2, 3, 4, 5, 2)

	h, err := a.Home(context.Background(), "", alice)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 5, 4, 3}, ids(h.Recent))
}

func TestHome_Search(t *testing.T) {
	tests := []struct {
		name  string
		query string
		limit int
		want  []int64
	}{
		{"title and artist", "love", 0, []int64{1, 2}},
		{"trimmed", "  LOVE ", 0, []int64{1, 2}},
		{"capped", "love", 1, []int64{1}},
		{"blank skips search", "   ", 0, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := setupAssembler(t, tt.limit)
			h, err := a.Home(context.Background(), tt.query, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(h.SearchResults))
		})
	}
}

func TestHome_SearchResolvesURLs(t *testing.T) {
	a, _ := setupAssembler(t, 0)

	h, err := a.Home(context.Background(), "Love Story", nil)
	require.NoError(t, err)
	require.Len(t, h.SearchResults, 1)
	assert.Equal(t, "/static/songs/love_story.mp3", h.SearchResults[0].URL)
	assert.Equal(t, "/static/covers/love_story.jpg", h.SearchResults[0].CoverURL)
}

func TestLibrary(t *testing.T) {
	a, repo := setupAssembler(t, 0)
	ctx := context.Background()

	for _, id := range []int64{3, 5} {
		_, _, err := repo.ToggleLike(ctx, 1, id)
		require.NoError(t, err)
	}
	for id := int64(1); id <= 10; id++ {
		play(t, repo, 1, id)
	}
	play(t, repo, 1, 1, 2, 3)

	lib, err := a.Library(ctx, alice)
	require.NoError(t, err)

	assert.ElementsMatch(t, []int64{3, 5}, ids(lib.Liked))
	got := ids(lib.Recent)
	assert.Len(t, got, 10)
	assert.Equal(t, []int64{3, 2, 1}, got[:3])
}
