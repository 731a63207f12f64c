package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/1mb-dev/tunebox/internal/testutil"
)

func openTestDB(t *testing.T, seedSQL string) *Repository {
	t.Helper()

	path := testutil.DBPath(t)
	repo, err := NewRepository(path)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	if seedSQL != "" {
		testutil.Seed(t, path, seedSQL)
	}
	return repo
}

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	return openTestDB(t, testutil.CatalogFixture)
}

func countRows(t *testing.T, repo *Repository, query string, args ...any) int {
	t.Helper()
	var n int
	if err := repo.db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count query: %v", err)
	}
	return n
}

func playRows(t *testing.T, repo *Repository, userID, songID int64) int {
	t.Helper()
	return countRows(t, repo, `SELECT COUNT(*) FROM play_history WHERE user_id = ? AND song_id = ?`, userID, songID)
}

func songIDs(songs []*Song) []int64 {
	ids := make([]int64, len(songs))
	for i, s := range songs {
		ids[i] = s.ID
	}
	return ids
}

func TestNewRepository_SchemaIsIdempotent(t *testing.T) {
	path := testutil.DBPath(t)
	for range 2 {
		repo, err := NewRepository(path)
		if err != nil {
			t.Fatalf("NewRepository: %v", err)
		}
		_ = repo.Close()
	}
}

func TestGetSong(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		id        int64
		wantTitle string
		wantCover string
		wantNil   bool
	}{
		{"with cover", 1, "Love Story", "love_story.jpg", false},
		{"without cover", 2, "Sunrise", "", false},
		{"non-existent song", 999, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			song, err := repo.GetSong(ctx, tt.id)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil {
				if song != nil {
					t.Error("expected nil, got song")
				}
				return
			}
			if song.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", song.Title, tt.wantTitle)
			}
			if song.CoverFilename != tt.wantCover {
				t.Errorf("cover = %q, want %q", song.CoverFilename, tt.wantCover)
			}
		})
	}
}

func TestListCategories(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	languages, err := repo.ListCategories(ctx, TypeLanguage, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"English", "Hindi", "Kannada", "Punjabi"}
	if len(languages) != len(want) {
		t.Fatalf("got %d languages, want %d", len(languages), len(want))
	}
	for i, c := range languages {
		if c.Name != want[i] {
			t.Errorf("languages[%d] = %q, want %q", i, c.Name, want[i])
		}
		if c.Type != TypeLanguage {
			t.Errorf("languages[%d] type = %q", i, c.Type)
		}
	}
}

func TestSongsByCategory(t *testing.T) {
	repo := setupTestRepo(t)

	tests := []struct {
		name       string
		categoryID int64
		wantCount  int
	}{
		{"english", 1, 3},
		{"workout", 7, 2},
		{"unknown category", 99, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			songs, err := repo.SongsByCategory(context.Background(), tt.categoryID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(songs) != tt.wantCount {
				t.Errorf("got %d songs, want %d", len(songs), tt.wantCount)
			}
		})
	}
}

func TestSearchSongs(t *testing.T) {
	repo := setupTestRepo(t)

	tests := []struct {
		name  string
		term  string
		limit int
		want  []int64
	}{
		{"title and artist case-insensitive", "love", 50, []int64{1, 2}},
		{"upper case", "LOVE", 50, []int64{1, 2}},
		{"percent is literal", "100%", 50, []int64{10}},
		{"underscore is literal", "t_B", 50, []int64{10}},
		{"limit applies", "o", 1, []int64{1}},
		{"no match", "zzz", 50, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			songs, err := repo.SearchSongs(context.Background(), tt.term, tt.limit)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := songIDs(songs)
			if len(got) != len(tt.want) {
				t.Fatalf("got ids %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got ids %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestRandomSongs_Exclude(t *testing.T) {
	repo := setupTestRepo(t)

	songs, err := repo.RandomSongs(context.Background(), 20, []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(songs) != 7 {
		t.Fatalf("got %d songs, want 7", len(songs))
	}
	for _, s := range songs {
		if s.ID <= 3 {
			t.Errorf("excluded song %d returned", s.ID)
		}
	}
}

func TestAdjacentSong(t *testing.T) {
	repo := setupTestRepo(t)

	tests := []struct {
		name    string
		id      int64
		forward bool
		want    int64
	}{
		{"next", 3, true, 4},
		{"next wraps", 10, true, 1},
		{"start", 0, true, 1},
		{"previous", 3, false, 2},
		{"previous wraps", 1, false, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := repo.AdjacentSong(context.Background(), tt.id, tt.forward)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s == nil || s.ID != tt.want {
				t.Errorf("got %v, want id %d", s, tt.want)
			}
		})
	}

	empty := openTestDB(t, "")
	s, err := empty.AdjacentSong(context.Background(), 0, true)
	if err != nil || s != nil {
		t.Errorf("empty catalog: got (%v, %v), want (nil, nil)", s, err)
	}
}

func TestAddCategory_Duplicate(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.AddCategory(context.Background(), "English", TypeLanguage)
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

func TestAddSong_RejectsEmptyFilename(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.AddSong(context.Background(), Song{Title: "x", Artist: "y"})
	if err == nil {
		t.Error("expected CHECK constraint failure for empty filename")
	}
}

func TestAddSong_TagsRepeatedCategoryOnce(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	id, err := repo.AddSong(ctx, Song{Title: "So What", Artist: "Miles Davis", Filename: "so_what.mp3", Duration: 545}, 8, 8)
	if err != nil {
		t.Fatalf("AddSong: %v", err)
	}
	songs, err := repo.SongsByCategory(ctx, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(songs) != 2 {
		t.Errorf("got %d jazz songs, want 2", len(songs))
	}
	if n := countRows(t, repo, `SELECT COUNT(*) FROM song_categories WHERE song_id = ?`, id); n != 1 {
		t.Errorf("tag rows = %d, want 1", n)
	}
}

func TestAddSong_UnknownCategoryAddsNothing(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	_, err := repo.AddSong(ctx, Song{Title: "Orphan", Artist: "Nobody", Filename: "orphan.mp3", Duration: 60}, 8, 999)
	if !errors.Is(err, ErrMissingReference) {
		t.Fatalf("err = %v, want ErrMissingReference", err)
	}
	song, err := repo.GetSongByFilename(ctx, "orphan.mp3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if song != nil {
		t.Errorf("song %d was kept after tagging failed", song.ID)
	}
}

func TestCreateUser_Duplicate(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	if _, err := repo.CreateUser(ctx, "carol", "hash"); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err := repo.CreateUser(ctx, "carol", "hash")
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}

	if n := countRows(t, repo, `SELECT COUNT(*) FROM users WHERE username = ?`, "carol"); n != 1 {
		t.Errorf("got %d rows for carol, want 1", n)
	}
}

func TestGetUserByUsername(t *testing.T) {
	repo := setupTestRepo(t)

	u, err := repo.GetUserByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u == nil || u.ID != 1 {
		t.Fatalf("got %+v, want alice with id 1", u)
	}

	u, err = repo.GetUserByUsername(context.Background(), "nobody")
	if err != nil || u != nil {
		t.Errorf("got (%v, %v), want (nil, nil)", u, err)
	}
}

func TestPing(t *testing.T) {
	repo := setupTestRepo(t)

	if err := repo.Ping(); err != nil {
		t.Errorf("Ping should succeed on valid repo: %v", err)
	}
}
