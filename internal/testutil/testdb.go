// Package testutil provides shared test helpers for database setup.
package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// DBPath returns a fresh database path inside the test's temp dir.
func DBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

// Seed executes seedSQL against the database at path through a separate
// connection. The schema must already exist (inventory.NewRepository applies it).
func Seed(t *testing.T, path, seedSQL string) {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(seedSQL); err != nil {
		t.Fatalf("failed to seed test db: %v", err)
	}
}

// Count runs a COUNT query against the database at path through a separate
// connection.
func Count(t *testing.T, path, query string, args ...any) int {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	defer func() { _ = db.Close() }()

	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return n
}

// Plays returns how many play-history rows exist for (userID, songID).
func Plays(t *testing.T, path string, userID, songID int64) int {
	t.Helper()
	return Count(t, path, `SELECT COUNT(*) FROM play_history WHERE user_id = ? AND song_id = ?`, userID, songID)
}

// Users returns how many rows carry username.
func Users(t *testing.T, path, username string) int {
	t.Helper()
	return Count(t, path, `SELECT COUNT(*) FROM users WHERE username = ?`, username)
}

// CatalogFixture seeds ten songs, five languages, five genres and two users
// (ids 1 and 2, unusable password hashes).
const CatalogFixture = `
	INSERT INTO songs (id, title, artist, filename, cover_filename, duration) VALUES
		(1, 'Love Story', 'Taylor Swift', 'love_story.mp3', 'love_story.jpg', 235),
		(2, 'Sunrise', 'Lovelyn', 'sunrise.mp3', NULL, 201),
		(3, 'Kesariya', 'Arijit Singh', 'kesariya.mp3', 'kesariya.jpg', 268),
		(4, 'Vaathi Coming', 'Anirudh', 'vaathi.mp3', NULL, 229),
		(5, 'Belageddu', 'Vijay Prakash', 'belageddu.mp3', NULL, 250),
		(6, 'Stronger', 'Kanye West', 'stronger.mp3', 'stronger.jpg', 312),
		(7, 'Blue in Green', 'Miles Davis', 'blue_in_green.mp3', NULL, 337),
		(8, 'Lo-Fi Rain', 'Chillhop', 'lofi_rain.mp3', NULL, 180),
		(9, 'Thunderstruck', 'AC/DC', 'thunderstruck.mp3', NULL, 292),
		(10, '100% Pure', 'Percent_Band', 'pure.mp3', NULL, 60);
	INSERT INTO categories (id, name, type) VALUES
		(1, 'English', 'language'),
		(2, 'Hindi', 'language'),
		(3, 'Tamil', 'language'),
		(4, 'Kannada', 'language'),
		(5, 'Punjabi', 'language'),
		(6, 'Love', 'genre'),
		(7, 'Workout', 'genre'),
		(8, 'Jazz', 'genre'),
		(9, 'Rock', 'genre'),
		(10, 'Chill', 'genre');
	INSERT INTO song_categories (song_id, category_id) VALUES
		(1, 1), (1, 6), (2, 1), (3, 2), (3, 6), (4, 3), (5, 4),
		(6, 1), (6, 7), (7, 8), (8, 10), (9, 9), (9, 7);
	INSERT INTO users (id, username, password) VALUES
		(1, 'alice', '!'),
		(2, 'bob', '!');
`
