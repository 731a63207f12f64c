package inventory

import "database/sql"

// Song is an audio file in the catalog
type Song struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Artist        string `json:"artist"`
	Filename      string `json:"filename"`
	CoverFilename string `json:"cover_filename,omitempty"`
	Duration      int    `json:"duration"`
}

// Category types
const (
	TypeLanguage = "language"
	TypeGenre    = "genre"
)

// ValidCategoryType reports whether t is a known category type.
func ValidCategoryType(t string) bool {
	return t == TypeLanguage || t == TypeGenre
}

// Category tags songs by language or genre
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// User is a registered listener. Password holds the bcrypt hash.
type User struct {
	ID       int64
	Username string
	Password string
}

// songColumns is the standard column list for song queries (alias s).
const songColumns = `s.id, s.title, s.artist, s.filename, s.cover_filename, s.duration`

// scanSongRow scans a row selected with songColumns
func scanSongRow(row interface{ Scan(...any) error }) (*Song, error) {
	var (
		s     Song
		cover sql.NullString
	)
	if err := row.Scan(&s.ID, &s.Title, &s.Artist, &s.Filename, &cover, &s.Duration); err != nil {
		return nil, err
	}
	if cover.Valid {
		s.CoverFilename = cover.String
	}
	return &s, nil
}
