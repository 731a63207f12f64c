package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// GetSong retrieves a song by ID. Returns (nil, nil) when absent.
func (r *Repository) GetSong(ctx context.Context, id int64) (*Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs s WHERE s.id = ?`

	s, err := scanSongRow(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get song: %w", err)
	}
	return s, nil
}

// SongExists reports whether a song with id exists
func (r *Repository) SongExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM songs WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check song: %w", err)
	}
	return exists, nil
}

// GetSongByFilename retrieves a song by its stored filename. Returns (nil, nil) when absent.
func (r *Repository) GetSongByFilename(ctx context.Context, filename string) (*Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs s WHERE s.filename = ? ORDER BY s.id LIMIT 1`

	s, err := scanSongRow(r.db.QueryRowContext(ctx, query, filename))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get song by filename: %w", err)
	}
	return s, nil
}

// AdjacentSong returns the song after (forward) or before id, wrapping
// around the catalog. Returns (nil, nil) on an empty catalog.
func (r *Repository) AdjacentSong(ctx context.Context, id int64, forward bool) (*Song, error) {
	step := `SELECT ` + songColumns + ` FROM songs s WHERE s.id > ? ORDER BY s.id ASC LIMIT 1`
	wrap := `SELECT ` + songColumns + ` FROM songs s ORDER BY s.id ASC LIMIT 1`
	if !forward {
		step = `SELECT ` + songColumns + ` FROM songs s WHERE s.id < ? ORDER BY s.id DESC LIMIT 1`
		wrap = `SELECT ` + songColumns + ` FROM songs s ORDER BY s.id DESC LIMIT 1`
	}

	s, err := scanSongRow(r.db.QueryRowContext(ctx, step, id))
	if errors.Is(err, sql.ErrNoRows) {
		s, err = scanSongRow(r.db.QueryRowContext(ctx, wrap))
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get adjacent song: %w", err)
	}
	return s, nil
}

// ListCategories returns up to limit categories of the given type, alphabetically.
func (r *Repository) ListCategories(ctx context.Context, categoryType string, limit int) ([]Category, error) {
	query := `SELECT id, name, type FROM categories WHERE type = ? ORDER BY name LIMIT ?`
	return r.queryCategories(ctx, query, categoryType, limit)
}

// AllCategories returns every category ordered by type then name.
func (r *Repository) AllCategories(ctx context.Context) ([]Category, error) {
	return r.queryCategories(ctx, `SELECT id, name, type FROM categories ORDER BY type, name`)
}

func (r *Repository) queryCategories(ctx context.Context, query string, args ...any) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	categories := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Type); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating categories: %w", err)
	}
	return categories, nil
}

// GetCategory retrieves a category by ID. Returns (nil, nil) when absent.
func (r *Repository) GetCategory(ctx context.Context, id int64) (*Category, error) {
	var c Category
	err := r.db.QueryRowContext(ctx, `SELECT id, name, type FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}

// GetCategoryByName retrieves a category by its unique name. Returns (nil, nil) when absent.
func (r *Repository) GetCategoryByName(ctx context.Context, name string) (*Category, error) {
	var c Category
	err := r.db.QueryRowContext(ctx, `SELECT id, name, type FROM categories WHERE name = ?`, name).
		Scan(&c.ID, &c.Name, &c.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category by name: %w", err)
	}
	return &c, nil
}

// SongsByCategory returns all songs attached to a category
func (r *Repository) SongsByCategory(ctx context.Context, categoryID int64) ([]*Song, error) {
	query := `
		SELECT ` + songColumns + `
		FROM songs s
		JOIN song_categories sc ON s.id = sc.song_id
		WHERE sc.category_id = ?
	`
	return r.querySongs(ctx, query, categoryID)
}

// SearchSongs does a case-insensitive substring match on title or artist.
// Wildcards in term match literally.
func (r *Repository) SearchSongs(ctx context.Context, term string, limit int) ([]*Song, error) {
	pattern := "%" + escapeLike(term) + "%"
	query := `
		SELECT ` + songColumns + `
		FROM songs s
		WHERE s.title LIKE ? ESCAPE '\' OR s.artist LIKE ? ESCAPE '\'
		ORDER BY s.id
		LIMIT ?
	`
	return r.querySongs(ctx, query, pattern, pattern, limit)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// RandomSongs returns up to limit songs in random order, skipping the given IDs.
func (r *Repository) RandomSongs(ctx context.Context, limit int, exclude []int64) ([]*Song, error) {
	if limit <= 0 {
		return []*Song{}, nil
	}

	args := make([]any, 0, len(exclude)+1)
	where := ""
	if len(exclude) > 0 {
		where = "WHERE s.id NOT IN (" + placeholders(len(exclude)) + ")"
		for _, id := range exclude {
			args = append(args, id)
		}
	}
	args = append(args, limit)

	query := fmt.Sprintf(`SELECT %s FROM songs s %s ORDER BY RANDOM() LIMIT ?`, songColumns, where)
	return r.querySongs(ctx, query, args...)
}

// AddSong inserts a song tagged with categoryIDs and returns its ID. The song
// and its tags are written together or not at all; repeated IDs are ignored.
func (r *Repository) AddSong(ctx context.Context, s Song, categoryIDs ...int64) (int64, error) {
	var cover any
	if s.CoverFilename != "" {
		cover = s.CoverFilename
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin song transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO songs (title, artist, filename, cover_filename, duration) VALUES (?, ?, ?, ?, ?)`,
		s.Title, s.Artist, s.Filename, cover, s.Duration,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to add song: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read song id: %w", err)
	}

	for _, categoryID := range categoryIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO song_categories (song_id, category_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
			id, categoryID,
		)
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("category %d: %w", categoryID, ErrMissingReference)
		}
		if err != nil {
			return 0, fmt.Errorf("failed to tag song: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit song: %w", err)
	}
	return id, nil
}

// AddCategory inserts a category. Returns ErrDuplicate if the name is taken.
func (r *Repository) AddCategory(ctx context.Context, name, categoryType string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `INSERT INTO categories (name, type) VALUES (?, ?)`, name, categoryType)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("category %q: %w", name, ErrDuplicate)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add category: %w", err)
	}
	return result.LastInsertId()
}
