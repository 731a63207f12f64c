package inventory

import (
	"context"
	"fmt"
)

// RecordPlay appends a play-history row.
// Returns ErrMissingReference if the user or song is gone.
func (r *Repository) RecordPlay(ctx context.Context, userID, songID int64) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO play_history (user_id, song_id) VALUES (?, ?)`, userID, songID)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("play by user %d of song %d: %w", userID, songID, ErrMissingReference)
	}
	if err != nil {
		return fmt.Errorf("failed to record play: %w", err)
	}
	return nil
}

// TopPlayed returns the user's songs ranked by play count, most recent play
// breaking ties.
func (r *Repository) TopPlayed(ctx context.Context, userID int64, limit int) ([]*Song, error) {
	query := `
		SELECT ` + songColumns + `
		FROM play_history h
		JOIN songs s ON s.id = h.song_id
		WHERE h.user_id = ?
		GROUP BY s.id
		ORDER BY COUNT(*) DESC, MAX(h.played_at) DESC, MAX(h.rowid) DESC
		LIMIT ?
	`
	return r.querySongs(ctx, query, userID, limit)
}

// RecentlyPlayed returns the user's distinct songs ordered by latest play.
func (r *Repository) RecentlyPlayed(ctx context.Context, userID int64, limit int) ([]*Song, error) {
	query := `
		SELECT ` + songColumns + `
		FROM play_history h
		JOIN songs s ON s.id = h.song_id
		WHERE h.user_id = ?
		GROUP BY s.id
		ORDER BY MAX(h.played_at) DESC, MAX(h.rowid) DESC
		LIMIT ?
	`
	return r.querySongs(ctx, query, userID, limit)
}

// LikedSongs returns every song the user has liked, newest like first
func (r *Repository) LikedSongs(ctx context.Context, userID int64) ([]*Song, error) {
	query := `
		SELECT ` + songColumns + `
		FROM likes l
		JOIN songs s ON s.id = l.song_id
		WHERE l.user_id = ?
		ORDER BY l.rowid DESC
	`
	return r.querySongs(ctx, query, userID)
}

// ToggleLike flips the (user, song) like inside one transaction and returns
// the new state together with the song's like count. The delete runs first
// so the write lock is taken before the decision is made.
// Returns ErrMissingReference if the user or song is gone.
func (r *Repository) ToggleLike(ctx context.Context, userID, songID int64) (liked bool, count int, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, fmt.Errorf("failed to begin like transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE user_id = ? AND song_id = ?`, userID, songID)
	if err != nil {
		return false, 0, fmt.Errorf("failed to remove like: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return false, 0, fmt.Errorf("failed to check rows affected: %w", err)
	}

	if removed == 0 {
		_, err := tx.ExecContext(ctx, `INSERT INTO likes (user_id, song_id) VALUES (?, ?)`, userID, songID)
		if isForeignKeyViolation(err) {
			return false, 0, fmt.Errorf("like by user %d of song %d: %w", userID, songID, ErrMissingReference)
		}
		if err != nil {
			return false, 0, fmt.Errorf("failed to add like: %w", err)
		}
		liked = true
	}

	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes WHERE song_id = ?`, songID).Scan(&count); err != nil {
		return false, 0, fmt.Errorf("failed to count likes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("failed to commit like: %w", err)
	}
	return liked, count, nil
}

// LikeCount returns the number of likes for a song
func (r *Repository) LikeCount(ctx context.Context, songID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes WHERE song_id = ?`, songID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return n, nil
}

// IsLiked reports whether the user likes the song
func (r *Repository) IsLiked(ctx context.Context, userID, songID int64) (bool, error) {
	var liked bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM likes WHERE user_id = ? AND song_id = ?)`, userID, songID).Scan(&liked)
	if err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}
	return liked, nil
}
