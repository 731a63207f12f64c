// Package engagement records plays and likes.
package engagement

import (
	"context"
	"errors"
	"fmt"

	"github.com/1mb-dev/tunebox/internal/apperr"
	"github.com/1mb-dev/tunebox/internal/inventory"
	"github.com/1mb-dev/tunebox/internal/metrics"
	"github.com/1mb-dev/tunebox/internal/session"
)

// Repository defines the engagement storage the tracker needs
type Repository interface {
	SongExists(ctx context.Context, id int64) (bool, error)
	RecordPlay(ctx context.Context, userID, songID int64) error
	ToggleLike(ctx context.Context, userID, songID int64) (bool, int, error)
	LikeCount(ctx context.Context, songID int64) (int, error)
	IsLiked(ctx context.Context, userID, songID int64) (bool, error)
}

// LikeState is a viewer's like flag and the song's total like count
type LikeState struct {
	Liked bool `json:"liked"`
	Count int  `json:"count"`
}

// Tracker implements play and like bookkeeping
type Tracker struct {
	repo    Repository
	metrics *metrics.Metrics
}

// NewTracker creates a tracker reporting to the process-wide metrics
func NewTracker(repo Repository) *Tracker {
	return &Tracker{repo: repo, metrics: metrics.Get()}
}

func (t *Tracker) requireSong(ctx context.Context, songID int64) error {
	exists, err := t.repo.SongExists(ctx, songID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("song %d: %w", songID, apperr.ErrNotFound)
	}
	return nil
}

// RecordPlay appends one play-history row
func (t *Tracker) RecordPlay(ctx context.Context, userID, songID int64) error {
	if err := t.repo.RecordPlay(ctx, userID, songID); err != nil {
		return err
	}
	t.metrics.RecordPlay()
	return nil
}

// ToggleLike flips viewer's like on a song. A missing song is reported as
// apperr.ErrNotFound before the session is considered, so the answer does
// not depend on whether the caller is logged in. A session naming a user
// that no longer exists is treated like no session.
func (t *Tracker) ToggleLike(ctx context.Context, songID int64, viewer *session.Identity) (LikeState, error) {
	if err := t.requireSong(ctx, songID); err != nil {
		return LikeState{}, err
	}
	if viewer == nil {
		return LikeState{}, fmt.Errorf("login required: %w", apperr.ErrUnauthorized)
	}

	liked, count, err := t.repo.ToggleLike(ctx, viewer.UserID, songID)
	if errors.Is(err, inventory.ErrMissingReference) {
		return LikeState{}, fmt.Errorf("session user %d no longer exists: %w", viewer.UserID, apperr.ErrUnauthorized)
	}
	if err != nil {
		return LikeState{}, err
	}
	t.metrics.RecordLike(liked)
	return LikeState{Liked: liked, Count: count}, nil
}

// LikeCount returns the total likes for a song
func (t *Tracker) LikeCount(ctx context.Context, songID int64) (int, error) {
	return t.repo.LikeCount(ctx, songID)
}

// LikeStatus returns viewer's like flag and the song's count. Anonymous
// viewers always see liked=false.
func (t *Tracker) LikeStatus(ctx context.Context, songID int64, viewer *session.Identity) (LikeState, error) {
	if err := t.requireSong(ctx, songID); err != nil {
		return LikeState{}, err
	}

	count, err := t.repo.LikeCount(ctx, songID)
	if err != nil {
		return LikeState{}, err
	}
	state := LikeState{Count: count}
	if viewer != nil {
		if state.Liked, err = t.repo.IsLiked(ctx, viewer.UserID, songID); err != nil {
			return LikeState{}, err
		}
	}
	return state, nil
}
