package progress

import (
	"context"
	"fmt"

	"github.com/irsalhamdi/ecolearn/database"
	"github.com/irsalhamdi/ecolearn/retry"
	"github.com/jmoiron/sqlx"
)

// Upsert never lowers a percentage nor unwatches a video. It returns the row
// as stored.
func Upsert(ctx context.Context, db sqlx.ExtContext, p Progress) (Progress, error) {
	const q = `
	INSERT INTO user_progress
		(user_id, video_id, watched, progress_percentage, created_at, updated_at)
	VALUES
		(:user_id, :video_id, :watched, :progress_percentage, :created_at, :updated_at)
	ON CONFLICT (user_id, video_id) DO UPDATE SET
		watched = user_progress.watched OR EXCLUDED.watched,
		progress_percentage = GREATEST(user_progress.progress_percentage, EXCLUDED.progress_percentage),
		updated_at = EXCLUDED.updated_at
	RETURNING *`

	var out Progress
	if err := database.NamedQueryStruct(ctx, db, q, p, &out); err != nil {
		return Progress{}, err
	}
	return out, nil
}

func ListWatched(ctx context.Context, db sqlx.ExtContext, userID string) ([]int64, error) {
	in := struct {
		UserID string `db:"user_id"`
	}{userID}

	const q = `
	SELECT * FROM user_progress
	WHERE user_id = :user_id AND watched = true`

	var ps []Progress
	if err := database.NamedQuerySlice(ctx, db, q, in, &ps); err != nil {
		return nil, err
	}

	ids := make([]int64, len(ps))
	for i, p := range ps {
		ids[i] = p.VideoID
	}
	return ids, nil
}

type DBStore struct {
	db    *sqlx.DB
	retry retry.Policy
}

func NewStore(db *sqlx.DB, rp retry.Policy) *DBStore {
	return &DBStore{db: db, retry: rp}
}

func (s *DBStore) Watched(ctx context.Context, userID string) ([]int64, error) {
	var ids []int64
	err := s.retry.Do(ctx, retry.Idempotent, func() error {
		var err error
		ids, err = ListWatched(ctx, s.db, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing videos watched by user[%s]: %w", userID, err)
	}
	return ids, nil
}

func (s *DBStore) Upsert(ctx context.Context, p Progress) (Progress, error) {
	var out Progress
	err := s.retry.Do(ctx, retry.Idempotent, func() error {
		var err error
		out, err = Upsert(ctx, s.db, p)
		return database.Permanent(err)
	})
	if err != nil {
		return Progress{}, fmt.Errorf("saving progress of user[%s] on video[%d]: %w", p.UserID, p.VideoID, err)
	}
	return out, nil
}
