package video

import (
	"context"
	"fmt"

	"github.com/irsalhamdi/ecolearn/database"
	"github.com/irsalhamdi/ecolearn/retry"
	"github.com/jmoiron/sqlx"
)

const selectVideos = `
	SELECT
		v.video_id, v.chapter_id, c.course_id, c.order_index, v.title,
		v.description, v.video_url, v.duration, v.created_at, v.updated_at
	FROM videos AS v
	JOIN chapters AS c ON c.chapter_id = v.chapter_id`

func Create(ctx context.Context, db sqlx.ExtContext, v Video) (int64, error) {
	const q = `
	INSERT INTO videos
		(chapter_id, title, description, video_url, duration, created_at, updated_at)
	VALUES
		(:chapter_id, :title, :description, :video_url, :duration, :created_at, :updated_at)
	RETURNING video_id`

	var out struct {
		ID int64 `db:"video_id"`
	}
	if err := database.NamedQueryStruct(ctx, db, q, v, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id int64) (Video, error) {
	in := struct {
		ID int64 `db:"video_id"`
	}{id}

	q := selectVideos + `
	WHERE v.video_id = :video_id`

	var v Video
	if err := database.NamedQueryStruct(ctx, db, q, in, &v); err != nil {
		return Video{}, err
	}
	return v, nil
}

func ListByCourse(ctx context.Context, db sqlx.ExtContext, courseID int64) ([]Video, error) {
	in := struct {
		CourseID int64 `db:"course_id"`
	}{courseID}

	q := selectVideos + `
	WHERE c.course_id = :course_id
	ORDER BY c.order_index, c.chapter_id, v.video_id`

	var vs []Video
	if err := database.NamedQuerySlice(ctx, db, q, in, &vs); err != nil {
		return nil, err
	}
	if vs == nil {
		vs = []Video{}
	}
	return vs, nil
}

type Store struct {
	db    *sqlx.DB
	retry retry.Policy
}

func NewStore(db *sqlx.DB, rp retry.Policy) *Store {
	return &Store{db: db, retry: rp}
}

func (s *Store) Fetch(ctx context.Context, id int64) (Video, error) {
	var v Video
	err := s.retry.Do(ctx, retry.Idempotent, func() error {
		var err error
		v, err = Fetch(ctx, s.db, id)
		return database.Permanent(err)
	})
	if err != nil {
		return Video{}, fmt.Errorf("fetching video[%d]: %w", id, err)
	}
	return v, nil
}

func (s *Store) ListByCourse(ctx context.Context, courseID int64) ([]Video, error) {
	var vs []Video
	err := s.retry.Do(ctx, retry.Idempotent, func() error {
		var err error
		vs, err = ListByCourse(ctx, s.db, courseID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing videos of course[%d]: %w", courseID, err)
	}
	return vs, nil
}

// IDsByCourse lists the ids of every video reachable through the course's
// chapters.
func (s *Store) IDsByCourse(ctx context.Context, courseID int64) ([]int64, error) {
	vs, err := s.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(vs))
	for i, v := range vs {
		ids[i] = v.ID
	}
	return ids, nil
}

func (s *Store) Create(ctx context.Context, v Video) (Video, error) {
	err := s.retry.Do(ctx, retry.Once, func() error {
		var err error
		v.ID, err = Create(ctx, s.db, v)
		return err
	})
	if err != nil {
		return Video{}, fmt.Errorf("creating video: %w", err)
	}
	return v, nil
}
