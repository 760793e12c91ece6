package course

import (
	"context"
	"fmt"

	"github.com/irsalhamdi/ecolearn/database"
	"github.com/irsalhamdi/ecolearn/retry"
	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, c Course) (Course, error) {
	const q = `
	INSERT INTO courses
		(title, description, image_url, price, created_at, updated_at)
	VALUES
		(:title, :description, :image_url, :price, :created_at, :updated_at)
	RETURNING *`

	var out Course
	if err := database.NamedQueryStruct(ctx, db, q, c, &out); err != nil {
		return Course{}, err
	}
	return out, nil
}

func Update(ctx context.Context, db sqlx.ExtContext, c Course) error {
	const q = `
	UPDATE courses SET
		title = :title,
		description = :description,
		image_url = :image_url,
		price = :price,
		updated_at = :updated_at
	WHERE course_id = :course_id`

	n, err := database.NamedExecContext(ctx, db, q, c)
	if err != nil {
		return err
	}
	if n == 0 {
		return database.ErrDBNotFound
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id int64) (Course, error) {
	in := struct {
		ID int64 `db:"course_id"`
	}{id}

	const q = `
	SELECT * FROM courses
	WHERE course_id = :course_id`

	var c Course
	if err := database.NamedQueryStruct(ctx, db, q, in, &c); err != nil {
		return Course{}, err
	}
	return c, nil
}

func List(ctx context.Context, db sqlx.ExtContext) ([]Course, error) {
	const q = `
	SELECT * FROM courses
	ORDER BY created_at DESC, course_id DESC`

	cs := []Course{}
	if err := database.NamedQuerySlice(ctx, db, q, struct{}{}, &cs); err != nil {
		return nil, err
	}
	if cs == nil {
		cs = []Course{}
	}
	return cs, nil
}

// ListOwned returns the courses userID holds an access granting enrollment for.
func ListOwned(ctx context.Context, db sqlx.ExtContext, userID string) ([]Course, error) {
	in := struct {
		UserID string `db:"user_id"`
	}{userID}

	const q = `
	SELECT c.* FROM courses AS c
	JOIN course_enrollments AS e ON e.course_id = c.course_id
	WHERE e.user_id = :user_id AND e.status IN ('active', 'completed')
	ORDER BY e.enrollment_date DESC`

	var cs []Course
	if err := database.NamedQuerySlice(ctx, db, q, in, &cs); err != nil {
		return nil, err
	}
	if cs == nil {
		cs = []Course{}
	}
	return cs, nil
}

func CreateChapter(ctx context.Context, db sqlx.ExtContext, ch Chapter) (Chapter, error) {
	const q = `
	INSERT INTO chapters
		(course_id, order_index, title, description, created_at, updated_at)
	VALUES
		(:course_id, :order_index, :title, :description, :created_at, :updated_at)
	RETURNING *`

	var out Chapter
	if err := database.NamedQueryStruct(ctx, db, q, ch, &out); err != nil {
		return Chapter{}, err
	}
	return out, nil
}

func ListChapters(ctx context.Context, db sqlx.ExtContext, courseID int64) ([]Chapter, error) {
	in := struct {
		CourseID int64 `db:"course_id"`
	}{courseID}

	const q = `
	SELECT * FROM chapters
	WHERE course_id = :course_id
	ORDER BY order_index, chapter_id`

	var chs []Chapter
	if err := database.NamedQuerySlice(ctx, db, q, in, &chs); err != nil {
		return nil, err
	}
	if chs == nil {
		chs = []Chapter{}
	}
	return chs, nil
}

// Store runs the queries above under the retry policy.
type Store struct {
	db    *sqlx.DB
	retry retry.Policy
}

func NewStore(db *sqlx.DB, rp retry.Policy) *Store {
	return &Store{db: db, retry: rp}
}

func (s *Store) Fetch(ctx context.Context, id int64) (Course, error) {
	var c Course
	err := s.retry.Do(ctx, retry.Idempotent, func() error {
		var err error
		c, err = Fetch(ctx, s.db, id)
		return database.Permanent(err)
	})
	if err != nil {
		return Course{}, fmt.Errorf("fetching course[%d]: %w", id, err)
	}
	return c, nil
}

func (s *Store) List(ctx context.Context) ([]Course, error) {
	var cs []Course
	err := s.retry.Do(ctx, retry.Idempotent, func() error {
		var err error
		cs, err = List(ctx, s.db)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}
	return cs, nil
}

func (s *Store) ListOwned(ctx context.Context, userID string) ([]Course, error) {
	var cs []Course
	err := s.retry.Do(ctx, retry.Idempotent, func() error {
		var err error
		cs, err = ListOwned(ctx, s.db, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing courses owned by user[%s]: %w", userID, err)
	}
	return cs, nil
}

func (s *Store) ListChapters(ctx context.Context, courseID int64) ([]Chapter, error) {
	var chs []Chapter
	err := s.retry.Do(ctx, retry.Idempotent, func() error {
		var err error
		chs, err = ListChapters(ctx, s.db, courseID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing chapters of course[%d]: %w", courseID, err)
	}
	return chs, nil
}

// Content inserts run once, a retry could duplicate them.

func (s *Store) Create(ctx context.Context, c Course) (Course, error) {
	var out Course
	err := s.retry.Do(ctx, retry.Once, func() error {
		var err error
		out, err = Create(ctx, s.db, c)
		return err
	})
	return out, err
}

func (s *Store) Update(ctx context.Context, c Course) error {
	return s.retry.Do(ctx, retry.Idempotent, func() error {
		return database.Permanent(Update(ctx, s.db, c))
	})
}

func (s *Store) CreateChapter(ctx context.Context, ch Chapter) (Chapter, error) {
	var out Chapter
	err := s.retry.Do(ctx, retry.Once, func() error {
		var err error
		out, err = CreateChapter(ctx, s.db, ch)
		return err
	})
	return out, err
}
