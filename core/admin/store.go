package admin

import (
	"context"
	"fmt"

	"github.com/irsalhamdi/ecolearn/core/course"
	"github.com/irsalhamdi/ecolearn/database"
	"github.com/irsalhamdi/ecolearn/retry"
	"github.com/jmoiron/sqlx"
)

func FetchSummary(ctx context.Context, db sqlx.ExtContext) (Summary, error) {
	const q = `
	SELECT
		(SELECT COUNT(*) FROM users) AS users,
		(SELECT COUNT(*) FROM courses) AS courses,
		(SELECT COUNT(*) FROM course_enrollments) AS enrollments,
		(SELECT COUNT(*) FROM user_progress WHERE watched = true) AS completions`

	var s Summary
	if err := database.NamedQueryStruct(ctx, db, q, struct{}{}, &s); err != nil {
		return Summary{}, err
	}
	return s, nil
}

type filter struct {
	Query string `db:"q"`
}

// SearchUsers matches q case-insensitively against the user's email, name
// and id. An empty q matches every row.
func SearchUsers(ctx context.Context, db sqlx.ExtContext, q string) ([]UserRow, error) {
	const stmt = `
	SELECT user_id, email, full_name, created_at FROM users
	WHERE email ILIKE '%' || :q || '%'
		OR full_name ILIKE '%' || :q || '%'
		OR CAST(user_id AS TEXT) ILIKE '%' || :q || '%'
	ORDER BY created_at DESC`

	var rows []UserRow
	if err := database.NamedQuerySlice(ctx, db, stmt, filter{escape(q)}, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []UserRow{}
	}
	return rows, nil
}

func SearchCourses(ctx context.Context, db sqlx.ExtContext, q string) ([]course.Course, error) {
	const stmt = `
	SELECT * FROM courses
	WHERE title ILIKE '%' || :q || '%'
		OR description ILIKE '%' || :q || '%'
	ORDER BY created_at DESC`

	var rows []course.Course
	if err := database.NamedQuerySlice(ctx, db, stmt, filter{escape(q)}, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []course.Course{}
	}
	return rows, nil
}

func SearchEnrollments(ctx context.Context, db sqlx.ExtContext, q string) ([]EnrollmentRow, error) {
	const stmt = `
	SELECT e.*, u.email AS user_email, c.title AS course_title
	FROM course_enrollments AS e
	JOIN users AS u ON u.user_id = e.user_id
	JOIN courses AS c ON c.course_id = e.course_id
	WHERE e.status ILIKE '%' || :q || '%'
		OR CAST(e.user_id AS TEXT) ILIKE '%' || :q || '%'
		OR CAST(e.course_id AS TEXT) ILIKE '%' || :q || '%'
		OR u.email ILIKE '%' || :q || '%'
		OR c.title ILIKE '%' || :q || '%'
	ORDER BY e.enrollment_date DESC`

	var rows []EnrollmentRow
	if err := database.NamedQuerySlice(ctx, db, stmt, filter{escape(q)}, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []EnrollmentRow{}
	}
	return rows, nil
}

type Store struct {
	db    *sqlx.DB
	retry retry.Policy
}

func NewStore(db *sqlx.DB, rp retry.Policy) *Store {
	return &Store{db: db, retry: rp}
}

func (s *Store) Summary(ctx context.Context) (Summary, error) {
	var sum Summary
	err := s.retry.Do(ctx, retry.Idempotent, func() error {
		var err error
		sum, err = FetchSummary(ctx, s.db)
		return err
	})
	if err != nil {
		return Summary{}, fmt.Errorf("computing summary: %w", err)
	}
	return sum, nil
}

func (s *Store) Search(ctx context.Context, q string) (SearchResult, error) {
	res := SearchResult{Query: q}
	err := s.retry.Do(ctx, retry.Idempotent, func() error {
		var err error
		if res.Users, err = SearchUsers(ctx, s.db, q); err != nil {
			return err
		}
		if res.Courses, err = SearchCourses(ctx, s.db, q); err != nil {
			return err
		}
		res.Enrollments, err = SearchEnrollments(ctx, s.db, q)
		return err
	})
	if err != nil {
		return SearchResult{}, fmt.Errorf("searching for %q: %w", q, err)
	}
	return res, nil
}
