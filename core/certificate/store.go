package certificate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/irsalhamdi/ecolearn/database"
	"github.com/irsalhamdi/ecolearn/retry"
	"github.com/jmoiron/sqlx"
)

const numberKey = "certificates_number_key"

// InsertIfAbsent stores c unless the user already holds a certificate for the
// course, in which case the existing one is returned with created false.
func InsertIfAbsent(ctx context.Context, db sqlx.ExtContext, c Certificate) (Certificate, bool, error) {
	const q = `
	INSERT INTO certificates
		(user_id, course_id, certificate_number, issue_date, user_full_name, created_at)
	VALUES
		(:user_id, :course_id, :certificate_number, :issue_date, :user_full_name, :created_at)
	ON CONFLICT (user_id, course_id) DO NOTHING
	RETURNING *`

	var out Certificate
	err := database.NamedQueryStruct(ctx, db, q, c, &out)
	switch {
	case err == nil:
		return out, true, nil
	case !errors.Is(err, database.ErrDBNotFound):
		return Certificate{}, false, err
	}

	out, err = FetchByCourse(ctx, db, c.UserID, c.CourseID)
	if err != nil {
		return Certificate{}, false, err
	}
	return out, false, nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id int64) (Certificate, error) {
	in := struct {
		ID int64 `db:"certificate_id"`
	}{id}

	const q = `
	SELECT * FROM certificates
	WHERE certificate_id = :certificate_id`

	var c Certificate
	if err := database.NamedQueryStruct(ctx, db, q, in, &c); err != nil {
		return Certificate{}, err
	}
	return c, nil
}

func FetchByCourse(ctx context.Context, db sqlx.ExtContext, userID string, courseID int64) (Certificate, error) {
	in := struct {
		UserID   string `db:"user_id"`
		CourseID int64  `db:"course_id"`
	}{userID, courseID}

	const q = `
	SELECT * FROM certificates
	WHERE user_id = :user_id AND course_id = :course_id`

	var c Certificate
	if err := database.NamedQueryStruct(ctx, db, q, in, &c); err != nil {
		return Certificate{}, err
	}
	return c, nil
}

func ListByUser(ctx context.Context, db sqlx.ExtContext, userID string) ([]WithCourse, error) {
	in := struct {
		UserID string `db:"user_id"`
	}{userID}

	const q = `
	SELECT ce.*, co.title AS course_title
	FROM certificates AS ce
	JOIN courses AS co ON co.course_id = ce.course_id
	WHERE ce.user_id = :user_id
	ORDER BY ce.issue_date DESC`

	var cs []WithCourse
	if err := database.NamedQuerySlice(ctx, db, q, in, &cs); err != nil {
		return nil, err
	}
	if cs == nil {
		cs = []WithCourse{}
	}
	return cs, nil
}

type DBStore struct {
	db    *sqlx.DB
	retry retry.Policy
}

func NewStore(db *sqlx.DB, rp retry.Policy) *DBStore {
	return &DBStore{db: db, retry: rp}
}

// IsNumberTaken reports whether err is a clash on the certificate number.
func IsNumberTaken(err error) bool {
	return errors.Is(err, database.ErrDBDuplicatedEntry) && strings.Contains(err.Error(), numberKey)
}

func (s *DBStore) InsertIfAbsent(ctx context.Context, c Certificate) (Certificate, bool, error) {
	var (
		out     Certificate
		created bool
	)
	err := s.retry.Do(ctx, retry.Idempotent, func() error {
		var err error
		out, created, err = InsertIfAbsent(ctx, s.db, c)
		return database.Permanent(err)
	})
	if err != nil {
		return Certificate{}, false, fmt.Errorf("issuing certificate of user[%s] for course[%d]: %w", c.UserID, c.CourseID, err)
	}
	return out, created, nil
}

func (s *DBStore) Fetch(ctx context.Context, id int64) (Certificate, error) {
	var c Certificate
	err := s.retry.Do(ctx, retry.Idempotent, func() error {
		var err error
		c, err = Fetch(ctx, s.db, id)
		return database.Permanent(err)
	})
	if err != nil {
		return Certificate{}, fmt.Errorf("fetching certificate[%d]: %w", id, err)
	}
	return c, nil
}

func (s *DBStore) ListByUser(ctx context.Context, userID string) ([]WithCourse, error) {
	var cs []WithCourse
	err := s.retry.Do(ctx, retry.Idempotent, func() error {
		var err error
		cs, err = ListByUser(ctx, s.db, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing certificates of user[%s]: %w", userID, err)
	}
	return cs, nil
}
