package enrollment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/irsalhamdi/ecolearn/database"
	"github.com/irsalhamdi/ecolearn/retry"
	"github.com/jmoiron/sqlx"
)

// Ensure makes sure an access granting enrollment exists. An expired one is
// reactivated, an active or completed one is left alone. It reports whether a
// row was written.
func Ensure(ctx context.Context, db sqlx.ExtContext, e Enrollment) (bool, error) {
	const q = `
	INSERT INTO course_enrollments
		(user_id, course_id, status, payment_id, enrollment_date, created_at, updated_at)
	VALUES
		(:user_id, :course_id, :status, :payment_id, :enrollment_date, :created_at, :updated_at)
	ON CONFLICT (user_id, course_id) DO UPDATE SET
		status = EXCLUDED.status,
		payment_id = EXCLUDED.payment_id,
		enrollment_date = EXCLUDED.enrollment_date,
		updated_at = EXCLUDED.updated_at
	WHERE course_enrollments.status = 'expired'`

	n, err := database.NamedExecContext(ctx, db, q, e)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, userID string, courseID int64) (Enrollment, error) {
	in := struct {
		UserID   string `db:"user_id"`
		CourseID int64  `db:"course_id"`
	}{userID, courseID}

	const q = `
	SELECT * FROM course_enrollments
	WHERE user_id = :user_id AND course_id = :course_id`

	var e Enrollment
	if err := database.NamedQueryStruct(ctx, db, q, in, &e); err != nil {
		return Enrollment{}, err
	}
	return e, nil
}

func ListByUser(ctx context.Context, db sqlx.ExtContext, userID string) ([]Enrollment, error) {
	in := struct {
		UserID string `db:"user_id"`
	}{userID}

	const q = `
	SELECT * FROM course_enrollments
	WHERE user_id = :user_id
	ORDER BY enrollment_date DESC`

	var es []Enrollment
	if err := database.NamedQuerySlice(ctx, db, q, in, &es); err != nil {
		return nil, err
	}
	if es == nil {
		es = []Enrollment{}
	}
	return es, nil
}

// Complete moves an active enrollment to completed.
func Complete(ctx context.Context, db sqlx.ExtContext, userID string, courseID int64, now time.Time) error {
	in := struct {
		UserID    string    `db:"user_id"`
		CourseID  int64     `db:"course_id"`
		UpdatedAt time.Time `db:"updated_at"`
	}{userID, courseID, now}

	const q = `
	UPDATE course_enrollments SET
		status = 'completed',
		updated_at = :updated_at
	WHERE user_id = :user_id AND course_id = :course_id AND status = 'active'`

	_, err := database.NamedExecContext(ctx, db, q, in)
	return err
}

type Store struct {
	db    *sqlx.DB
	retry retry.Policy
}

func NewStore(db *sqlx.DB, rp retry.Policy) *Store {
	return &Store{db: db, retry: rp}
}

func (s *Store) IsEnrolled(ctx context.Context, userID string, courseID int64) (bool, error) {
	var e Enrollment
	err := s.retry.Do(ctx, retry.Idempotent, func() error {
		var err error
		e, err = Fetch(ctx, s.db, userID, courseID)
		return database.Permanent(err)
	})
	switch {
	case errors.Is(err, database.ErrDBNotFound):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("fetching enrollment of user[%s] in course[%d]: %w", userID, courseID, err)
	}
	return e.Status.GrantsAccess(), nil
}

func (s *Store) Ensure(ctx context.Context, e Enrollment) (bool, error) {
	var created bool
	err := s.retry.Do(ctx, retry.Idempotent, func() error {
		var err error
		created, err = Ensure(ctx, s.db, e)
		return database.Permanent(err)
	})
	if err != nil {
		return false, fmt.Errorf("ensuring enrollment of user[%s] in course[%d]: %w", e.UserID, e.CourseID, err)
	}
	return created, nil
}

func (s *Store) Complete(ctx context.Context, userID string, courseID int64) error {
	now := time.Now().UTC()
	err := s.retry.Do(ctx, retry.Idempotent, func() error {
		return Complete(ctx, s.db, userID, courseID, now)
	})
	if err != nil {
		return fmt.Errorf("completing enrollment of user[%s] in course[%d]: %w", userID, courseID, err)
	}
	return nil
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]Enrollment, error) {
	var es []Enrollment
	err := s.retry.Do(ctx, retry.Idempotent, func() error {
		var err error
		es, err = ListByUser(ctx, s.db, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing enrollments of user[%s]: %w", userID, err)
	}
	return es, nil
}

// New builds an active enrollment stamped with now.
func New(userID string, courseID int64, paymentID string, now time.Time) Enrollment {
	e := Enrollment{
		UserID:         userID,
		CourseID:       courseID,
		Status:         Active,
		EnrollmentDate: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if paymentID != "" {
		e.PaymentID = &paymentID
	}
	return e
}
