package certificate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/irsalhamdi/ecolearn/core/course"
	"github.com/irsalhamdi/ecolearn/core/progress"
	"github.com/irsalhamdi/ecolearn/core/user"
	"github.com/irsalhamdi/ecolearn/email"
	"github.com/sirupsen/logrus"
)

type Store interface {
	InsertIfAbsent(ctx context.Context, c Certificate) (Certificate, bool, error)
}

type Videos interface {
	IDsByCourse(ctx context.Context, courseID int64) ([]int64, error)
}

type Watched interface {
	Watched(ctx context.Context, userID string) ([]int64, error)
}

type Enrollments interface {
	Complete(ctx context.Context, userID string, courseID int64) error
}

type Users interface {
	Fetch(ctx context.Context, id string) (user.User, error)
}

type Courses interface {
	Fetch(ctx context.Context, id int64) (course.Course, error)
}

type Notifier interface {
	Notify(ctx context.Context, n email.Notification) error
}

// Runner runs work after the request has been answered.
type Runner interface {
	Go(name string, fn func() error)
}

type IssuerConfig struct {
	Log         logrus.FieldLogger
	Store       Store
	Videos      Videos
	Watched     Watched
	Enrollments Enrollments
	Users       Users
	Courses     Courses
	Notifier    Notifier
	Background  Runner
	Prefix      string
	LinkURL     string
}

type Issuer struct {
	IssuerConfig
	now func() time.Time
}

func NewIssuer(cfg IssuerConfig) *Issuer {
	return &Issuer{
		IssuerConfig: cfg,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

const numberAttempts = 3

// Issue awards the course certificate to userID when every video of the
// course has been watched. An existing certificate is returned as is, with
// created false.
func (is *Issuer) Issue(ctx context.Context, userID string, courseID int64, fullName string) (Certificate, bool, error) {
	ids, err := is.Videos.IDsByCourse(ctx, courseID)
	if err != nil {
		return Certificate{}, false, err
	}

	watched, err := is.Watched.Watched(ctx, userID)
	if err != nil {
		return Certificate{}, false, err
	}

	if !progress.Calculate(ids, watched).AllWatched {
		return Certificate{}, false, ErrIncomplete
	}

	var (
		c       Certificate
		created bool
	)
	for i := 0; i < numberAttempts; i++ {
		num, err := NewNumber(is.Prefix)
		if err != nil {
			return Certificate{}, false, err
		}

		now := is.now()
		c, created, err = is.Store.InsertIfAbsent(ctx, Certificate{
			UserID:       userID,
			CourseID:     courseID,
			Number:       num,
			IssueDate:    now,
			UserFullName: fullName,
			CreatedAt:    now,
		})
		if err == nil {
			break
		}
		if !IsNumberTaken(err) || i == numberAttempts-1 {
			return Certificate{}, false, err
		}
	}

	if !created {
		return c, false, nil
	}

	log := is.Log.WithFields(logrus.Fields{
		"user_id":   userID,
		"course_id": courseID,
		"number":    c.Number,
	})
	log.Info("certificate issued")

	if err := is.Enrollments.Complete(ctx, userID, courseID); err != nil {
		log.Errorf("completing enrollment: %v", err)
	}

	is.notify(userID, courseID)

	return c, true, nil
}

// CourseWatched issues the certificate under the user's current name. A
// course with videos left is not an error.
func (is *Issuer) CourseWatched(ctx context.Context, userID string, courseID int64) (bool, error) {
	u, err := is.Users.Fetch(ctx, userID)
	if err != nil {
		return false, err
	}

	_, created, err := is.Issue(ctx, userID, courseID, u.FullName)
	if errors.Is(err, ErrIncomplete) {
		return false, nil
	}
	return created, err
}

func (is *Issuer) notify(userID string, courseID int64) {
	if is.Notifier == nil || is.Background == nil {
		return
	}

	is.Background.Go("certificate-mail", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		u, err := is.Users.Fetch(ctx, userID)
		if err != nil {
			return fmt.Errorf("fetching recipient: %w", err)
		}

		c, err := is.Courses.Fetch(ctx, courseID)
		if err != nil {
			return fmt.Errorf("fetching course: %w", err)
		}

		return is.Notifier.Notify(ctx, email.Notification{
			Event:           email.Certificate,
			To:              u.Email,
			UserName:        u.FullName,
			CourseTitle:     c.Title,
			CertificateLink: is.LinkURL,
		})
	})
}
