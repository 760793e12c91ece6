package video

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/irsalhamdi/ecolearn/api/web"
	"github.com/irsalhamdi/ecolearn/api/weberr"
	"github.com/irsalhamdi/ecolearn/core/claims"
	"github.com/irsalhamdi/ecolearn/core/course"
	"github.com/irsalhamdi/ecolearn/database"
	"github.com/irsalhamdi/ecolearn/validate"
)

// Access reports whether a user holds an access granting enrollment.
type Access interface {
	IsEnrolled(ctx context.Context, userID string, courseID int64) (bool, error)
}

// HandleListByCourse answers with the course outline. Anonymous callers get
// the same outline as signed in users without an enrollment.
func HandleListByCourse(vs *Store, cs *course.Store, acc Access) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courseID, err := validate.ParseID(web.Param(r, "course_id"))
		if err != nil {
			return weberr.BadRequest(err)
		}

		if _, err := cs.Fetch(ctx, courseID); err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		chs, err := cs.ListChapters(ctx, courseID)
		if err != nil {
			return err
		}

		videos, err := vs.ListByCourse(ctx, courseID)
		if err != nil {
			return err
		}

		var enrolled bool
		if clm, err := claims.Get(ctx); err == nil {
			enrolled, err = acc.IsEnrolled(ctx, clm.UserID, courseID)
			if err != nil {
				return fmt.Errorf("checking enrollment: %w", err)
			}
		}

		o := BuildOutline(courseID, chs, videos, NewGate(enrolled, videos))
		return web.Respond(ctx, w, o, http.StatusOK)
	}
}

// HandleShowFree serves the first video of a course to anyone.
func HandleShowFree(vs *Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		v, videos, err := fetchWithCourse(ctx, vs, r)
		if err != nil {
			return err
		}

		if !NewGate(false, videos).Playable(v.ID) {
			return weberr.NewError(ErrLocked, ErrLocked.Error(), http.StatusForbidden)
		}

		return web.Respond(ctx, w, NewPlayable(v), http.StatusOK)
	}
}

func HandleShowFull(vs *Store, acc Access) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		v, videos, err := fetchWithCourse(ctx, vs, r)
		if err != nil {
			return err
		}

		enrolled, err := acc.IsEnrolled(ctx, clm.UserID, v.CourseID)
		if err != nil {
			return fmt.Errorf("checking enrollment: %w", err)
		}

		if !NewGate(enrolled, videos).Playable(v.ID) {
			return weberr.NewError(ErrLocked, ErrLocked.Error(), http.StatusForbidden)
		}

		return web.Respond(ctx, w, NewPlayable(v), http.StatusOK)
	}
}

func HandleCreate(vs *Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var vn VideoNew
		if err := web.Decode(w, r, &vn); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(vn); err != nil {
			return weberr.Invalid(err)
		}

		now := time.Now().UTC()
		v, err := vs.Create(ctx, Video{
			ChapterID:   vn.ChapterID,
			Title:       vn.Title,
			Description: vn.Description,
			URL:         vn.URL,
			Duration:    vn.Duration,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			if errors.Is(err, database.ErrDBMissingRef) {
				return weberr.NewError(err, "chapter does not exist", http.StatusUnprocessableEntity)
			}
			return err
		}

		v, err = vs.Fetch(ctx, v.ID)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, NewPlayable(v), http.StatusCreated)
	}
}

func fetchWithCourse(ctx context.Context, vs *Store, r *http.Request) (Video, []Video, error) {
	id, err := validate.ParseID(web.Param(r, "id"))
	if err != nil {
		return Video{}, nil, weberr.BadRequest(err)
	}

	v, err := vs.Fetch(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return Video{}, nil, weberr.NotFound(err)
		}
		return Video{}, nil, err
	}

	videos, err := vs.ListByCourse(ctx, v.CourseID)
	if err != nil {
		return Video{}, nil, err
	}
	return v, videos, nil
}
