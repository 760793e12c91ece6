package progress

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/ecolearn/api/web"
	"github.com/irsalhamdi/ecolearn/api/weberr"
	"github.com/irsalhamdi/ecolearn/core/claims"
	"github.com/irsalhamdi/ecolearn/database"
	"github.com/irsalhamdi/ecolearn/validate"
)

func HandleCourseProgress(svc *Service) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		courseID, err := validate.ParseID(web.Param(r, "course_id"))
		if err != nil {
			return weberr.BadRequest(err)
		}

		rep, err := svc.CourseProgress(ctx, clm.UserID, courseID)
		if err != nil {
			return fmt.Errorf("computing progress: %w", err)
		}

		return web.Respond(ctx, w, rep, http.StatusOK)
	}
}

func HandleMarkComplete(svc *Service) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		videoID, err := validate.ParseID(web.Param(r, "id"))
		if err != nil {
			return weberr.BadRequest(err)
		}

		m, err := svc.MarkComplete(ctx, clm.UserID, videoID)
		if err != nil {
			return saveError(err)
		}

		return web.Respond(ctx, w, m, http.StatusOK)
	}
}

func HandleUpdateProgress(svc *Service) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		videoID, err := validate.ParseID(web.Param(r, "id"))
		if err != nil {
			return weberr.BadRequest(err)
		}

		var pu ProgressUp
		if err := web.Decode(w, r, &pu); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(pu); err != nil {
			return weberr.Invalid(err)
		}

		m, err := svc.SetProgress(ctx, clm.UserID, videoID, pu.Progress)
		if err != nil {
			return saveError(err)
		}

		return web.Respond(ctx, w, m, http.StatusOK)
	}
}

func saveError(err error) error {
	switch {
	case errors.Is(err, ErrNotSaved):
		return weberr.NewError(err, ErrNotSaved.Error(), http.StatusForbidden)
	case errors.Is(err, database.ErrDBNotFound):
		return weberr.NotFound(err)
	}
	return err
}
