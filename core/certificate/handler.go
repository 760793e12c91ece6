package certificate

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

func HandleList(s *DBStore) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		cs, err := s.ListByUser(ctx, clm.UserID)
		if err != nil {
			return err
		}
		return web.Respond(ctx, w, cs, http.StatusOK)
	}
}

func HandleIssue(is *Issuer) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		courseID, err := validate.ParseID(web.Param(r, "course_id"))
		if err != nil {
			return weberr.BadRequest(err)
		}

		u, err := is.Users.Fetch(ctx, clm.UserID)
		if err != nil {
			return err
		}

		c, created, err := is.Issue(ctx, clm.UserID, courseID, u.FullName)
		if err != nil {
			if errors.Is(err, ErrIncomplete) {
				return weberr.NewError(err, "watch every video of the course to earn its certificate", http.StatusUnprocessableEntity)
			}
			return fmt.Errorf("issuing certificate: %w", err)
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		return web.Respond(ctx, w, c, status)
	}
}

// HandleImage serves the certificate as a PNG to its owner or an admin.
func HandleImage(s *DBStore, cs Courses) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := validate.ParseID(web.Param(r, "id"))
		if err != nil {
			return weberr.BadRequest(err)
		}

		c, err := s.Fetch(ctx, id)
		if err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if !claims.IsUserOrAdmin(ctx, c.UserID) {
			return weberr.NotFound(fmt.Errorf("certificate[%d] does not belong to the caller", id))
		}

		co, err := cs.Fetch(ctx, c.CourseID)
		if err != nil {
			return err
		}

		img, err := Render(c, co.Title)
		if err != nil {
			return err
		}

		return web.RespondFile(ctx, w, img, "image/png", c.Number+".png")
	}
}
