package user

import (
	"context"
	"errors"
	"net/http"

	"github.com/irsalhamdi/ecolearn/api/web"
	"github.com/irsalhamdi/ecolearn/api/weberr"
	"github.com/irsalhamdi/ecolearn/core/claims"
	"github.com/irsalhamdi/ecolearn/database"
)

func HandleShowCurrent(s *Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		u, err := s.Fetch(ctx, clm.UserID)
		if err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		roles, err := s.Roles(ctx, u.ID)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, Current{User: u, Roles: roles}, http.StatusOK)
	}
}
