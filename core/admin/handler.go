package admin

import (
	"context"
	"net/http"

	"github.com/irsalhamdi/ecolearn/api/web"
)

func HandleSummary(s *Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		sum, err := s.Summary(ctx)
		if err != nil {
			return err
		}
		return web.Respond(ctx, w, sum, http.StatusOK)
	}
}

func HandleSearch(s *Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		res, err := s.Search(ctx, web.Query(r, "q"))
		if err != nil {
			return err
		}
		return web.Respond(ctx, w, res, http.StatusOK)
	}
}
