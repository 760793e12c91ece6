package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/irsalhamdi/ecolearn/api/web"
	"github.com/irsalhamdi/ecolearn/api/weberr"
	"github.com/irsalhamdi/ecolearn/rate"
)

// RateLimit rejects clients, keyed by remote host, that exceed lim.
func RateLimit(lim *rate.Limiter) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			if !lim.Check(host) {
				err := errors.New("rate limit exceeded")
				return weberr.NewError(err, "too many requests, slow down", http.StatusTooManyRequests,
					weberr.WithLog(map[string]any{"client": host}))
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
