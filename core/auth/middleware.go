package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/ecolearn/api/web"
	"github.com/irsalhamdi/ecolearn/api/weberr"
	"github.com/irsalhamdi/ecolearn/core/claims"
)

const (
	userIDKey = "userID"
	roleKey   = "role"
	stateKey  = "oauthState"
)

// LoadAndSave loads the session before the handler runs and commits it,
// cookie included, once the handler returns.
func LoadAndSave(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var herr error

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				herr = handler(r.Context(), w, r)
			})
			sm.LoadAndSave(next).ServeHTTP(w, r.WithContext(ctx))

			return herr
		}
		return h
	}
	return m
}

func fromSession(ctx context.Context, sm *scs.SessionManager) (claims.Claims, bool) {
	id := sm.GetString(ctx, userIDKey)
	if id == "" {
		return claims.Claims{}, false
	}

	role := sm.GetString(ctx, roleKey)
	if role == "" {
		role = claims.RoleUser
	}
	return claims.Claims{UserID: id, Role: role}, true
}

// Authenticate rejects requests without a signed in user.
func Authenticate(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			clm, ok := fromSession(ctx, sm)
			if !ok {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}
			return handler(claims.Set(ctx, clm), w, r)
		}
		return h
	}
	return m
}

// Identify sets the claims when a user is signed in and lets anonymous
// requests through.
func Identify(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if clm, ok := fromSession(ctx, sm); ok {
				ctx = claims.Set(ctx, clm)
			}
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

func Admin(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			clm, ok := fromSession(ctx, sm)
			if !ok {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}
			if !clm.Admin() {
				return weberr.Forbidden(errors.New("admin role required"))
			}
			return handler(claims.Set(ctx, clm), w, r)
		}
		return h
	}
	return m
}
