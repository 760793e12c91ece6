package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/ecolearn/api/web"
	"github.com/irsalhamdi/ecolearn/api/weberr"
	"github.com/irsalhamdi/ecolearn/core/user"
	"github.com/irsalhamdi/ecolearn/database"
	"github.com/irsalhamdi/ecolearn/email"
	"github.com/irsalhamdi/ecolearn/validate"
	"golang.org/x/crypto/bcrypt"
)

type Notifier interface {
	Notify(ctx context.Context, n email.Notification) error
}

type Runner interface {
	Go(name string, fn func() error)
}

// Welcomer greets a newly created account.
type Welcomer func(u user.User)

// NewWelcomer sends the welcome mail in the background.
func NewWelcomer(n Notifier, bg Runner) Welcomer {
	return func(u user.User) {
		bg.Go("welcome-mail", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			return n.Notify(ctx, email.Notification{
				Event:    email.Welcome,
				To:       u.Email,
				UserName: u.FullName,
			})
		})
	}
}

// login renews the session token and stores the user in it.
func login(ctx context.Context, sm *scs.SessionManager, us *user.Store, u user.User) (user.Current, error) {
	roles, err := us.Roles(ctx, u.ID)
	if err != nil {
		return user.Current{}, err
	}

	if err := sm.RenewToken(ctx); err != nil {
		return user.Current{}, fmt.Errorf("renewing session token: %w", err)
	}
	sm.Put(ctx, userIDKey, u.ID)
	sm.Put(ctx, roleKey, user.Role(roles))

	return user.Current{User: u, Roles: roles}, nil
}

func HandleSignup(us *user.Store, sm *scs.SessionManager, welcome Welcomer) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var su user.UserSignup
		if err := web.Decode(w, r, &su); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(su); err != nil {
			return weberr.Invalid(err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("generating password hash: %w", err)
		}

		now := time.Now().UTC()
		u := user.User{
			ID:           validate.GenerateID(),
			Email:        strings.ToLower(strings.TrimSpace(su.Email)),
			FullName:     strings.TrimSpace(su.FullName),
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := us.Create(ctx, u); err != nil {
			if errors.Is(err, database.ErrDBDuplicatedEntry) {
				return weberr.NewError(err, "email already registered", http.StatusConflict)
			}
			return fmt.Errorf("creating user: %w", err)
		}

		cur, err := login(ctx, sm, us, u)
		if err != nil {
			return err
		}

		if welcome != nil {
			welcome(u)
		}

		return web.Respond(ctx, w, cur, http.StatusCreated)
	}
}

func HandleLogin(us *user.Store, sm *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var ul user.UserLogin
		if err := web.Decode(w, r, &ul); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(ul); err != nil {
			return weberr.Invalid(err)
		}

		addr := strings.ToLower(strings.TrimSpace(ul.Email))
		attempt := weberr.WithLog(map[string]any{"email": addr})

		u, err := us.FetchByEmail(ctx, addr)
		if err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotAuthorized(err, attempt)
			}
			return err
		}

		if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(ul.Password)); err != nil {
			return weberr.NotAuthorized(fmt.Errorf("wrong password for user[%s]: %w", u.ID, err), attempt)
		}

		cur, err := login(ctx, sm, us, u)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, cur, http.StatusOK)
	}
}

func HandleLogout(sm *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := sm.Destroy(ctx); err != nil {
			return fmt.Errorf("destroying session: %w", err)
		}
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
