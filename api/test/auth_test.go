package test

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/irsalhamdi/ecolearn/api/weberr"
	"github.com/irsalhamdi/ecolearn/core/user"
)

func TestAuth(t *testing.T) {
	env, err := NewTestEnv(t, "auth_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	su := user.UserSignup{
		Email:           "New.Learner@Example.com",
		FullName:        "Grace Hopper",
		Password:        "correct-horse",
		PasswordConfirm: "correct-horse",
	}

	t.Run("signup signs in", func(t *testing.T) {
		var cur user.Current
		DoJSON(t, env.Server, http.MethodPost, "/auth/signup", su, http.StatusCreated, &cur)

		if cur.Email != "new.learner@example.com" {
			t.Errorf("email not normalized: %q", cur.Email)
		}
		if diff := cmp.Diff([]string{"user"}, cur.Roles); diff != "" {
			t.Errorf("roles mismatch (-want +got):\n%s", diff)
		}

		var me user.Current
		DoJSON(t, env.Server, http.MethodGet, "/users/current", nil, http.StatusOK, &me)
		if me.ID != cur.ID {
			t.Errorf("current user: want %s, got %s", cur.ID, me.ID)
		}

		if err := Logout(env.Server); err != nil {
			t.Fatal(err)
		}
		DoJSON(t, env.Server, http.MethodGet, "/users/current", nil, http.StatusUnauthorized, nil)
	})

	t.Run("duplicate email", func(t *testing.T) {
		DoJSON(t, env.Server, http.MethodPost, "/auth/signup", su, http.StatusConflict, nil)
	})

	t.Run("mismatched confirmation", func(t *testing.T) {
		bad := su
		bad.Email = "other@example.com"
		bad.PasswordConfirm = "something-else"

		var er weberr.ErrorResponse
		DoJSON(t, env.Server, http.MethodPost, "/auth/signup", bad, http.StatusUnprocessableEntity, &er)
		if _, ok := er.Fields["passwordConfirm"]; !ok {
			t.Errorf("expected passwordConfirm to be reported, got %v", er.Fields)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		body := user.UserLogin{Email: env.UserEmail, Password: "not-the-password"}
		DoJSON(t, env.Server, http.MethodPost, "/auth/login", body, http.StatusUnauthorized, nil)
	})

	t.Run("admin role is carried by the session", func(t *testing.T) {
		if err := Login(env.Server, env.AdminEmail, env.AdminPass); err != nil {
			t.Fatal(err)
		}
		defer Logout(env.Server)

		DoJSON(t, env.Server, http.MethodGet, "/admin/summary", nil, http.StatusOK, nil)
	})

	t.Run("health", func(t *testing.T) {
		DoJSON(t, env.Server, http.MethodGet, "/health", nil, http.StatusOK, nil)
	})
}
