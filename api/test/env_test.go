package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/ecolearn/api"
	"github.com/irsalhamdi/ecolearn/api/background"
	"github.com/irsalhamdi/ecolearn/config"
	"github.com/irsalhamdi/ecolearn/core/auth"
	"github.com/irsalhamdi/ecolearn/core/claims"
	"github.com/irsalhamdi/ecolearn/core/user"
	"github.com/irsalhamdi/ecolearn/database"
	"github.com/irsalhamdi/ecolearn/email"
	"github.com/irsalhamdi/ecolearn/retry"
	"github.com/irsalhamdi/ecolearn/validate"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
	"golang.org/x/crypto/bcrypt"
)

type TestEnv struct {
	*httptest.Server
	DB            *sqlx.DB
	Paypal        *mockPaypal
	Stripe        *mockStripe
	UserEmail     string
	UserPass      string
	AdminEmail    string
	AdminPass     string
	WebhookSecret string
}

func NewTestEnv(t *testing.T, name string) (*TestEnv, error) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping api test in short mode")
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	if os.Getenv("TEST_VERBOSE") != "" {
		log.SetOutput(os.Stdout)
	}

	db, err := startDB(t, name)
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(db); err != nil {
		return nil, err
	}

	rp := retry.Policy{Attempts: 3, Delay: 10 * time.Millisecond, Log: log}

	pm := &mockPaypal{declined: map[string]bool{}}
	ppSrv := httptest.NewServer(pm.handle())
	t.Cleanup(ppSrv.Close)

	pp, err := paypal.NewClient("client", "secret", ppSrv.URL)
	if err != nil {
		return nil, fmt.Errorf("building paypal client: %w", err)
	}

	sm := &mockStripe{unpaid: map[string]bool{}}
	stSrv := httptest.NewServer(sm.handle())
	t.Cleanup(stSrv.Close)

	strp := &stripecl.API{}
	strp.Init("sk_test_key", &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{URL: stripe.String(stSrv.URL)}),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, &stripe.BackendConfig{URL: stripe.String(stSrv.URL)}),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, &stripe.BackendConfig{URL: stripe.String(stSrv.URL)}),
	})

	session := scs.New()
	session.Lifetime = time.Hour

	bg := background.New(log)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		bg.Shutdown(ctx)
	})

	const secret = "whsec_test"

	mux, err := api.APIMux(api.APIConfig{
		Log:         log,
		DB:          db,
		Retry:       rp,
		Session:     session,
		Mailer:      email.NewLog(log),
		Background:  bg,
		Paypal:      pp,
		Stripe:      strp,
		StripeCfg:   config.Stripe{WebhookSecret: secret},
		Payment:     config.Payment{Currency: "usd", ReturnURL: "http://localhost:3000/course"},
		Certificate: config.Certificate{Prefix: "CERT-", LinkURL: "http://localhost:3000/my-certificates"},
		Providers:   map[string]auth.Provider{},
	})
	if err != nil {
		return nil, err
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	srv.Client().Jar = jar

	env := &TestEnv{
		Server:        srv,
		DB:            db,
		Paypal:        pm,
		Stripe:        sm,
		UserEmail:     "learner@example.com",
		UserPass:      "learner-pass",
		AdminEmail:    "admin@example.com",
		AdminPass:     "admin-pass",
		WebhookSecret: secret,
	}

	us := user.NewStore(db, rp)
	if err := createUser(us, env.UserEmail, env.UserPass, "Ada Lovelace"); err != nil {
		return nil, err
	}
	if err := createUser(us, env.AdminEmail, env.AdminPass, "Site Admin"); err != nil {
		return nil, err
	}

	adm, err := us.FetchByEmail(context.Background(), env.AdminEmail)
	if err != nil {
		return nil, err
	}
	if err := us.GrantRole(context.Background(), adm.ID, claims.RoleAdmin); err != nil {
		return nil, err
	}

	return env, nil
}

func startDB(t *testing.T, name string) (*sqlx.DB, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("connecting to docker: %w", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "15-alpine",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_PASSWORD=postgres",
			"POSTGRES_DB=" + name,
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, fmt.Errorf("starting postgres: %w", err)
	}
	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("purging postgres container: %v", err)
		}
	})
	resource.Expire(300)

	cfg := config.DB{
		User:       "postgres",
		Password:   "postgres",
		Host:       resource.GetHostPort("5432/tcp"),
		Name:       name,
		DisableTLS: true,
	}

	var db *sqlx.DB
	pool.MaxWait = 2 * time.Minute
	err = pool.Retry(func() error {
		var err error
		db, err = database.Open(cfg)
		if err != nil {
			return err
		}
		return db.Ping()
	})
	if err != nil {
		return nil, fmt.Errorf("waiting for postgres: %w", err)
	}
	t.Cleanup(func() { db.Close() })

	return db, nil
}

func createUser(us *user.Store, email string, pass string, name string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.MinCost)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	return us.Create(context.Background(), user.User{
		ID:           validate.GenerateID(),
		Email:        email,
		FullName:     name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func Login(srv *httptest.Server, email string, pass string) error {
	body := map[string]string{"email": email, "password": pass}

	w, err := Do(srv, http.MethodPost, "/auth/login", body)
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		return fmt.Errorf("can't login: status code %s", w.Status)
	}
	return nil
}

func Logout(srv *httptest.Server) error {
	w, err := Do(srv, http.MethodPost, "/auth/logout", nil)
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusNoContent {
		return fmt.Errorf("can't logout: status code %s", w.Status)
	}
	return nil
}

// Do sends body as JSON to path on srv. A nil body sends no payload.
func Do(srv *httptest.Server, method string, path string, body any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}

	r, err := http.NewRequest(method, srv.URL+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	return srv.Client().Do(r)
}

// DoJSON is Do followed by a status check and the decoding of the response
// into out, when out is not nil.
func DoJSON(t *testing.T, srv *httptest.Server, method string, path string, body any, status int, out any) {
	t.Helper()

	w, err := Do(srv, method, path, body)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if w.StatusCode != status {
		b, _ := io.ReadAll(w.Body)
		t.Fatalf("%s %s: expected status %d, got %s: %s", method, path, status, w.Status, b)
	}

	if out == nil {
		return
	}
	if err := json.NewDecoder(w.Body).Decode(out); err != nil {
		t.Fatalf("%s %s: decoding response: %v", method, path, err)
	}
}
