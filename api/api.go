package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/irsalhamdi/ecolearn/api/background"
	"github.com/irsalhamdi/ecolearn/api/middleware"
	"github.com/irsalhamdi/ecolearn/api/web"
	"github.com/irsalhamdi/ecolearn/config"
	"github.com/irsalhamdi/ecolearn/core/admin"
	"github.com/irsalhamdi/ecolearn/core/auth"
	"github.com/irsalhamdi/ecolearn/core/certificate"
	"github.com/irsalhamdi/ecolearn/core/course"
	"github.com/irsalhamdi/ecolearn/core/enrollment"
	"github.com/irsalhamdi/ecolearn/core/order"
	"github.com/irsalhamdi/ecolearn/core/progress"
	"github.com/irsalhamdi/ecolearn/core/user"
	"github.com/irsalhamdi/ecolearn/core/video"
	"github.com/irsalhamdi/ecolearn/database"
	"github.com/irsalhamdi/ecolearn/email"
	"github.com/irsalhamdi/ecolearn/rate"
	"github.com/irsalhamdi/ecolearn/retry"
	"github.com/jmoiron/sqlx"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

type APIConfig struct {
	CorsOrigin       string
	Log              logrus.FieldLogger
	DB               *sqlx.DB
	Retry            retry.Policy
	Session          *scs.SessionManager
	Mailer           email.Mailer
	Background       *background.Background
	Paypal           *paypal.Client
	Stripe           *stripecl.API
	StripeCfg        config.Stripe
	Payment          config.Payment
	Certificate      config.Certificate
	Providers        map[string]auth.Provider
	LoginRedirectURL string
	LoginLimiter     *rate.Limiter
	CheckoutLimiter  *rate.Limiter
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) (http.Handler, error) {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	users := user.NewStore(cfg.DB, cfg.Retry)
	courses := course.NewStore(cfg.DB, cfg.Retry)
	videos := video.NewStore(cfg.DB, cfg.Retry)
	enrolls := enrollment.NewStore(cfg.DB, cfg.Retry)
	progs := progress.NewStore(cfg.DB, cfg.Retry)
	certs := certificate.NewStore(cfg.DB, cfg.Retry)
	orders := order.NewStore(cfg.DB, cfg.Retry)
	reports := admin.NewStore(cfg.DB, cfg.Retry)

	notifier := email.NewNotifier(cfg.Mailer)
	welcome := auth.NewWelcomer(notifier, cfg.Background)

	issuer := certificate.NewIssuer(certificate.IssuerConfig{
		Log:         cfg.Log,
		Store:       certs,
		Videos:      videos,
		Watched:     progs,
		Enrollments: enrolls,
		Users:       users,
		Courses:     courses,
		Notifier:    notifier,
		Background:  cfg.Background,
		Prefix:      cfg.Certificate.Prefix,
		LinkURL:     cfg.Certificate.LinkURL,
	})

	progSvc := progress.NewService(cfg.Log, progs, videos, enrolls, issuer)

	var gateways []order.Gateway
	if cfg.Paypal != nil {
		gateways = append(gateways, order.NewPaypalGateway(cfg.Paypal, cfg.Payment.ReturnURL))
	}
	if cfg.Stripe != nil {
		gateways = append(gateways, order.NewStripeGateway(cfg.Stripe, cfg.Payment.ReturnURL))
	}

	orc, err := order.NewOrchestrator(order.Config{
		Log:        cfg.Log,
		Store:      orders,
		Courses:    courses,
		Users:      users,
		Access:     enrolls,
		Notifier:   notifier,
		Background: cfg.Background,
		Currency:   cfg.Payment.Currency,
		Gateways:   gateways,
	})
	if err != nil {
		return nil, fmt.Errorf("building payment orchestrator: %w", err)
	}

	authen := auth.Authenticate(cfg.Session)
	ident := auth.Identify(cfg.Session)
	adm := auth.Admin(cfg.Session)

	var loginLimit, checkoutLimit []web.Middleware
	if cfg.LoginLimiter != nil {
		loginLimit = append(loginLimit, middleware.RateLimit(cfg.LoginLimiter))
	}
	if cfg.CheckoutLimiter != nil {
		checkoutLimit = append(checkoutLimit, middleware.RateLimit(cfg.CheckoutLimiter))
	}

	a.Handle(http.MethodGet, "/health", handleHealth(cfg.DB))

	a.Handle(http.MethodPost, "/auth/signup", auth.HandleSignup(users, cfg.Session, welcome), loginLimit...)
	a.Handle(http.MethodPost, "/auth/login", auth.HandleLogin(users, cfg.Session), loginLimit...)
	a.Handle(http.MethodPost, "/auth/logout", auth.HandleLogout(cfg.Session))
	a.Handle(http.MethodGet, "/auth/oauth-login/{provider}", auth.HandleOauthLogin(cfg.Session, cfg.Providers))
	a.Handle(http.MethodGet, "/auth/oauth-callback/{provider}", auth.HandleOauthCallback(users, cfg.Session, cfg.Providers, cfg.LoginRedirectURL, welcome))

	a.Handle(http.MethodGet, "/users/current", user.HandleShowCurrent(users), authen)

	a.Handle(http.MethodGet, "/courses/owned", course.HandleListOwned(courses), authen)
	a.Handle(http.MethodGet, "/courses/{course_id}/videos", video.HandleListByCourse(videos, courses, enrolls), ident)
	a.Handle(http.MethodGet, "/courses/{course_id}/progress", progress.HandleCourseProgress(progSvc), authen)
	a.Handle(http.MethodPost, "/courses/{course_id}/certificate", certificate.HandleIssue(issuer), authen)
	a.Handle(http.MethodPost, "/courses/{course_id}/checkout", order.HandleCheckout(orc), append(checkoutLimit, authen)...)
	a.Handle(http.MethodPost, "/courses/{course_id}/payment-return", order.HandleReturn(orc), authen)
	a.Handle(http.MethodGet, "/courses/{id}", course.HandleShow(courses))
	a.Handle(http.MethodGet, "/courses", course.HandleList(courses))
	a.Handle(http.MethodPost, "/courses", course.HandleCreate(courses), adm)
	a.Handle(http.MethodPut, "/courses/{id}", course.HandleUpdate(courses), adm)

	a.Handle(http.MethodPost, "/chapters", course.HandleCreateChapter(courses), adm)

	a.Handle(http.MethodGet, "/videos/{id}/full", video.HandleShowFull(videos, enrolls), authen)
	a.Handle(http.MethodGet, "/videos/{id}/free", video.HandleShowFree(videos))
	a.Handle(http.MethodPost, "/videos/{id}/complete", progress.HandleMarkComplete(progSvc), authen)
	a.Handle(http.MethodPut, "/videos/{id}/progress", progress.HandleUpdateProgress(progSvc), authen)
	a.Handle(http.MethodPost, "/videos", video.HandleCreate(videos), adm)

	a.Handle(http.MethodGet, "/certificates", certificate.HandleList(certs), authen)
	a.Handle(http.MethodGet, "/certificates/{id}/image", certificate.HandleImage(certs, courses), authen)

	a.Handle(http.MethodPost, "/orders/stripe/webhook", order.HandleStripeWebhook(orc, cfg.StripeCfg.WebhookSecret))

	a.Handle(http.MethodGet, "/admin/summary", admin.HandleSummary(reports), adm)
	a.Handle(http.MethodGet, "/admin/search", admin.HandleSearch(reports), adm)

	return a.Router, nil
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}

func handleHealth(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		ctx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()

		status := struct {
			Status string `json:"status"`
		}{Status: "ok"}

		code := http.StatusOK
		if err := database.StatusCheck(ctx, db); err != nil {
			status.Status = "db not ready"
			code = http.StatusInternalServerError
		}

		return web.Respond(ctx, w, status, code)
	}
}
