package config

import "time"

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type DB struct {
	User         string `conf:"default:postgres"`
	Password     string `conf:"default:postgres,mask"`
	Host         string `conf:"default:localhost:5432"`
	Name         string `conf:"default:postgres"`
	MaxIdleConns int    `conf:"default:0"`
	MaxOpenConns int    `conf:"default:0"`
	DisableTLS   bool   `conf:"default:true"`
}

type Auth struct {
	SessionLifetime time.Duration `conf:"default:24h"`
	LoginBurst      int           `conf:"default:5"`
	LoginInterval   time.Duration `conf:"default:2s"`
}

type Cors struct {
	Origin string
}

type Email struct {
	Type     string `conf:"default:log"`
	From     string `conf:"default:Learn Online <no-reply@example.com>"`
	Address  string
	Password string `conf:"mask"`
	Host     string `conf:"default:localhost"`
	Port     int    `conf:"default:587"`
}

type SES struct {
	Region          string `conf:"default:us-east-1"`
	AuthType        string `conf:"default:iam_role"`
	AccessKeyID     string `conf:"mask"`
	SecretAccessKey string `conf:"mask"`
}

type Paypal struct {
	ClientID string `conf:"mask"`
	Secret   string `conf:"mask"`
	URL      string `conf:"default:https://api-m.sandbox.paypal.com"`
}

type Stripe struct {
	APISecret     string `conf:"mask"`
	WebhookSecret string `conf:"mask"`
	URL           string
}

type Payment struct {
	Currency string `conf:"default:usd"`
	// Redirect target for both gateways; the course id and the provider
	// specific query parameters are appended.
	ReturnURL string `conf:"default:http://localhost:3000/course"`
}

type OauthProvider struct {
	Client      string
	Secret      string `conf:"mask"`
	URL         string `conf:"default:https://accounts.google.com"`
	RedirectURL string
}

type Oauth struct {
	DiscoveryTimeout time.Duration `conf:"default:10s"`
	LoginRedirectURL string        `conf:"default:http://localhost:3000"`
	Google           OauthProvider
}

type Retry struct {
	Attempts int           `conf:"default:3"`
	Delay    time.Duration `conf:"default:1s"`
}

type Certificate struct {
	Prefix  string `conf:"default:CERT-"`
	LinkURL string `conf:"default:http://localhost:3000/my-certificates"`
}

type Checkout struct {
	Burst    int           `conf:"default:3"`
	Interval time.Duration `conf:"default:5s"`
}

type Config struct {
	Web         Web
	DB          DB
	Auth        Auth
	Cors        Cors
	Email       Email
	SES         SES
	Paypal      Paypal
	Stripe      Stripe
	Payment     Payment
	Oauth       Oauth
	Retry       Retry
	Certificate Certificate
	Checkout    Checkout
}
