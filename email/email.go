// Package email renders the learner notifications and hands them to a Mailer.
package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/irsalhamdi/ecolearn/config"
	"github.com/sirupsen/logrus"
)

type Event string

const (
	Welcome     Event = "welcome"
	Enrollment  Event = "enrollment"
	Certificate Event = "certificate"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

type Notification struct {
	Event           Event
	To              string
	UserName        string
	CourseTitle     string
	CertificateLink string
}

var ErrInvalid = errors.New("invalid notification: missing event or recipient")

var templates = map[Event]struct {
	subject string
	body    *template.Template
}{
	Welcome: {
		subject: "Welcome to Our Courses!",
		body: template.Must(template.New("welcome").Parse(
			`<h2>Welcome, {{.UserName}}!</h2>
<p>Your account has been created successfully. Enjoy learning with us.</p>`)),
	},
	Enrollment: {
		subject: "Course Enrollment Confirmation",
		body: template.Must(template.New("enrollment").Parse(
			`<h2>Congratulations, {{.UserName}}!</h2>
<p>You have been enrolled in <b>{{.CourseTitle}}</b>. Start your journey now!</p>`)),
	},
	Certificate: {
		subject: "Certificate Awarded",
		body: template.Must(template.New("certificate").Parse(
			`<h2>Great job, {{.UserName}}!</h2>
<p>You have completed <b>{{.CourseTitle}}</b> and earned a certificate.</p>
{{- if .CertificateLink}}
<p>Your certificate: <a href="{{.CertificateLink}}" target="_blank">{{.CertificateLink}}</a></p>
{{- end}}
<p>Visit your dashboard to download and share it!</p>`)),
	},
}

// Render returns the subject and html body of n. Unknown events render a
// generic notification.
func Render(n Notification) (string, string, error) {
	if n.UserName == "" {
		n.UserName = "Learner"
	}

	t, ok := templates[n.Event]
	if !ok {
		return "Notification", "<p>Generic notification.</p>", nil
	}

	var buf bytes.Buffer
	if err := t.body.Execute(&buf, n); err != nil {
		return "", "", fmt.Errorf("rendering %s mail: %w", n.Event, err)
	}
	return t.subject, buf.String(), nil
}

// Notifier sends learner notifications.
type Notifier struct {
	mailer Mailer
}

func NewNotifier(m Mailer) *Notifier {
	return &Notifier{mailer: m}
}

func (n *Notifier) Notify(ctx context.Context, nt Notification) error {
	if nt.Event == "" || strings.TrimSpace(nt.To) == "" {
		return ErrInvalid
	}

	subject, body, err := Render(nt)
	if err != nil {
		return err
	}

	if err := n.mailer.Send(ctx, nt.To, subject, body); err != nil {
		return fmt.Errorf("sending %s mail to %s: %w", nt.Event, nt.To, err)
	}
	return nil
}

// New picks the mailer named by cfg.Type.
func New(ctx context.Context, cfg config.Email, ses config.SES, log logrus.FieldLogger) (Mailer, error) {
	switch cfg.Type {
	case "smtp":
		return NewSMTP(cfg), nil
	case "ses":
		return NewSES(ctx, cfg.From, ses, log)
	case "log", "":
		return NewLog(log), nil
	}
	return nil, fmt.Errorf("unknown mailer type %q", cfg.Type)
}
