package email

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogMailer writes mails to the log instead of delivering them.
type LogMailer struct {
	log logrus.FieldLogger
}

func NewLog(log logrus.FieldLogger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, html string) error {
	m.log.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
		"body":    html,
	}).Info("mail")
	return nil
}
