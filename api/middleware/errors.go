package middleware

import (
	"context"
	"net/http"

	"github.com/irsalhamdi/ecolearn/api/web"
	"github.com/irsalhamdi/ecolearn/api/weberr"
	"github.com/sirupsen/logrus"
)

// Errors logs every handler error once and answers for it. A *weberr.Error
// decides its own status and body, anything else is a 500 whose cause stays
// in the log.
func Errors(log logrus.FieldLogger) web.Middleware {
	return func(handler web.Handler) web.Handler {
		return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)
			if err == nil {
				return nil
			}

			entry := log.WithFields(logrus.Fields{
				"req_id": ContextRequestID(ctx),
				"method": r.Method,
				"path":   r.URL.Path,
			})

			we, ok := weberr.As(err)
			if !ok {
				entry.WithError(err).Error("request failed")
				body := weberr.ErrorResponse{Error: http.StatusText(http.StatusInternalServerError)}
				return web.Respond(ctx, w, body, http.StatusInternalServerError)
			}

			entry = entry.WithFields(logrus.Fields(we.Log)).WithField("status", we.Status)
			if we.Status >= http.StatusInternalServerError {
				entry.WithError(err).Error("request failed")
			} else {
				entry.WithError(err).Warn("request rejected")
			}
			return web.Respond(ctx, w, we.Body, we.Status)
		}
	}
}
