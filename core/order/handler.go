package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/irsalhamdi/ecolearn/api/web"
	"github.com/irsalhamdi/ecolearn/api/weberr"
	"github.com/irsalhamdi/ecolearn/core/claims"
	"github.com/irsalhamdi/ecolearn/database"
	"github.com/irsalhamdi/ecolearn/validate"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"
)

func HandleCheckout(orc *Orchestrator) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		courseID, err := validate.ParseID(web.Param(r, "course_id"))
		if err != nil {
			return weberr.BadRequest(err)
		}

		var cn CheckoutNew
		if err := web.Decode(w, r, &cn); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(cn); err != nil {
			return weberr.Invalid(err)
		}

		rd, err := orc.Checkout(ctx, clm.UserID, courseID, cn.Method)
		if err != nil {
			return orderError(err)
		}

		return web.Respond(ctx, w, rd, http.StatusOK)
	}
}

func HandleReturn(orc *Orchestrator) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		courseID, err := validate.ParseID(web.Param(r, "course_id"))
		if err != nil {
			return weberr.BadRequest(err)
		}

		var rp ReturnParams
		if err := web.Decode(w, r, &rp); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		rc, err := orc.Return(ctx, clm.UserID, courseID, rp)
		if err != nil {
			return orderError(err)
		}

		return web.Respond(ctx, w, rc, http.StatusOK)
	}
}

// HandleStripeWebhook fulfils orders on checkout.session.completed events.
func HandleStripeWebhook(orc *Orchestrator, secret string) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		b, err := io.ReadAll(io.LimitReader(r.Body, 65536))
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("cannot read the request body: %w", err))
		}

		sig := r.Header.Get("Stripe-Signature")
		if sig == "" {
			return weberr.BadRequest(errors.New("received stripe event is not signed"))
		}

		event, err := webhook.ConstructEvent(b, sig, secret)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("cannot construct stripe event: %w", err))
		}

		if event.Type != "checkout.session.completed" {
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		var session stripe.CheckoutSession
		if err = json.Unmarshal(event.Data.Raw, &session); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode stripe event: %w", err))
		}

		if session.Mode != stripe.CheckoutSessionModePayment || session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		if _, err := orc.Confirm(ctx, Stripe, session.ID); err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("the order was payed but its fulfillment failed: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func orderError(err error) error {
	switch {
	case errors.Is(err, ErrPaymentFailed):
		return weberr.NewError(err, "payment failed or was cancelled", http.StatusPaymentRequired)
	case errors.Is(err, ErrUnverified):
		return weberr.NewError(err, "payment could not be verified", http.StatusBadRequest)
	case errors.Is(err, ErrUnknownProvider):
		return weberr.NewError(err, "unknown payment method", http.StatusBadRequest)
	case errors.Is(err, ErrAlreadyEnrolled):
		return weberr.NewError(err, ErrAlreadyEnrolled.Error(), http.StatusConflict)
	case errors.Is(err, ErrNotOwner), errors.Is(err, database.ErrDBNotFound):
		return weberr.NotFound(err)
	}
	return err
}
