package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

type StripeGateway struct {
	api       *stripecl.API
	returnURL string
}

func NewStripeGateway(api *stripecl.API, returnURL string) *StripeGateway {
	return &StripeGateway{api: api, returnURL: returnURL}
}

func (g *StripeGateway) Provider() Provider { return Stripe }

func (g *StripeGateway) Create(ctx context.Context, p Purchase) (Session, error) {
	success, err := returnURL(g.returnURL, p.CourseID, "success")
	if err != nil {
		return Session{}, err
	}
	cancel, err := returnURL(g.returnURL, p.CourseID, "cancelled")
	if err != nil {
		return Session{}, err
	}

	product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(p.Title),
	}
	if p.Description != "" {
		product.Description = stripe.String(p.Description)
	}

	params := &stripe.CheckoutSessionParams{
		// Stripe fills the placeholder in, it must not be escaped.
		SuccessURL:        stripe.String(success + "&session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(cancel),
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(p.OrderID),

		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),

			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(strings.ToLower(p.Currency)),
				TaxBehavior: stripe.String("inclusive"),
				UnitAmount:  stripe.Int64(p.Amount),
				ProductData: product,
			},
		}},
	}
	params.Context = ctx
	params.AddMetadata("order_id", p.OrderID)
	params.AddMetadata("user_id", p.UserID)
	params.AddMetadata("course_id", strconv.FormatInt(p.CourseID, 10))

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return Session{}, fmt.Errorf("creating stripe session: %w", err)
	}

	return Session{ProviderOrderID: s.ID, RedirectURL: s.URL}, nil
}

// Capture retrieves the session: Stripe has already charged the buyer by the
// time it redirects, so capturing means checking the session is paid.
func (g *StripeGateway) Capture(ctx context.Context, providerOrderID string) error {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.api.CheckoutSessions.Get(providerOrderID, params)
	if err != nil {
		var serr *stripe.Error
		if errors.As(err, &serr) && serr.HTTPStatusCode >= http.StatusBadRequest && serr.HTTPStatusCode < http.StatusInternalServerError {
			return fmt.Errorf("%w: stripe refused session[%s]: %s", ErrPaymentFailed, providerOrderID, serr.Msg)
		}
		return fmt.Errorf("retrieving stripe session[%s]: %w", providerOrderID, err)
	}

	if s.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return fmt.Errorf("%w: stripe session[%s] has payment status[%s]", ErrPaymentFailed, providerOrderID, s.PaymentStatus)
	}
	return nil
}
