package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/plutov/paypal/v4"
)

type PaypalGateway struct {
	client    *paypal.Client
	returnURL string
}

func NewPaypalGateway(client *paypal.Client, returnURL string) *PaypalGateway {
	return &PaypalGateway{client: client, returnURL: returnURL}
}

func (g *PaypalGateway) Provider() Provider { return Paypal }

func (g *PaypalGateway) Create(ctx context.Context, p Purchase) (Session, error) {
	currency := strings.ToUpper(p.Currency)
	value := decimal(p.Amount)

	units := []paypal.PurchaseUnitRequest{{
		ReferenceID: p.OrderID,
		CustomID:    p.OrderID,
		Description: p.Title,

		Items: []paypal.Item{{
			Quantity: "1",
			Name:     p.Title,
			UnitAmount: &paypal.Money{
				Currency: currency,
				Value:    value,
			},
		}},

		Amount: &paypal.PurchaseUnitAmount{
			Currency: currency,
			Value:    value,

			Breakdown: &paypal.PurchaseUnitAmountBreakdown{ItemTotal: &paypal.Money{
				Currency: currency,
				Value:    value,
			}},
		},
	}}

	success, err := returnURL(g.returnURL, p.CourseID, "success")
	if err != nil {
		return Session{}, err
	}
	cancel, err := returnURL(g.returnURL, p.CourseID, "cancelled")
	if err != nil {
		return Session{}, err
	}

	app := &paypal.ApplicationContext{
		ReturnURL: success,
		CancelURL: cancel,
	}

	ord, err := g.client.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, app)
	if err != nil {
		return Session{}, fmt.Errorf("creating paypal order: %w", err)
	}

	s := Session{ProviderOrderID: ord.ID}
	for _, l := range ord.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			s.RedirectURL = l.Href
			break
		}
	}
	return s, nil
}

func (g *PaypalGateway) Capture(ctx context.Context, providerOrderID string) error {
	resp, err := g.client.CaptureOrder(ctx, providerOrderID, paypal.CaptureOrderRequest{})
	if err != nil {
		var perr *paypal.ErrorResponse
		if errors.As(err, &perr) && perr.Response != nil && perr.Response.StatusCode < http.StatusInternalServerError {
			return fmt.Errorf("%w: paypal refused capture of order[%s]: %s", ErrPaymentFailed, providerOrderID, perr.Message)
		}
		return fmt.Errorf("capturing paypal order[%s]: %w", providerOrderID, err)
	}

	if resp.Status != "COMPLETED" {
		return fmt.Errorf("%w: paypal order[%s] captured with status[%s]", ErrPaymentFailed, providerOrderID, resp.Status)
	}
	return nil
}
