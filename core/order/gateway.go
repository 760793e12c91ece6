package order

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

var (
	// ErrPaymentFailed is a gateway refusal: declined, cancelled or unpaid.
	ErrPaymentFailed = errors.New("payment failed")

	// ErrUnverified is returned for a return that cannot be tied to a
	// payment the gateway confirms.
	ErrUnverified = errors.New("payment could not be verified")

	ErrUnknownProvider = errors.New("unknown payment provider")
)

// Purchase is what a gateway needs to open a payment.
type Purchase struct {
	OrderID     string
	UserID      string
	CourseID    int64
	Title       string
	Description string
	Amount      int64
	Currency    string
}

// Session is an opened payment waiting for the buyer.
type Session struct {
	ProviderOrderID string
	RedirectURL     string
}

type Gateway interface {
	Provider() Provider
	Create(ctx context.Context, p Purchase) (Session, error)

	// Capture confirms the payment. A refusal wraps ErrPaymentFailed. Any
	// error fails the order.
	Capture(ctx context.Context, providerOrderID string) error
}

// returnURL builds base/<course id>?payment=<result>.
func returnURL(base string, courseID int64, result string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing return url: %w", err)
	}
	u = u.JoinPath(strconv.FormatInt(courseID, 10))

	q := u.Query()
	q.Set("payment", result)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// decimal formats cents as a decimal amount: 1999 becomes "19.99".
func decimal(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
