package order

import (
	"fmt"
	"time"
)

type Status string

const (
	Pending Status = "pending"
	Paid    Status = "paid"
	Failed  Status = "failed"
)

type Provider string

const (
	Stripe Provider = "stripe"
	Paypal Provider = "paypal"
)

// Order amounts are in the smallest currency unit.
type Order struct {
	ID              string    `json:"id" db:"order_id"`
	UserID          string    `json:"userId" db:"user_id"`
	CourseID        int64     `json:"courseId" db:"course_id"`
	Provider        Provider  `json:"provider" db:"provider"`
	ProviderOrderID string    `json:"providerOrderId" db:"provider_order_id"`
	Status          Status    `json:"status" db:"status"`
	Amount          int64     `json:"amount" db:"amount"`
	Currency        string    `json:"currency" db:"currency"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}

type StatusUp struct {
	ID        string    `db:"order_id"`
	Status    Status    `db:"status"`
	UpdatedAt time.Time `db:"updated_at"`
}

type CheckoutNew struct {
	Method string `json:"method" validate:"required,oneof=stripe paypal"`
}

// ReturnParams are the query parameters the gateways send the buyer back
// with: token for PayPal, session_id for Stripe.
type ReturnParams struct {
	Payment   string `json:"payment"`
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
}

// Phase tracks one purchase attempt.
type Phase int

const (
	Idle Phase = iota
	CheckoutRequested
	AwaitingReturn
	Capturing
	Enrolled
	PaymentFailed
)

var phaseNames = [...]string{"idle", "checkout_requested", "awaiting_return", "capturing", "enrolled", "failed"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

var transitions = map[Phase][]Phase{
	Idle:              {CheckoutRequested},
	CheckoutRequested: {AwaitingReturn},
	AwaitingReturn:    {Capturing},
	Capturing:         {Enrolled, PaymentFailed},
}

// To moves p to next, refusing anything the purchase flow does not allow.
func (p Phase) To(next Phase) (Phase, error) {
	for _, n := range transitions[p] {
		if n == next {
			return next, nil
		}
	}
	return p, fmt.Errorf("invalid transition from %s to %s", p, next)
}

// PhaseOf maps a stored order status back onto the purchase flow.
func PhaseOf(s Status) Phase {
	switch s {
	case Paid:
		return Enrolled
	case Failed:
		return PaymentFailed
	}
	return AwaitingReturn
}
