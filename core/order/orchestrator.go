package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/irsalhamdi/ecolearn/core/course"
	"github.com/irsalhamdi/ecolearn/core/user"
	"github.com/irsalhamdi/ecolearn/email"
	"github.com/irsalhamdi/ecolearn/validate"
	"github.com/sirupsen/logrus"
)

var (
	ErrAlreadyEnrolled = errors.New("already enrolled in this course")
	ErrNotOwner        = errors.New("order belongs to another purchase")
)

type Store interface {
	Create(ctx context.Context, o Order) error
	FetchByProvider(ctx context.Context, p Provider, providerOrderID string) (Order, error)
	MarkFailed(ctx context.Context, orderID string) error
	Fulfill(ctx context.Context, o Order) (bool, error)
}

type Courses interface {
	Fetch(ctx context.Context, id int64) (course.Course, error)
}

type Users interface {
	Fetch(ctx context.Context, id string) (user.User, error)
}

type Access interface {
	IsEnrolled(ctx context.Context, userID string, courseID int64) (bool, error)
}

type Notifier interface {
	Notify(ctx context.Context, n email.Notification) error
}

type Runner interface {
	Go(name string, fn func() error)
}

type Config struct {
	Log        logrus.FieldLogger
	Store      Store
	Courses    Courses
	Users      Users
	Access     Access
	Notifier   Notifier
	Background Runner
	Currency   string
	Gateways   []Gateway
}

// Orchestrator drives a purchase from checkout to enrollment.
type Orchestrator struct {
	Config
	gateways map[Provider]Gateway
	now      func() time.Time
}

func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if cfg.Store == nil || cfg.Courses == nil || cfg.Access == nil || cfg.Log == nil {
		return nil, errors.New("orchestrator is missing a dependency")
	}

	gws := make(map[Provider]Gateway, len(cfg.Gateways))
	for _, g := range cfg.Gateways {
		if g == nil {
			return nil, errors.New("nil payment gateway")
		}
		gws[g.Provider()] = g
	}

	return &Orchestrator{
		Config:   cfg,
		gateways: gws,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

type Redirect struct {
	OrderID         string   `json:"orderId"`
	Provider        Provider `json:"provider"`
	ProviderOrderID string   `json:"providerOrderId"`
	RedirectURL     string   `json:"redirectUrl"`
}

type Receipt struct {
	OrderID  string   `json:"orderId"`
	CourseID int64    `json:"courseId"`
	Provider Provider `json:"provider"`
	Status   Status   `json:"status"`
	Phase    string   `json:"phase"`
	Enrolled bool     `json:"enrolled"`
}

// Checkout opens a payment for courseID with the provider named by method
// and records it as a pending order.
func (o *Orchestrator) Checkout(ctx context.Context, userID string, courseID int64, method string) (Redirect, error) {
	gw, ok := o.gateways[Provider(method)]
	if !ok {
		return Redirect{}, fmt.Errorf("%w: %q", ErrUnknownProvider, method)
	}

	phase := Idle

	c, err := o.Courses.Fetch(ctx, courseID)
	if err != nil {
		return Redirect{}, err
	}

	enrolled, err := o.Access.IsEnrolled(ctx, userID, courseID)
	if err != nil {
		return Redirect{}, err
	}
	if enrolled {
		return Redirect{}, ErrAlreadyEnrolled
	}

	if phase, err = phase.To(CheckoutRequested); err != nil {
		return Redirect{}, err
	}

	p := Purchase{
		OrderID:  validate.GenerateID(),
		UserID:   userID,
		CourseID: c.ID,
		Title:    c.Title,
		Amount:   c.Price,
		Currency: o.Currency,
	}

	s, err := gw.Create(ctx, p)
	if err != nil {
		return Redirect{}, err
	}

	now := o.now()
	ord := Order{
		ID:              p.OrderID,
		UserID:          userID,
		CourseID:        c.ID,
		Provider:        gw.Provider(),
		ProviderOrderID: s.ProviderOrderID,
		Status:          Pending,
		Amount:          c.Price,
		Currency:        o.Currency,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := o.Store.Create(ctx, ord); err != nil {
		return Redirect{}, err
	}

	if phase, err = phase.To(AwaitingReturn); err != nil {
		return Redirect{}, err
	}

	o.log(ord, phase).Info("checkout started")

	return Redirect{
		OrderID:         ord.ID,
		Provider:        ord.Provider,
		ProviderOrderID: ord.ProviderOrderID,
		RedirectURL:     s.RedirectURL,
	}, nil
}

// Return finalizes the payment the buyer came back from. A success flag is
// never trusted on its own: the gateway has to confirm it.
func (o *Orchestrator) Return(ctx context.Context, userID string, courseID int64, rp ReturnParams) (Receipt, error) {
	var (
		provider Provider
		id       string
	)
	switch {
	case rp.Token != "":
		provider, id = Paypal, rp.Token
	case rp.SessionID != "":
		provider, id = Stripe, rp.SessionID
	case rp.Payment == "success":
		return Receipt{}, fmt.Errorf("%w: no payment identifier", ErrUnverified)
	default:
		return Receipt{}, fmt.Errorf("%w: payment %q", ErrPaymentFailed, rp.Payment)
	}

	gw, ok := o.gateways[provider]
	if !ok {
		return Receipt{}, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}

	ord, err := o.Store.FetchByProvider(ctx, provider, id)
	if err != nil {
		return Receipt{}, err
	}

	if ord.UserID != userID || ord.CourseID != courseID {
		return Receipt{}, fmt.Errorf("%w: order[%s]", ErrNotOwner, ord.ID)
	}

	phase := PhaseOf(ord.Status)
	switch phase {
	case Enrolled:
		// Replaying the return of a paid order grants nothing new.
		return o.receipt(ord, phase), nil
	case PaymentFailed:
		return o.receipt(ord, phase), fmt.Errorf("%w: order[%s] already failed", ErrPaymentFailed, ord.ID)
	}

	if phase, err = phase.To(Capturing); err != nil {
		return Receipt{}, err
	}

	if rp.Payment != "success" {
		return o.fail(ctx, ord, phase, fmt.Errorf("%w: payment %q", ErrPaymentFailed, rp.Payment))
	}

	if err := gw.Capture(ctx, id); err != nil {
		if !errors.Is(err, ErrPaymentFailed) {
			err = fmt.Errorf("%w: %w", ErrPaymentFailed, err)
		}
		return o.fail(ctx, ord, phase, err)
	}

	if phase, err = phase.To(Enrolled); err != nil {
		return Receipt{}, err
	}
	return o.fulfill(ctx, ord, phase)
}

// Confirm fulfils the order bound to a payment the gateway reported as paid
// server to server. An order already paid is left as is.
func (o *Orchestrator) Confirm(ctx context.Context, p Provider, providerOrderID string) (Receipt, error) {
	ord, err := o.Store.FetchByProvider(ctx, p, providerOrderID)
	if err != nil {
		return Receipt{}, err
	}
	if ord.Status == Paid {
		return o.receipt(ord, Enrolled), nil
	}
	return o.fulfill(ctx, ord, Enrolled)
}

func (o *Orchestrator) fulfill(ctx context.Context, ord Order, phase Phase) (Receipt, error) {
	created, err := o.Store.Fulfill(ctx, ord)
	if err != nil {
		return Receipt{}, err
	}
	ord.Status = Paid

	o.log(ord, phase).WithField("new_enrollment", created).Info("order fulfilled")

	if created {
		o.notify(ord)
	}

	return o.receipt(ord, phase), nil
}

func (o *Orchestrator) fail(ctx context.Context, ord Order, phase Phase, cause error) (Receipt, error) {
	phase, err := phase.To(PaymentFailed)
	if err != nil {
		return Receipt{}, err
	}

	if err := o.Store.MarkFailed(ctx, ord.ID); err != nil {
		return Receipt{}, err
	}
	ord.Status = Failed

	o.log(ord, phase).Warnf("payment failed: %v", cause)

	return o.receipt(ord, phase), cause
}

func (o *Orchestrator) receipt(ord Order, phase Phase) Receipt {
	return Receipt{
		OrderID:  ord.ID,
		CourseID: ord.CourseID,
		Provider: ord.Provider,
		Status:   ord.Status,
		Phase:    phase.String(),
		Enrolled: ord.Status == Paid,
	}
}

func (o *Orchestrator) log(ord Order, phase Phase) logrus.FieldLogger {
	return o.Log.WithFields(logrus.Fields{
		"order_id":  ord.ID,
		"user_id":   ord.UserID,
		"course_id": ord.CourseID,
		"provider":  ord.Provider,
		"phase":     phase.String(),
	})
}

func (o *Orchestrator) notify(ord Order) {
	if o.Notifier == nil || o.Background == nil || o.Users == nil {
		return
	}

	o.Background.Go("enrollment-mail", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		u, err := o.Users.Fetch(ctx, ord.UserID)
		if err != nil {
			return fmt.Errorf("fetching recipient: %w", err)
		}

		c, err := o.Courses.Fetch(ctx, ord.CourseID)
		if err != nil {
			return fmt.Errorf("fetching course: %w", err)
		}

		return o.Notifier.Notify(ctx, email.Notification{
			Event:       email.Enrollment,
			To:          u.Email,
			UserName:    u.FullName,
			CourseTitle: c.Title,
		})
	})
}
