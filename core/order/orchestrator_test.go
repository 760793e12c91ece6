package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/irsalhamdi/ecolearn/core/course"
	"github.com/irsalhamdi/ecolearn/core/user"
	"github.com/irsalhamdi/ecolearn/database"
	"github.com/irsalhamdi/ecolearn/email"
	"github.com/sirupsen/logrus"
)

type enrollKey struct {
	user   string
	course int64
}

type memStore struct {
	orders      map[string]Order
	enrollments map[enrollKey]bool
	fulfilled   int
}

func newMemStore() *memStore {
	return &memStore{
		orders:      make(map[string]Order),
		enrollments: make(map[enrollKey]bool),
	}
}

func (m *memStore) Create(ctx context.Context, o Order) error {
	for _, old := range m.orders {
		if old.Provider == o.Provider && old.ProviderOrderID == o.ProviderOrderID {
			return database.ErrDBDuplicatedEntry
		}
	}
	m.orders[o.ID] = o
	return nil
}

func (m *memStore) FetchByProvider(ctx context.Context, p Provider, id string) (Order, error) {
	for _, o := range m.orders {
		if o.Provider == p && o.ProviderOrderID == id {
			return o, nil
		}
	}
	return Order{}, database.ErrDBNotFound
}

func (m *memStore) MarkFailed(ctx context.Context, orderID string) error {
	o := m.orders[orderID]
	if o.Status == Pending {
		o.Status = Failed
		m.orders[orderID] = o
	}
	return nil
}

func (m *memStore) Fulfill(ctx context.Context, o Order) (bool, error) {
	m.fulfilled++

	stored := m.orders[o.ID]
	stored.Status = Paid
	m.orders[o.ID] = stored

	k := enrollKey{o.UserID, o.CourseID}
	if m.enrollments[k] {
		return false, nil
	}
	m.enrollments[k] = true
	return true, nil
}

func (m *memStore) IsEnrolled(ctx context.Context, userID string, courseID int64) (bool, error) {
	return m.enrollments[enrollKey{userID, courseID}], nil
}

func (m *memStore) only(t *testing.T) Order {
	t.Helper()
	if len(m.orders) != 1 {
		t.Fatalf("expected exactly one order, got %d", len(m.orders))
	}
	for _, o := range m.orders {
		return o
	}
	return Order{}
}

type mockGateway struct {
	provider   Provider
	created    []Purchase
	captureErr error
	captures   int
}

func (g *mockGateway) Provider() Provider { return g.provider }

func (g *mockGateway) Create(ctx context.Context, p Purchase) (Session, error) {
	g.created = append(g.created, p)
	id := fmt.Sprintf("%s-%d", g.provider, len(g.created))
	return Session{ProviderOrderID: id, RedirectURL: "https://pay.example.com/" + id}, nil
}

func (g *mockGateway) Capture(ctx context.Context, id string) error {
	g.captures++
	return g.captureErr
}

type memCourses map[int64]course.Course

func (m memCourses) Fetch(ctx context.Context, id int64) (course.Course, error) {
	c, ok := m[id]
	if !ok {
		return course.Course{}, database.ErrDBNotFound
	}
	return c, nil
}

type memUsers map[string]user.User

func (m memUsers) Fetch(ctx context.Context, id string) (user.User, error) {
	return m[id], nil
}

type memNotifier struct {
	sent []email.Notification
}

func (m *memNotifier) Notify(ctx context.Context, n email.Notification) error {
	m.sent = append(m.sent, n)
	return nil
}

type syncRunner struct{}

func (syncRunner) Go(name string, fn func() error) { _ = fn() }

type fixture struct {
	orc      *Orchestrator
	store    *memStore
	paypal   *mockGateway
	stripe   *mockGateway
	notifier *memNotifier
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	f := fixture{
		store:    newMemStore(),
		paypal:   &mockGateway{provider: Paypal},
		stripe:   &mockGateway{provider: Stripe},
		notifier: &memNotifier{},
	}

	orc, err := NewOrchestrator(Config{
		Log:        log,
		Store:      f.store,
		Courses:    memCourses{1: {ID: 1, Title: "Go in practice", Price: 4999}, 2: {ID: 2, Title: "Free intro"}},
		Users:      memUsers{"ada": {ID: "ada", Email: "ada@example.com", FullName: "Ada"}},
		Access:     f.store,
		Notifier:   f.notifier,
		Background: syncRunner{},
		Currency:   "usd",
		Gateways:   []Gateway{f.paypal, f.stripe},
	})
	if err != nil {
		t.Fatal(err)
	}
	f.orc = orc
	return f
}

func TestCheckout(t *testing.T) {
	f := newFixture(t)

	rd, err := f.orc.Checkout(context.Background(), "ada", 1, "stripe")
	if err != nil {
		t.Fatal(err)
	}

	o := f.store.only(t)
	exp := Order{
		ID:              rd.OrderID,
		UserID:          "ada",
		CourseID:        1,
		Provider:        Stripe,
		ProviderOrderID: "stripe-1",
		Status:          Pending,
		Amount:          4999,
		Currency:        "usd",
	}
	o.CreatedAt, o.UpdatedAt = exp.CreatedAt, exp.UpdatedAt
	if diff := cmp.Diff(exp, o); diff != "" {
		t.Fatalf("wrong order, diff: %s", diff)
	}

	if rd.RedirectURL != "https://pay.example.com/stripe-1" {
		t.Fatalf("unexpected redirect %q", rd.RedirectURL)
	}
	if len(f.paypal.created) != 0 {
		t.Fatal("paypal must not be called for a stripe checkout")
	}
}

func TestCheckoutRefusals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.orc.Checkout(ctx, "ada", 1, "bitcoin"); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected %v, got %v", ErrUnknownProvider, err)
	}
	if _, err := f.orc.Checkout(ctx, "ada", 9, "paypal"); !errors.Is(err, database.ErrDBNotFound) {
		t.Fatalf("expected %v, got %v", database.ErrDBNotFound, err)
	}
	f.store.enrollments[enrollKey{"ada", 1}] = true
	if _, err := f.orc.Checkout(ctx, "ada", 1, "paypal"); !errors.Is(err, ErrAlreadyEnrolled) {
		t.Fatalf("expected %v, got %v", ErrAlreadyEnrolled, err)
	}

	if len(f.store.orders) != 0 {
		t.Fatalf("expected no orders, got %d", len(f.store.orders))
	}
}

func TestCheckoutFreeCourse(t *testing.T) {
	f := newFixture(t)

	rd, err := f.orc.Checkout(context.Background(), "ada", 2, "paypal")
	if err != nil {
		t.Fatal(err)
	}

	o := f.store.only(t)
	exp := Order{
		ID:              rd.OrderID,
		UserID:          "ada",
		CourseID:        2,
		Provider:        Paypal,
		ProviderOrderID: "paypal-1",
		Status:          Pending,
		Amount:          0,
		Currency:        "usd",
	}
	o.CreatedAt, o.UpdatedAt = exp.CreatedAt, exp.UpdatedAt
	if diff := cmp.Diff(exp, o); diff != "" {
		t.Fatalf("wrong order, diff: %s", diff)
	}

	if len(f.paypal.created) != 1 || f.paypal.created[0].Amount != 0 {
		t.Fatalf("expected one zero amount purchase at the gateway, got %+v", f.paypal.created)
	}
}

func TestReturnCapturesAndEnrolls(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rd, err := f.orc.Checkout(ctx, "ada", 1, "paypal")
	if err != nil {
		t.Fatal(err)
	}

	rc, err := f.orc.Return(ctx, "ada", 1, ReturnParams{Payment: "success", Token: rd.ProviderOrderID})
	if err != nil {
		t.Fatal(err)
	}

	exp := Receipt{OrderID: rd.OrderID, CourseID: 1, Provider: Paypal, Status: Paid, Phase: "enrolled", Enrolled: true}
	if diff := cmp.Diff(exp, rc); diff != "" {
		t.Fatalf("wrong receipt, diff: %s", diff)
	}

	if !f.store.enrollments[enrollKey{"ada", 1}] {
		t.Fatal("expected an enrollment")
	}
	if len(f.notifier.sent) != 1 || f.notifier.sent[0].Event != email.Enrollment {
		t.Fatalf("expected one enrollment mail, got %+v", f.notifier.sent)
	}
}

// The gateway refuses, the order fails and nobody is enrolled.
func TestReturnCaptureRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.paypal.captureErr = fmt.Errorf("%w: INSTRUMENT_DECLINED", ErrPaymentFailed)

	rd, err := f.orc.Checkout(ctx, "ada", 1, "paypal")
	if err != nil {
		t.Fatal(err)
	}

	rc, err := f.orc.Return(ctx, "ada", 1, ReturnParams{Payment: "success", Token: rd.ProviderOrderID})
	if !errors.Is(err, ErrPaymentFailed) {
		t.Fatalf("expected %v, got %v", ErrPaymentFailed, err)
	}
	if rc.Phase != "failed" {
		t.Fatalf("expected the failed phase, got %q", rc.Phase)
	}

	if o := f.store.only(t); o.Status != Failed {
		t.Fatalf("expected a failed order, got %q", o.Status)
	}
	if len(f.store.enrollments) != 0 {
		t.Fatal("expected no enrollment")
	}

	// Coming back again does not capture a failed order a second time.
	if _, err := f.orc.Return(ctx, "ada", 1, ReturnParams{Payment: "success", Token: rd.ProviderOrderID}); !errors.Is(err, ErrPaymentFailed) {
		t.Fatalf("expected %v, got %v", ErrPaymentFailed, err)
	}
	if f.paypal.captures != 1 {
		t.Fatalf("expected a single capture, got %d", f.paypal.captures)
	}
}

func TestReturnGatewayErrorFails(t *testing.T) {
	tests := map[string]error{
		"server error":     errors.New("paypal 503"),
		"connection error": errors.New("connection refused"),
	}

	for name, captureErr := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.paypal.captureErr = captureErr

			rd, err := f.orc.Checkout(ctx, "ada", 1, "paypal")
			if err != nil {
				t.Fatal(err)
			}

			rc, err := f.orc.Return(ctx, "ada", 1, ReturnParams{Payment: "success", Token: rd.ProviderOrderID})
			if !errors.Is(err, ErrPaymentFailed) || !errors.Is(err, captureErr) {
				t.Fatalf("expected %v wrapping %v, got %v", ErrPaymentFailed, captureErr, err)
			}
			if rc.Phase != "failed" {
				t.Fatalf("expected the failed phase, got %q", rc.Phase)
			}
			if o := f.store.only(t); o.Status != Failed {
				t.Fatalf("expected a failed order, got %q", o.Status)
			}
			if len(f.store.enrollments) != 0 {
				t.Fatal("expected no enrollment")
			}
		})
	}
}

func TestReturnReplayAfterExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rd, err := f.orc.Checkout(ctx, "ada", 1, "paypal")
	if err != nil {
		t.Fatal(err)
	}
	rp := ReturnParams{Payment: "success", Token: rd.ProviderOrderID}

	first, err := f.orc.Return(ctx, "ada", 1, rp)
	if err != nil {
		t.Fatal(err)
	}

	// The enrollment runs out.
	f.store.enrollments[enrollKey{"ada", 1}] = false

	again, err := f.orc.Return(ctx, "ada", 1, rp)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, again); diff != "" {
		t.Fatalf("expected the same receipt, diff: %s", diff)
	}
	if f.store.enrollments[enrollKey{"ada", 1}] {
		t.Fatal("replaying a paid return must not reactivate the enrollment")
	}
	if _, err := f.orc.Confirm(ctx, Paypal, rd.ProviderOrderID); err != nil {
		t.Fatal(err)
	}
	if f.store.enrollments[enrollKey{"ada", 1}] {
		t.Fatal("confirming a paid order must not reactivate the enrollment")
	}
	if f.store.fulfilled != 1 || f.paypal.captures != 1 {
		t.Fatalf("expected one fulfilment and one capture, got %d and %d", f.store.fulfilled, f.paypal.captures)
	}
}

// Firing the return twice leaves a single enrollment.
func TestReturnTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rd, err := f.orc.Checkout(ctx, "ada", 1, "stripe")
	if err != nil {
		t.Fatal(err)
	}
	rp := ReturnParams{Payment: "success", SessionID: rd.ProviderOrderID}

	for i := 0; i < 2; i++ {
		rc, err := f.orc.Return(ctx, "ada", 1, rp)
		if err != nil {
			t.Fatalf("return %d: %v", i, err)
		}
		if !rc.Enrolled {
			t.Fatalf("return %d: expected enrolled", i)
		}
	}

	if f.stripe.captures != 1 {
		t.Fatalf("expected a paid order not to be captured again, got %d captures", f.stripe.captures)
	}
	if len(f.store.enrollments) != 1 {
		t.Fatalf("expected one enrollment, got %d", len(f.store.enrollments))
	}
	if len(f.notifier.sent) != 1 {
		t.Fatalf("expected one enrollment mail, got %d", len(f.notifier.sent))
	}
}

func TestReturnWithoutIdentifier(t *testing.T) {
	f := newFixture(t)

	_, err := f.orc.Return(context.Background(), "ada", 1, ReturnParams{Payment: "success"})
	if !errors.Is(err, ErrUnverified) {
		t.Fatalf("expected %v, got %v", ErrUnverified, err)
	}
	if len(f.store.enrollments) != 0 {
		t.Fatal("an unverified success must not enroll")
	}
}

func TestReturnCancelled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rd, err := f.orc.Checkout(ctx, "ada", 1, "paypal")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.orc.Return(ctx, "ada", 1, ReturnParams{Payment: "cancelled", Token: rd.ProviderOrderID}); !errors.Is(err, ErrPaymentFailed) {
		t.Fatalf("expected %v, got %v", ErrPaymentFailed, err)
	}
	if f.paypal.captures != 0 {
		t.Fatal("a cancelled payment must not be captured")
	}
	if o := f.store.only(t); o.Status != Failed {
		t.Fatalf("expected a failed order, got %q", o.Status)
	}

	if _, err := f.orc.Return(ctx, "ada", 1, ReturnParams{Payment: "cancelled"}); !errors.Is(err, ErrPaymentFailed) {
		t.Fatalf("expected %v, got %v", ErrPaymentFailed, err)
	}
}

func TestReturnForeignOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rd, err := f.orc.Checkout(ctx, "ada", 1, "paypal")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.orc.Return(ctx, "eve", 1, ReturnParams{Payment: "success", Token: rd.ProviderOrderID}); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected %v, got %v", ErrNotOwner, err)
	}
	if f.paypal.captures != 0 {
		t.Fatal("someone else's order must not be captured")
	}
}

func TestConfirm(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rd, err := f.orc.Checkout(ctx, "ada", 1, "stripe")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.orc.Confirm(ctx, Stripe, rd.ProviderOrderID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.orc.Confirm(ctx, Stripe, rd.ProviderOrderID); err != nil {
		t.Fatal(err)
	}

	if len(f.store.enrollments) != 1 {
		t.Fatalf("expected one enrollment, got %d", len(f.store.enrollments))
	}
	if _, err := f.orc.Confirm(ctx, Stripe, "unknown"); !errors.Is(err, database.ErrDBNotFound) {
		t.Fatalf("expected %v, got %v", database.ErrDBNotFound, err)
	}
}

func TestPhaseTransitions(t *testing.T) {
	path := []Phase{Idle, CheckoutRequested, AwaitingReturn, Capturing, Enrolled}
	for i := 0; i < len(path)-1; i++ {
		if _, err := path[i].To(path[i+1]); err != nil {
			t.Fatalf("%s -> %s: %v", path[i], path[i+1], err)
		}
	}

	if _, err := Capturing.To(PaymentFailed); err != nil {
		t.Fatal(err)
	}

	bad := [][2]Phase{
		{Idle, Capturing},
		{AwaitingReturn, Enrolled},
		{Enrolled, Capturing},
		{PaymentFailed, Enrolled},
	}
	for _, b := range bad {
		if _, err := b[0].To(b[1]); err == nil {
			t.Errorf("%s -> %s should be refused", b[0], b[1])
		}
	}

	if PhaseOf(Pending) != AwaitingReturn || PhaseOf(Paid) != Enrolled || PhaseOf(Failed) != PaymentFailed {
		t.Fatal("wrong phase for a stored status")
	}
}

func TestAmountFormatting(t *testing.T) {
	tests := map[int64]string{0: "0.00", 5: "0.05", 1999: "19.99", 100000: "1000.00"}
	for cents, exp := range tests {
		if got := decimal(cents); got != exp {
			t.Errorf("%d: expected %q, got %q", cents, exp, got)
		}
	}

	u, err := returnURL("http://localhost:3000/course", 7, "success")
	if err != nil {
		t.Fatal(err)
	}
	if u != "http://localhost:3000/course/7?payment=success" {
		t.Fatalf("unexpected return url %q", u)
	}
}

func TestNewOrchestratorMissingDeps(t *testing.T) {
	if _, err := NewOrchestrator(Config{}); err == nil {
		t.Fatal("expected an error without dependencies")
	}
}
