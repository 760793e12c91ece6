package order

import (
	"context"
	"fmt"
	"time"

	"github.com/irsalhamdi/ecolearn/core/enrollment"
	"github.com/irsalhamdi/ecolearn/database"
	"github.com/irsalhamdi/ecolearn/retry"
	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, o Order) error {
	const q = `
	INSERT INTO orders
		(order_id, user_id, course_id, provider, provider_order_id, status, amount, currency, created_at, updated_at)
	VALUES
		(:order_id, :user_id, :course_id, :provider, :provider_order_id, :status, :amount, :currency, :created_at, :updated_at)`

	_, err := database.NamedExecContext(ctx, db, q, o)
	return err
}

func FetchByProvider(ctx context.Context, db sqlx.ExtContext, p Provider, providerOrderID string) (Order, error) {
	in := struct {
		Provider        Provider `db:"provider"`
		ProviderOrderID string   `db:"provider_order_id"`
	}{p, providerOrderID}

	const q = `
	SELECT * FROM orders
	WHERE provider = :provider AND provider_order_id = :provider_order_id`

	var o Order
	if err := database.NamedQueryStruct(ctx, db, q, in, &o); err != nil {
		return Order{}, err
	}
	return o, nil
}

// MarkPaid is allowed from any status: the gateway confirming the money is
// authoritative.
func MarkPaid(ctx context.Context, db sqlx.ExtContext, up StatusUp) error {
	const q = `
	UPDATE orders SET
		status = 'paid',
		updated_at = :updated_at
	WHERE order_id = :order_id`

	n, err := database.NamedExecContext(ctx, db, q, up)
	if err != nil {
		return err
	}
	if n == 0 {
		return database.ErrDBNotFound
	}
	return nil
}

// MarkFailed only touches pending orders, a paid order stays paid.
func MarkFailed(ctx context.Context, db sqlx.ExtContext, up StatusUp) error {
	const q = `
	UPDATE orders SET
		status = 'failed',
		updated_at = :updated_at
	WHERE order_id = :order_id AND status = 'pending'`

	_, err := database.NamedExecContext(ctx, db, q, up)
	return err
}

type DBStore struct {
	db    *sqlx.DB
	retry retry.Policy
}

func NewStore(db *sqlx.DB, rp retry.Policy) *DBStore {
	return &DBStore{db: db, retry: rp}
}

// Create runs once: a retried insert could leave two pending orders behind
// one payment.
func (s *DBStore) Create(ctx context.Context, o Order) error {
	err := s.retry.Do(ctx, retry.Once, func() error {
		return Create(ctx, s.db, o)
	})
	if err != nil {
		return fmt.Errorf("creating order bound to payment[%s]: %w", o.ProviderOrderID, err)
	}
	return nil
}

func (s *DBStore) FetchByProvider(ctx context.Context, p Provider, providerOrderID string) (Order, error) {
	var o Order
	err := s.retry.Do(ctx, retry.Idempotent, func() error {
		var err error
		o, err = FetchByProvider(ctx, s.db, p, providerOrderID)
		return database.Permanent(err)
	})
	if err != nil {
		return Order{}, fmt.Errorf("fetching order bound to %s payment[%s]: %w", p, providerOrderID, err)
	}
	return o, nil
}

func (s *DBStore) MarkFailed(ctx context.Context, orderID string) error {
	up := StatusUp{ID: orderID, Status: Failed, UpdatedAt: time.Now().UTC()}
	err := s.retry.Do(ctx, retry.Idempotent, func() error {
		return MarkFailed(ctx, s.db, up)
	})
	if err != nil {
		return fmt.Errorf("failing order[%s]: %w", orderID, err)
	}
	return nil
}

// Fulfill marks o paid and grants the enrollment in one transaction. It
// reports whether the enrollment was created or reactivated.
func (s *DBStore) Fulfill(ctx context.Context, o Order) (bool, error) {
	var created bool
	err := s.retry.Do(ctx, retry.Idempotent, func() error {
		return database.Permanent(database.Transaction(s.db, func(tx sqlx.ExtContext) error {
			now := time.Now().UTC()

			if err := MarkPaid(ctx, tx, StatusUp{ID: o.ID, Status: Paid, UpdatedAt: now}); err != nil {
				return fmt.Errorf("updating status: %w", err)
			}

			var err error
			created, err = enrollment.Ensure(ctx, tx, enrollment.New(o.UserID, o.CourseID, o.ProviderOrderID, now))
			if err != nil {
				return fmt.Errorf("ensuring enrollment: %w", err)
			}
			return nil
		}))
	})
	if err != nil {
		return false, fmt.Errorf("fulfilling order[%s] bound to payment[%s]: %w", o.ID, o.ProviderOrderID, err)
	}
	return created, nil
}
