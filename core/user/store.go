package user

import (
	"context"
	"fmt"
	"time"

	"github.com/irsalhamdi/ecolearn/core/claims"
	"github.com/irsalhamdi/ecolearn/database"
	"github.com/irsalhamdi/ecolearn/retry"
	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, u User) error {
	const q = `
	INSERT INTO users
		(user_id, email, full_name, password_hash, created_at, updated_at)
	VALUES
		(:user_id, :email, :full_name, :password_hash, :created_at, :updated_at)`

	_, err := database.NamedExecContext(ctx, db, q, u)
	return err
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (User, error) {
	in := struct {
		ID string `db:"user_id"`
	}{id}

	const q = `
	SELECT * FROM users
	WHERE user_id = :user_id`

	var u User
	if err := database.NamedQueryStruct(ctx, db, q, in, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

func FetchByEmail(ctx context.Context, db sqlx.ExtContext, email string) (User, error) {
	in := struct {
		Email string `db:"email"`
	}{email}

	const q = `
	SELECT * FROM users
	WHERE email = :email`

	var u User
	if err := database.NamedQueryStruct(ctx, db, q, in, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

type roleRow struct {
	UserID    string    `db:"user_id"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

func Roles(ctx context.Context, db sqlx.ExtContext, userID string) ([]string, error) {
	in := struct {
		UserID string `db:"user_id"`
	}{userID}

	const q = `
	SELECT * FROM user_roles
	WHERE user_id = :user_id
	ORDER BY role`

	var rows []roleRow
	if err := database.NamedQuerySlice(ctx, db, q, in, &rows); err != nil {
		return nil, err
	}

	roles := make([]string, len(rows))
	for i, r := range rows {
		roles[i] = r.Role
	}
	return roles, nil
}

// GrantRole is a no-op when userID already holds role.
func GrantRole(ctx context.Context, db sqlx.ExtContext, userID string, role string) error {
	in := roleRow{UserID: userID, Role: role, CreatedAt: time.Now().UTC()}

	const q = `
	INSERT INTO user_roles
		(user_id, role, created_at)
	VALUES
		(:user_id, :role, :created_at)
	ON CONFLICT DO NOTHING`

	_, err := database.NamedExecContext(ctx, db, q, in)
	return err
}

type Store struct {
	db    *sqlx.DB
	retry retry.Policy
}

func NewStore(db *sqlx.DB, rp retry.Policy) *Store {
	return &Store{db: db, retry: rp}
}

func (s *Store) Fetch(ctx context.Context, id string) (User, error) {
	var u User
	err := s.retry.Do(ctx, retry.Idempotent, func() error {
		var err error
		u, err = Fetch(ctx, s.db, id)
		return database.Permanent(err)
	})
	if err != nil {
		return User{}, fmt.Errorf("fetching user[%s]: %w", id, err)
	}
	return u, nil
}

func (s *Store) FetchByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.retry.Do(ctx, retry.Idempotent, func() error {
		var err error
		u, err = FetchByEmail(ctx, s.db, email)
		return database.Permanent(err)
	})
	if err != nil {
		return User{}, fmt.Errorf("fetching user by email: %w", err)
	}
	return u, nil
}

func (s *Store) Roles(ctx context.Context, userID string) ([]string, error) {
	var roles []string
	err := s.retry.Do(ctx, retry.Idempotent, func() error {
		var err error
		roles, err = Roles(ctx, s.db, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetching roles of user[%s]: %w", userID, err)
	}
	return roles, nil
}

// Create registers u with the default user role.
func (s *Store) Create(ctx context.Context, u User) error {
	return database.Transaction(s.db, func(tx sqlx.ExtContext) error {
		if err := Create(ctx, tx, u); err != nil {
			return err
		}
		return GrantRole(ctx, tx, u.ID, claims.RoleUser)
	})
}

func (s *Store) GrantRole(ctx context.Context, userID string, role string) error {
	return s.retry.Do(ctx, retry.Idempotent, func() error {
		return database.Permanent(GrantRole(ctx, s.db, userID, role))
	})
}
