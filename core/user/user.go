package user

import (
	"time"

	"github.com/irsalhamdi/ecolearn/core/claims"
)

type User struct {
	ID           string    `json:"id" db:"user_id"`
	Email        string    `json:"email" db:"email"`
	FullName     string    `json:"fullName" db:"full_name"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

type UserSignup struct {
	Email           string `json:"email" validate:"required,email"`
	FullName        string `json:"fullName" validate:"max=120"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" validate:"eqfield=Password"`
}

type UserLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Current is the signed in user together with its roles.
type Current struct {
	User
	Roles []string `json:"roles"`
}

// Role picks the role carried by the session: admin wins over user.
func Role(roles []string) string {
	for _, r := range roles {
		if r == claims.RoleAdmin {
			return claims.RoleAdmin
		}
	}
	return claims.RoleUser
}
