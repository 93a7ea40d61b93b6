package users

import (
	"time"

	"github.com/odyssey-erp/odyssey-auth/internal/rbac"
)

// Principal is an identity record. PasswordHash never leaves the service
// layer; handlers render principals through principalView.
type Principal struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	PasswordHash string    `db:"password_hash"`
	Role         rbac.Role `db:"role"`
	IsActive     bool      `db:"is_active"`
	IsStaff      bool      `db:"is_staff"`
	IsSuperuser  bool      `db:"is_superuser"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// ListFilter narrows List results. A nil Roles slice means every role.
type ListFilter struct {
	Roles []rbac.Role
}

// Changes holds the columns an update touches; nil fields are left as is.
type Changes struct {
	Email        *string
	FirstName    *string
	LastName     *string
	Role         *rbac.Role
	IsActive     *bool
	PasswordHash *string
}

// RegisterInput is the payload for registering or creating a principal.
type RegisterInput struct {
	Username  string `json:"username" validate:"required,max=150,username"`
	Email     string `json:"email" validate:"omitempty,max=254,email"`
	Password  string `json:"password" validate:"required,min=6,pwbytes"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	Role      string `json:"role" validate:"omitempty,role"`
}

// UpdateInput is a partial update; absent fields are not modified.
// Username is accepted only to reject attempts to change it.
type UpdateInput struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Role      *string `json:"role"`
	IsActive  *bool   `json:"is_active"`
	Password  *string `json:"password"`
}

// SuperuserInput drives bootstrap superuser creation. Nil flags and an empty
// role take their superuser defaults; explicit conflicting values fail.
type SuperuserInput struct {
	Username    string `validate:"required,max=150,username"`
	Email       string `validate:"omitempty,max=254,email"`
	Password    string `validate:"required,min=6,pwbytes"`
	Role        string
	IsStaff     *bool
	IsSuperuser *bool
}
