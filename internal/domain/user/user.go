// Package user holds accounts, roles, and the loyalty points ledger.
package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Role is an ordered privilege level gating CRM functionality.
type Role int

const (
	RoleCustomer      Role = 1
	RoleEmployee      Role = 2
	RoleManager       Role = 3
	RoleAdministrator Role = 4
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r >= RoleCustomer && r <= RoleAdministrator
}

func (r Role) String() string {
	switch r {
	case RoleCustomer:
		return "customer"
	case RoleEmployee:
		return "employee"
	case RoleManager:
		return "manager"
	case RoleAdministrator:
		return "administrator"
	default:
		return "unknown"
	}
}

// ErrForbidden is returned when an authenticated identity's role is below
// the level an operation requires. Distinct from not-found and from
// missing authentication.
var ErrForbidden = errors.New("forbidden")

// Authorize is the single authorization policy: it allows the operation when
// role meets or exceeds required.
func Authorize(role, required Role) error {
	if role < required {
		return ErrForbidden
	}
	return nil
}

// Address is a delivery address attached to a user or order.
type Address struct {
	Street1 string `json:"street1"`
	Street2 string `json:"street2"`
	City    string `json:"city"`
}

// User is a registered account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	FirstName    string
	LastName     string
	Phone        string
	Address      Address
	AvatarURL    string
	ReferralCode string
	Points       decimal.Decimal
	JoinDate     time.Time
}

// Lookup errors.
var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

// Repository defines persistence operations for users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByReferralCode(ctx context.Context, code string) (*User, error)
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context) ([]User, error)
	UpdateRole(ctx context.Context, id string, role Role) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	// IncrementPoints adds amount to the user's points balance. Points only
	// increase; amount must be non-negative.
	IncrementPoints(ctx context.Context, id string, amount decimal.Decimal) error
	ListReferralCodes(ctx context.Context) ([]string, error)
}
