package user

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/teris-io/shortid"
	"golang.org/x/crypto/bcrypt"
)

// referralBonus is credited to the referring user when a new account
// registers with their code.
var referralBonus = decimal.NewFromInt(100)

// Registration errors.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ReferralFilter answers "might this referral code exist?". A negative
// answer is authoritative; a positive one must be confirmed by the store.
type ReferralFilter interface {
	MightContain(code string) bool
	Add(code string)
}

// Provisioner creates the per-user cart and favourite documents that every
// account owns from registration onward.
type Provisioner interface {
	Provision(ctx context.Context, userID string) error
}

// Service implements registration, authentication, and profile operations.
type Service struct {
	users     Repository
	referrals ReferralFilter
	provision Provisioner
}

// NewService creates a user Service.
func NewService(users Repository, referrals ReferralFilter, provision Provisioner) *Service {
	return &Service{users: users, referrals: referrals, provision: provision}
}

// RegisterRequest holds the input for creating an account.
type RegisterRequest struct {
	Email    string
	Password string
	// Role is honoured only when CallerRole is Administrator. The first
	// account in an empty system is always promoted to Administrator.
	Role         Role
	CallerRole   Role
	ReferralCode string
}

// Register creates an account, provisions its cart and favourite, and
// credits the referrer's points when a valid referral code is supplied.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	role, err := s.assignRole(ctx, req)
	if err != nil {
		return nil, err
	}

	code, err := shortid.Generate()
	if err != nil {
		return nil, errors.Wrap(err, "generate referral code")
	}

	u := &User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		AvatarURL:    "http://www.gravatar.com/avatar/?d=mp",
		ReferralCode: code,
		Points:       decimal.Zero,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, errors.Wrap(err, "create user")
	}
	s.referrals.Add(code)

	if err := s.provision.Provision(ctx, u.ID); err != nil {
		return nil, errors.Wrap(err, "provision cart and favourite")
	}

	if req.ReferralCode != "" {
		if err := s.creditReferrer(ctx, req.ReferralCode); err != nil {
			return nil, err
		}
	}

	return u, nil
}

// assignRole applies the promotion rules: first account in an empty system
// becomes Administrator; explicit role assignment requires an Administrator
// caller; everyone else is a Customer.
func (s *Service) assignRole(ctx context.Context, req RegisterRequest) (Role, error) {
	count, err := s.users.Count(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "count users")
	}
	if count == 0 {
		return RoleAdministrator, nil
	}
	if req.Role.Valid() && req.Role != RoleCustomer {
		if req.CallerRole != RoleAdministrator {
			return 0, ErrForbidden
		}
		return req.Role, nil
	}
	return RoleCustomer, nil
}

// creditReferrer awards the referral bonus to the code's owner. Unknown
// codes are ignored: a mistyped code should not block registration.
func (s *Service) creditReferrer(ctx context.Context, code string) error {
	if !s.referrals.MightContain(code) {
		return nil
	}
	referrer, err := s.users.GetByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return errors.Wrap(err, "lookup referral code")
	}
	if err := s.users.IncrementPoints(ctx, referrer.ID, referralBonus); err != nil {
		return errors.Wrap(err, "credit referrer")
	}
	return nil
}

// Authenticate verifies the email/password pair and returns the account.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "get user")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// ChangePassword verifies the old password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "get user")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)) != nil {
		return ErrInvalidCredentials
	}
	if newPassword == "" {
		return ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	return s.users.UpdatePassword(ctx, userID, string(hash))
}

// AssignRole sets a user's role. Only Administrators may do this.
func (s *Service) AssignRole(ctx context.Context, callerRole Role, userID string, role Role) error {
	if err := Authorize(callerRole, RoleAdministrator); err != nil {
		return err
	}
	if !role.Valid() {
		return errors.Errorf("invalid role %d", role)
	}
	return s.users.UpdateRole(ctx, userID, role)
}
