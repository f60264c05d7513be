package postgres

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/hilltop-eats/hilltop/internal/domain/user"
)

const (
	userColumns = `id, email, password_hash, role, first_name, last_name, phone,
		street1, street2, city, avatar_url, referral_code, points, join_date`

	insertUserSQL = `INSERT INTO users
		(id, email, password_hash, role, first_name, last_name, phone,
		 street1, street2, city, avatar_url, referral_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	getUserByIDSQL       = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	getUserByEmailSQL    = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	getUserByReferralSQL = `SELECT ` + userColumns + ` FROM users WHERE referral_code = $1`

	countUsersSQL = `SELECT count(*) FROM users`
	listUsersSQL  = `SELECT ` + userColumns + ` FROM users ORDER BY join_date`

	updateUserRoleSQL     = `UPDATE users SET role = $2 WHERE id = $1`
	updateUserPasswordSQL = `UPDATE users SET password_hash = $2 WHERE id = $1`

	incrementPointsSQL = `UPDATE users SET points = points + $2 WHERE id = $1`

	listReferralCodesSQL = `SELECT referral_code FROM users`
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new account. A duplicate email maps to user.ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	_, err := r.pool.Exec(ctx, insertUserSQL,
		u.ID, u.Email, u.PasswordHash, u.Role, u.FirstName, u.LastName, u.Phone,
		u.Address.Street1, u.Address.Street2, u.Address.City,
		u.AvatarURL, u.ReferralCode)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, "email") {
			return user.ErrEmailTaken
		}
		return errors.Wrapf(err, "create user %q", u.ID)
	}
	return nil
}

// GetByID returns the user with the given identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	return r.getOne(ctx, getUserByIDSQL, id)
}

// GetByEmail returns the user registered under the given email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getOne(ctx, getUserByEmailSQL, email)
}

// GetByReferralCode returns the user holding the given referral code.
func (r *UserRepository) GetByReferralCode(ctx context.Context, code string) (*user.User, error) {
	return r.getOne(ctx, getUserByReferralSQL, code)
}

func (r *UserRepository) getOne(ctx context.Context, sql, arg string) (*user.User, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, errors.Wrap(err, "get user")
	}

	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, errors.Wrap(err, "get user")
	}
	return &u, nil
}

// Count returns the total number of registered accounts.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, countUsersSQL).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count users")
	}
	return n, nil
}

// List returns all accounts in registration order.
func (r *UserRepository) List(ctx context.Context) ([]user.User, error) {
	rows, err := r.pool.Query(ctx, listUsersSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	return pgx.CollectRows(rows, scanUser)
}

// UpdateRole sets the user's privilege level.
func (r *UserRepository) UpdateRole(ctx context.Context, id string, role user.Role) error {
	tag, err := r.pool.Exec(ctx, updateUserRoleSQL, id, role)
	if err != nil {
		return errors.Wrapf(err, "update role for %q", id)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, updateUserPasswordSQL, id, passwordHash)
	if err != nil {
		return errors.Wrapf(err, "update password for %q", id)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// IncrementPoints adds amount to the user's loyalty balance.
func (r *UserRepository) IncrementPoints(ctx context.Context, id string, amount decimal.Decimal) error {
	tag, err := r.pool.Exec(ctx, incrementPointsSQL, id, amount)
	if err != nil {
		return errors.Wrapf(err, "increment points for %q", id)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// ListReferralCodes returns every issued referral code.
func (r *UserRepository) ListReferralCodes(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listReferralCodesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list referral codes")
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func scanUser(row pgx.CollectableRow) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.FirstName, &u.LastName,
		&u.Phone, &u.Address.Street1, &u.Address.Street2, &u.Address.City,
		&u.AvatarURL, &u.ReferralCode, &u.Points, &u.JoinDate)
	return u, err
}

const (
	insertCartRowSQL      = `INSERT INTO carts (user_id) VALUES ($1) ON CONFLICT DO NOTHING`
	insertFavouriteRowSQL = `INSERT INTO favourites (user_id) VALUES ($1) ON CONFLICT DO NOTHING`
)

// Provision creates the user's empty cart and favourite rows. Called once
// right after registration.
func (r *UserRepository) Provision(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, insertCartRowSQL, userID); err != nil {
		return errors.Wrapf(err, "provision cart for %q", userID)
	}
	if _, err := r.pool.Exec(ctx, insertFavouriteRowSQL, userID); err != nil {
		return errors.Wrapf(err, "provision favourite for %q", userID)
	}
	return nil
}
