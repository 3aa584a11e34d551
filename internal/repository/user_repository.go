package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/spotatlas/spot-directory/internal/model"
	"github.com/spotatlas/spot-directory/internal/utils"
)

// UserRepo manages persistence for user accounts, including the
// password reset fields that live on the users table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

const userColumns = "id,email,name,password_hash,reset_token_hash,reset_expires,created_at,updated_at"

// Create inserts a user and returns its ID. The email is normalized to
// lowercase before the write; the unique index on users.email turns a
// duplicate into ErrEmailExists so handlers can show a field-level message.
func (r *UserRepo) Create(ctx context.Context, email, name, password string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, name, password_hash) VALUES (?,?,?)",
		email, name, hash)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.ResetTokenHash, &u.ResetExpires, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.ResetTokenHash, &u.ResetExpires, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// UpdateAccount changes the name and email of an account. The email is
// normalized the same way as on Create, and a duplicate is reported as
// ErrEmailExists.
func (r *UserRepo) UpdateAccount(ctx context.Context, id uint64, name, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=?, email=? WHERE id=?",
		name, email, id)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return ErrEmailExists
	}
	return err
}

// SetResetToken opens a password reset window for the account with the
// given email: the SHA-256 hash of the token and its expiry are written to
// the user row. Returns the user so the caller can build the reset mail,
// or ErrNotFound when the email matches no account.
func (r *UserRepo) SetResetToken(ctx context.Context, email, tokenHash string, expires time.Time) (model.User, error) {
	u, err := r.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE users SET reset_token_hash=?, reset_expires=? WHERE id=?",
		tokenHash, expires, u.ID)
	return u, err
}

// GetByResetToken returns the user holding an unexpired reset token with
// the given hash. Expired or unknown tokens yield ErrTokenInvalid; the
// caller cannot tell the two apart on purpose.
func (r *UserRepo) GetByResetToken(ctx context.Context, tokenHash string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE reset_token_hash=? AND reset_expires > UTC_TIMESTAMP() LIMIT 1",
		tokenHash).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.ResetTokenHash, &u.ResetExpires, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrTokenInvalid
	}
	return u, err
}

// ConsumeResetToken sets a new password hash for the user holding the
// token and clears the reset fields in the same statement. The WHERE
// clause re-checks hash and expiry, so the token is single use even when
// two resets race: only one UPDATE can match, the loser gets
// ErrTokenInvalid.
func (r *UserRepo) ConsumeResetToken(ctx context.Context, tokenHash, newPassword string, cost int) (uint64, error) {
	u, err := r.GetByResetToken(ctx, tokenHash)
	if err != nil {
		return 0, err
	}
	hash, err := utils.HashPassword(newPassword, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, reset_token_hash=NULL, reset_expires=NULL WHERE id=? AND reset_token_hash=? AND reset_expires > UTC_TIMESTAMP()",
		hash, u.ID, tokenHash)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrTokenInvalid
	}
	return u.ID, nil
}
