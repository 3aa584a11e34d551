package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/bcrypt"
)

func TestUserCreateNormalizesEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WithArgs("bob@example.com", "Bob", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(11, 1))

	repo := NewUserRepo(db)
	id, err := repo.Create(context.Background(), "  BOB@Example.com ", " Bob ", "hunter22", bcrypt.MinCost)
	require.NoError(t, err)

	assert.Equal(t, uint64(11), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'bob@example.com' for key 'users.email'"))

	repo := NewUserRepo(db)
	_, err = repo.Create(context.Background(), "bob@example.com", "Bob", "hunter22", bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func userRows(id uint64, email string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "email", "name", "password_hash", "reset_token_hash", "reset_expires", "created_at", "updated_at"}).
		AddRow(id, email, "Bob", "$2a$04$x", nil, nil, now, now)
}

func TestSetResetTokenUnknownEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM users WHERE email=.+").WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewUserRepo(db)
	_, err = repo.SetResetToken(context.Background(), "ghost@example.com", "abcd", time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetResetTokenWritesHashAndExpiry(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expires := time.Now().Add(time.Hour)
	mock.ExpectQuery("SELECT .+ FROM users WHERE email=.+").WithArgs("bob@example.com").
		WillReturnRows(userRows(11, "bob@example.com"))
	mock.ExpectExec("UPDATE users SET reset_token_hash=.+").
		WithArgs("abcd", expires, 11).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewUserRepo(db)
	u, err := repo.SetResetToken(context.Background(), "bob@example.com", "abcd", expires)
	require.NoError(t, err)

	assert.Equal(t, uint64(11), u.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeResetTokenSingleUse(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// The row is found, but the conditional UPDATE matches nothing: a
	// concurrent reset consumed the token first.
	mock.ExpectQuery("SELECT .+ FROM users WHERE reset_token_hash=.+").WithArgs("abcd").
		WillReturnRows(userRows(11, "bob@example.com"))
	mock.ExpectExec("UPDATE users SET password_hash=.+").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewUserRepo(db)
	_, err = repo.ConsumeResetToken(context.Background(), "abcd", "newpassword1", bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestConsumeResetToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM users WHERE reset_token_hash=.+").WithArgs("abcd").
		WillReturnRows(userRows(11, "bob@example.com"))
	mock.ExpectExec("UPDATE users SET password_hash=.+").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewUserRepo(db)
	id, err := repo.ConsumeResetToken(context.Background(), "abcd", "newpassword1", bcrypt.MinCost)
	require.NoError(t, err)

	assert.Equal(t, uint64(11), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByResetTokenExpiredOrUnknown(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM users WHERE reset_token_hash=.+").WithArgs("stale").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewUserRepo(db)
	_, err = repo.GetByResetToken(context.Background(), "stale")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
