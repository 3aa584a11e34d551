package model

import "time"

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column. The email is
// lowercase-normalized before every write and carries a unique
// constraint. The gravatar URL is derived from the email at read
// time and never stored; the hearts set lives in its own table.
//
// Fields:
//  ID             – primary key identifier of the user.
//  Email          – unique, lowercase-normalized email address.
//  Name           – trimmed display name.
//  PasswordHash   – bcrypt hashed password.
//  ResetTokenHash – SHA-256 hex digest of the open reset token (nil outside a reset window).
//  ResetExpires   – expiry of the open reset token (nil outside a reset window).
//  CreatedAt      – timestamp of creation.
//  UpdatedAt      – timestamp of last update.
type User struct {
	ID             uint64     // users.id
	Email          string     // users.email
	Name           string     // users.name
	PasswordHash   string     // users.password_hash
	ResetTokenHash *string    // users.reset_token_hash (nullable)
	ResetExpires   *time.Time // users.reset_expires (nullable)
	CreatedAt      time.Time  // users.created_at
	UpdatedAt      time.Time  // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation. The plain token is not stored; only its
// SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
