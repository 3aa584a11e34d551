// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not the
// author of the spot they are trying to change, while ErrNotFound
// signals a lookup by slug, id or token that matched nothing and
// should surface as domain absence rather than a crash.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a spot they did not submit. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrNotFound is returned when a spot, user or review lookup finds
// nothing. Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrTokenInvalid is returned when a password reset token does not
// match any user, has expired, or was already consumed. Handlers
// should translate this into a user-readable message rather than
// reveal which of the three cases occurred.
var ErrTokenInvalid = errors.New("token invalid or expired")
