// Package queue defines message payloads exchanged over the message broker.
package queue

// PasswordResetRequestedEvent is published when a user asks for a password
// reset. It carries everything the mail worker needs to deliver the
// message without querying the primary database. The raw token only
// appears inside ResetURL; the database holds its hash.
type PasswordResetRequestedEvent struct {
    Email       string `json:"email"`
    Name        string `json:"name"`
    ResetURL    string `json:"reset_url"`
    ExpiresAt   string `json:"expires_at"`
    RequestedAt string `json:"requested_at"`
}
