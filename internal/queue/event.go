// Package queue defines message payloads exchanged over the message broker.
package queue

// OTPRequestedEvent is published whenever a one-time code must reach a user.
// The consumer owns actual delivery (SMTP today), so the web process never
// blocks on a mail server. ExpiresInMin lets the template tell the user how
// long the code stays valid.
type OTPRequestedEvent struct {
    Email        string `json:"email"`
    Code         string `json:"code"`
    Purpose      string `json:"purpose"` // "login" or "password_reset"
    ExpiresInMin int    `json:"expires_in_min"`
    RequestedAt  string `json:"requested_at"`
}
