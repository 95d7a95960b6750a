package entity

import "time"

// TrialCredentials are the upstream credentials issued for a new trial line
type TrialCredentials struct {
	UserID   string `json:"promax_user_id"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Client links a provisioned username to the contact details collected at
// registration, so receipts can be re-sent later.
type Client struct {
	UserID           string    `json:"user_id"`
	Username         string    `json:"username"`
	Email            string    `json:"email,omitempty"`
	AccountReference string    `json:"account_reference,omitempty"`
	RegisteredAt     time.Time `json:"registered_at"`
}
