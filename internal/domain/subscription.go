package domain

import "time"

// Subscription statuses.
const (
	StatusPending = "pending"
	StatusActive  = "active"
)

// Subscription binds a notification email to a single repository.
// It is created pending and becomes active once the subscriber proves
// knowledge of the shared webhook secret.
type Subscription struct {
	ID         string     `json:"id"`
	Owner      string     `json:"owner"`
	Repo       string     `json:"repo"`
	Email      string     `json:"email"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

// EmailResult reports the outcome of a single notification delivery attempt.
type EmailResult struct {
	Email   string `json:"email"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type SubscribeRequest struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Email string `json:"email"`
}

type SubscribeResponse struct {
	Success    bool   `json:"success"`
	Owner      string `json:"owner"`
	Repo       string `json:"repo"`
	Email      string `json:"email"`
	Secret     string `json:"secret"`
	WebhookURL string `json:"webhookUrl"`
	Warning    string `json:"warning,omitempty"`
}

type VerifyRequest struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Email  string `json:"email"`
	Secret string `json:"secret"`
}
