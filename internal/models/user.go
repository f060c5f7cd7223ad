package models

import "time"

type Preferences struct {
	Keywords         []string `json:"keywords"`
	Locations        []string `json:"locations"`
	NotificationFreq string   `json:"notification_freq"`
}

type User struct {
	Email       string      `json:"email"`
	IssueNumber int         `json:"issue_number,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	VerifiedAt  *time.Time  `json:"verified_at,omitempty"`
	Preferences Preferences `json:"preferences"`
}

// Registration is a sign-up request that has not been confirmed by email yet.
type Registration struct {
	Email       string     `json:"email"`
	IssueNumber int        `json:"issue_number"`
	Token       string     `json:"token,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
}
