package models

import "time"

// OTPRecord tracks one email verification code while it is live in Redis.
type OTPRecord struct {
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"createdAt"`
	Attempts  int       `json:"attempts"`
	Verified  bool      `json:"verified"`
}
