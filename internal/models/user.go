package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is a registered account.
type User struct {
	ID            string    `db:"id" json:"id"`
	Username      string    `db:"username" json:"username"`
	USN           string    `db:"usn" json:"usn"`
	Branch        string    `db:"branch" json:"branch"`
	Section       string    `db:"section" json:"section"`
	Email         string    `db:"email" json:"email"`
	Phone         string    `db:"phone" json:"phone"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	EmailVerified bool      `db:"email_verified" json:"emailVerified"`
	Active        bool      `db:"active" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// JWTClaims are the registered claims plus the authenticated user id.
type JWTClaims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
