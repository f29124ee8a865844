package dto

import "github.com/classtrack/classtrack-api/internal/models"

// SendOTPRequest starts email verification for a new account.
type SendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// SendOTPResponse confirms where the code was sent.
type SendOTPResponse struct {
	Email string `json:"email"`
}

// VerifyOTPRequest checks a previously issued code.
type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required"`
}

// RegisterRequest creates an account. OTP may be supplied inline when the
// email was not verified in a prior call.
type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	USN      string `json:"usn" validate:"required"`
	Branch   string `json:"branch" validate:"required"`
	Section  string `json:"section" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
	OTP      string `json:"otp"`
}

// LoginRequest authenticates by email and password.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse returns the account and its access token.
type AuthResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}
