package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/classtrack/classtrack-api/internal/dto"
	"github.com/classtrack/classtrack-api/internal/models"
	"github.com/classtrack/classtrack-api/internal/repository"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
	"github.com/classtrack/classtrack-api/pkg/mailer"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *models.User) error
}

type otpStore interface {
	Store(ctx context.Context, email, code string) error
	Get(ctx context.Context, email string) (*models.OTPRecord, error)
	Update(ctx context.Context, email string, record *models.OTPRecord) error
	Delete(ctx context.Context, email string) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	TokenSecret    string
	TokenExpiry    time.Duration
	Issuer         string
	OTPMaxAttempts int
}

// AuthService provides OTP-gated registration, login and token validation.
type AuthService struct {
	users     authUserRepository
	otps      otpStore
	mail      mailer.Sender
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, otps otpStore, mail mailer.Sender, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.OTPMaxAttempts <= 0 {
		config.OTPMaxAttempts = 5
	}
	return &AuthService{users: users, otps: otps, mail: mail, validator: validate, logger: logger, config: config}
}

// SendOTP issues a verification code to an email that is not yet
// registered and delivers it by mail.
func (s *AuthService) SendOTP(ctx context.Context, email string) (*dto.SendOTPResponse, error) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "email is required")
	}

	exists, err := s.users.EmailExists(ctx, normalized)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrEmailRegistered, "Email already registered")
	}

	code, err := generateOTP()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate OTP")
	}
	if err := s.otps.Store(ctx, normalized, code); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store OTP")
	}

	msg := mailer.Message{
		To:      normalized,
		Subject: "Your verification code",
		Body:    fmt.Sprintf("Your ClassTrack verification code is %s. It expires in 5 minutes.", code),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.logger.Error("failed to send OTP email", zap.String("email", normalized), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send email")
	}

	return &dto.SendOTPResponse{Email: normalized}, nil
}

// VerifyOTP checks a code and marks the email verified on success.
func (s *AuthService) VerifyOTP(ctx context.Context, email, otp string) error {
	normalized := normalizeEmail(email)
	return s.verifyCode(ctx, normalized, strings.TrimSpace(otp))
}

// Register creates an account. The email must carry a verified OTP; an
// unverified one may be verified inline through the request payload.
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	normalized := normalizeEmail(req.Email)

	verified, err := s.isVerified(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if !verified {
		if strings.TrimSpace(req.OTP) == "" {
			return nil, appErrors.Clone(appErrors.ErrInvalidOTP, "OTP verification is required")
		}
		if err := s.verifyCode(ctx, normalized, strings.TrimSpace(req.OTP)); err != nil {
			return nil, err
		}
	}

	exists, err := s.users.EmailExists(ctx, normalized)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrEmailRegistered, "User already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		ID:            uuid.NewString(),
		Username:      req.Username,
		USN:           req.USN,
		Branch:        req.Branch,
		Section:       req.Section,
		Email:         normalized,
		Phone:         normalizePhone(req.Phone),
		PasswordHash:  string(hash),
		EmailVerified: true,
		Active:        true,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	if err := s.otps.Delete(ctx, normalized); err != nil {
		s.logger.Warn("failed to delete OTP after registration", zap.String("email", normalized), zap.Error(err))
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{User: user, Token: token}, nil
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.users.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "Invalid credentials")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "account is inactive")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "Invalid credentials")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{User: user, Token: token}, nil
}

// ValidateToken parses and verifies an access token.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.config.TokenSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := time.Now().UTC()
	claims := models.JWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenExpiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.TokenSecret))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}
	return signed, nil
}

func (s *AuthService) isVerified(ctx context.Context, email string) (bool, error) {
	record, err := s.otps.Get(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrOTPNotFound) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read OTP")
	}
	return record.Verified, nil
}

func (s *AuthService) verifyCode(ctx context.Context, email, otp string) error {
	record, err := s.otps.Get(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrOTPNotFound) {
			return appErrors.Clone(appErrors.ErrInvalidOTP, "OTP not found or expired")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read OTP")
	}
	if record.Verified {
		return nil
	}
	if record.Attempts >= s.config.OTPMaxAttempts {
		return appErrors.Clone(appErrors.ErrInvalidOTP, "Too many attempts, request a new OTP")
	}

	record.Attempts++
	if record.Code != otp {
		if err := s.otps.Update(ctx, email, record); err != nil {
			s.logger.Warn("failed to record OTP attempt", zap.String("email", email), zap.Error(err))
		}
		return appErrors.Clone(appErrors.ErrInvalidOTP, "Invalid OTP")
	}

	record.Verified = true
	if err := s.otps.Update(ctx, email, record); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update OTP")
	}
	return nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var nonDigits = regexp.MustCompile(`\D`)

// normalizePhone strips formatting and keeps the last 10 digits.
func normalizePhone(phone string) string {
	digits := nonDigits.ReplaceAllString(phone, "")
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return digits
}
