package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classtrack/classtrack-api/internal/dto"
	"github.com/classtrack/classtrack-api/internal/models"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
)

type authServiceMock struct {
	sendResp     *dto.SendOTPResponse
	sendErr      error
	verifyErr    error
	registerResp *dto.AuthResponse
	registerErr  error
	loginResp    *dto.AuthResponse
	loginErr     error

	lastEmail string
	lastOTP   string
}

func (m *authServiceMock) SendOTP(ctx context.Context, email string) (*dto.SendOTPResponse, error) {
	m.lastEmail = email
	return m.sendResp, m.sendErr
}

func (m *authServiceMock) VerifyOTP(ctx context.Context, email, otp string) error {
	m.lastEmail, m.lastOTP = email, otp
	return m.verifyErr
}

func (m *authServiceMock) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	m.lastEmail = req.Email
	return m.registerResp, m.registerErr
}

func (m *authServiceMock) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	m.lastEmail = req.Email
	return m.loginResp, m.loginErr
}

func TestAuthHandlerSendOTP(t *testing.T) {
	mockSvc := &authServiceMock{sendResp: &dto.SendOTPResponse{Email: "asha@example.com"}}
	h := NewAuthHandler(mockSvc)

	payload, _ := json.Marshal(dto.SendOTPRequest{Email: "asha@example.com"})
	c, w := testContext(t, http.MethodPost, "/auth/send-otp", payload, nil)

	h.SendOTP(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "asha@example.com", mockSvc.lastEmail)
}

func TestAuthHandlerSendOTPInvalidEmail(t *testing.T) {
	h := NewAuthHandler(&authServiceMock{})

	payload, _ := json.Marshal(map[string]string{"email": "not-an-email"})
	c, w := testContext(t, http.MethodPost, "/auth/send-otp", payload, nil)

	h.SendOTP(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerSendOTPRegisteredEmail(t *testing.T) {
	mockSvc := &authServiceMock{sendErr: appErrors.Clone(appErrors.ErrEmailRegistered, "Email already registered")}
	h := NewAuthHandler(mockSvc)

	payload, _ := json.Marshal(dto.SendOTPRequest{Email: "asha@example.com"})
	c, w := testContext(t, http.MethodPost, "/auth/send-otp", payload, nil)

	h.SendOTP(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "EMAIL_REGISTERED")
}

func TestAuthHandlerVerifyOTP(t *testing.T) {
	mockSvc := &authServiceMock{}
	h := NewAuthHandler(mockSvc)

	payload, _ := json.Marshal(dto.VerifyOTPRequest{Email: "asha@example.com", OTP: "123456"})
	c, w := testContext(t, http.MethodPost, "/auth/verify-otp", payload, nil)

	h.VerifyOTP(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "123456", mockSvc.lastOTP)
}

func TestAuthHandlerRegister(t *testing.T) {
	mockSvc := &authServiceMock{registerResp: &dto.AuthResponse{
		User:  &models.User{ID: "u1", Email: "asha@example.com"},
		Token: "token",
	}}
	h := NewAuthHandler(mockSvc)

	payload, _ := json.Marshal(dto.RegisterRequest{
		Username: "asha",
		USN:      "1AB21CS001",
		Branch:   "CSE",
		Section:  "A",
		Email:    "asha@example.com",
		Phone:    "9876543210",
		Password: "secret123",
		OTP:      "123456",
	})
	c, w := testContext(t, http.MethodPost, "/auth/register", payload, nil)

	h.Register(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"token":"token"`)
}

func TestAuthHandlerLoginInvalidCredentials(t *testing.T) {
	mockSvc := &authServiceMock{loginErr: appErrors.Clone(appErrors.ErrInvalidCredentials, "Invalid credentials")}
	h := NewAuthHandler(mockSvc)

	payload, _ := json.Marshal(dto.LoginRequest{Email: "asha@example.com", Password: "wrong"})
	c, w := testContext(t, http.MethodPost, "/auth/login", payload, nil)

	h.Login(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
