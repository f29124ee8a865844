package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/classtrack/classtrack-api/internal/models"
)

// ErrOTPNotFound is returned when no live code exists for the email.
var ErrOTPNotFound = errors.New("otp not found")

// OTPRepository keeps verification codes in Redis, scoped by email and
// bounded by the configured TTL.
type OTPRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewOTPRepository constructs the repository.
func NewOTPRepository(client *redis.Client, ttl time.Duration) *OTPRepository {
	return &OTPRepository{client: client, ttl: ttl}
}

func otpKey(email string) string {
	return "otp:" + email
}

// Store saves a fresh code, replacing any previous one for the email.
func (r *OTPRepository) Store(ctx context.Context, email, code string) error {
	record := models.OTPRecord{
		Code:      code,
		CreatedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode otp record: %w", err)
	}
	if err := r.client.Set(ctx, otpKey(email), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	return nil
}

// Get returns the live record for the email, or ErrOTPNotFound.
func (r *OTPRepository) Get(ctx context.Context, email string) (*models.OTPRecord, error) {
	raw, err := r.client.Get(ctx, otpKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrOTPNotFound
		}
		return nil, fmt.Errorf("get otp: %w", err)
	}
	var record models.OTPRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode otp record: %w", err)
	}
	return &record, nil
}

// Update rewrites the record while preserving the remaining TTL.
func (r *OTPRepository) Update(ctx context.Context, email string, record *models.OTPRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode otp record: %w", err)
	}
	if err := r.client.Set(ctx, otpKey(email), payload, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("update otp: %w", err)
	}
	return nil
}

// Delete discards the record after successful registration.
func (r *OTPRepository) Delete(ctx context.Context, email string) error {
	if err := r.client.Del(ctx, otpKey(email)).Err(); err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	return nil
}
