package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSchedulerNextSameDay(t *testing.T) {
	s := New(nil, 8, time.UTC, zap.NewNop())

	now := time.Date(2024, 3, 15, 6, 30, 0, 0, time.UTC)
	fire := s.next(now)

	assert.Equal(t, time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC), fire)
}

func TestSchedulerNextRollsOverAtOrAfterHour(t *testing.T) {
	s := New(nil, 8, time.UTC, zap.NewNop())

	exactly := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 16, 8, 0, 0, 0, time.UTC), s.next(exactly))

	after := time.Date(2024, 3, 15, 21, 45, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 16, 8, 0, 0, 0, time.UTC), s.next(after))
}

func TestSchedulerDefaultsInvalidHour(t *testing.T) {
	s := New(nil, 99, time.UTC, zap.NewNop())
	require.Equal(t, 8, s.hour)

	s = New(nil, -1, nil, nil)
	require.Equal(t, 8, s.hour)
	require.Equal(t, time.UTC, s.location)
}
