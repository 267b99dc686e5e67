package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// SessionRepository 是 repository.SessionRepository 的 Mock 实现。
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Store(ctx context.Context, token string, userID string, ttl time.Duration) error {
	args := m.Called(ctx, token, userID, ttl)
	return args.Error(0)
}

func (m *SessionRepository) Lookup(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *SessionRepository) Delete(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}
