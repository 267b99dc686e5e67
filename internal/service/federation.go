package service

import (
	"context"
	"errors"

	"github.com/tawityagi/secrets/internal/domain"
	"github.com/tawityagi/secrets/internal/repository"

	"github.com/sirupsen/logrus"
)

// FederationService 把外部身份提供方的 subject 标识兑换为本地用户记录。
type FederationService struct {
	userRepo repository.UserRepository
}

// NewFederationService 创建 FederationService 实例。
func NewFederationService(userRepo repository.UserRepository) *FederationService {
	if userRepo == nil {
		panic("UserRepository cannot be nil for FederationService")
	}
	return &FederationService{userRepo: userRepo}
}

// FindOrCreate 按 googleId 查找用户，不存在则创建 (幂等)。
// 并发的首次登录可能同时走到创建分支；输掉唯一索引裁决的一方
// 收到重复键错误后重新查找，返回赢家创建的记录，绝不会产生重复用户。
// 联合身份用户从不设置本地密码。
func (s *FederationService) FindOrCreate(ctx context.Context, googleID string) (*domain.User, error) {
	logCtx := logrus.WithField("google_id", googleID)

	if googleID == "" {
		return nil, ErrInternalServer
	}

	// 1. 查找已关联的用户
	user, err := s.userRepo.FindByGoogleID(ctx, googleID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		logCtx.WithError(err).Error("Database error while finding federated user")
		return nil, ErrInternalServer
	}

	// 2. 未找到，创建新用户
	user = &domain.User{
		GoogleID: googleID,
		Secrets:  []domain.Secret{},
	}
	err = s.userRepo.Create(ctx, user)
	if err == nil {
		logCtx.WithField("user_id", user.ID.Hex()).Info("Federated user created")
		return user, nil
	}

	// 3. 创建竞争失败：别的请求刚建好同一个用户，重新查找
	if errors.Is(err, repository.ErrDuplicateEntry) {
		user, err = s.userRepo.FindByGoogleID(ctx, googleID)
		if err != nil {
			logCtx.WithError(err).Error("Failed to re-find federated user after create race")
			return nil, ErrInternalServer
		}
		return user, nil
	}

	logCtx.WithError(err).Error("Database error while creating federated user")
	return nil, ErrInternalServer
}
