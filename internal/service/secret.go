package service

import (
	"context"
	"errors"

	"github.com/tawityagi/secrets/internal/domain"
	"github.com/tawityagi/secrets/internal/repository"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SecretService 负责秘密的提交和查询。
type SecretService struct {
	userRepo repository.UserRepository
}

// NewSecretService 创建 SecretService 实例。
func NewSecretService(userRepo repository.UserRepository) *SecretService {
	if userRepo == nil {
		panic("UserRepository cannot be nil for SecretService")
	}
	return &SecretService{userRepo: userRepo}
}

// NormalizeCategory 把缺失/空白的分类替换为默认分类。
func NormalizeCategory(category string) string {
	if category == "" {
		return domain.DefaultCategory
	}
	return category
}

// Submit 向指定用户的记录追加一条秘密。
// 分类为空时替换为 "General"；追加通过存储层的单文档原子更新完成。
func (s *SecretService) Submit(ctx context.Context, userID primitive.ObjectID, content, category string) error {
	logCtx := logrus.WithField("user_id", userID.Hex())

	secret := domain.Secret{
		Content:  content,
		Category: NormalizeCategory(category),
	}
	if err := s.userRepo.AppendSecret(ctx, userID, secret); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			logCtx.Warn("Secret submission failed: user not found")
			return ErrUserNotFound
		}
		logCtx.WithError(err).Error("Database error while appending secret")
		return ErrInternalServer
	}

	logCtx.WithField("category", secret.Category).Info("Secret submitted")
	return nil
}

// ListWithSecrets 返回秘密序列非空的所有用户 (未过滤浏览视图)。
func (s *SecretService) ListWithSecrets(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.FindWithSecrets(ctx)
	if err != nil {
		logrus.WithError(err).Error("Database error while listing users with secrets")
		return nil, ErrInternalServer
	}
	return users, nil
}

// ListByCategory 返回至少拥有一条指定分类秘密的所有用户。
// 分类为空时替换为 "General"；匹配区分大小写且完全相等。
// 返回的是整个用户记录：满足条件的用户的全部秘密都在其中，
// 按分类裁剪单条秘密是展示层的事。
func (s *SecretService) ListByCategory(ctx context.Context, category string) ([]domain.User, error) {
	category = NormalizeCategory(category)
	users, err := s.userRepo.FindBySecretCategory(ctx, category)
	if err != nil {
		logrus.WithError(err).WithField("category", category).Error("Database error while listing users by category")
		return nil, ErrInternalServer
	}
	return users, nil
}
