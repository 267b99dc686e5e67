package service

import (
	"context"
	"errors"

	"github.com/tawityagi/secrets/internal/domain"
	"github.com/tawityagi/secrets/internal/repository"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// AuthService 负责本地凭证的注册与验证。
type AuthService struct {
	userRepo repository.UserRepository
}

// NewAuthService 创建 AuthService 实例。
func NewAuthService(userRepo repository.UserRepository) *AuthService {
	if userRepo == nil {
		panic("UserRepository cannot be nil for AuthService")
	}
	return &AuthService{userRepo: userRepo}
}

// Register 处理用户注册。
// 不做 "先查再建"：直接插入，由存储层的唯一索引裁决用户名冲突，
// 冲突以 ErrUsernameTaken 返回。并发注册同名用户因此不存在竞态窗口。
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	logCtx := logrus.WithField("username", username)

	// 1. 基本验证
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	// 2. 哈希密码
	hashedPassword, err := hashPassword(password)
	if err != nil {
		logCtx.WithError(err).Error("Failed to hash password during registration")
		return nil, ErrInternalServer
	}

	// 3. 创建用户文档 (空的秘密序列)
	user := &domain.User{
		Username: username,
		Password: hashedPassword,
		Secrets:  []domain.Secret{},
	}

	// 4. 插入用户 (调用 Repository 接口)
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			logCtx.WithError(err).Warn("Registration failed: username already exists")
			return nil, ErrUsernameTaken
		}
		logCtx.WithError(err).Error("Database error during user creation")
		return nil, ErrInternalServer
	}

	logCtx.WithField("user_id", user.ID.Hex()).Info("User registered successfully")
	return user, nil
}

// Login 处理用户登录。
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	logCtx := logrus.WithField("username", username)

	// 1. 查找用户
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			logCtx.Warn("Login attempt failed: user not found")
		} else {
			logCtx.WithError(err).Warn("Login attempt failed: error finding user")
		}
		// 对调用方统一返回凭证无效，不区分用户不存在与密码错误
		return nil, ErrInvalidCredentials
	}
	// 防御性检查，以防仓库实现返回 nil, nil
	if user == nil {
		logCtx.Warn("Login attempt failed: repo returned nil user without error")
		return nil, ErrInvalidCredentials
	}

	// 2. 验证密码 (仅联合身份的用户没有本地密码，同样视为凭证无效)
	if user.Password == "" || !checkPassword(password, user.Password) {
		logCtx.Warn("Login attempt failed: invalid password")
		return nil, ErrInvalidCredentials
	}

	logCtx.WithField("user_id", user.ID.Hex()).Info("User logged in successfully")
	return user, nil
}

// --- 私有辅助函数 ---

// hashPassword 使用 bcrypt 对密码进行哈希处理
func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// checkPassword 验证提供的密码是否与存储的哈希匹配
func checkPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
