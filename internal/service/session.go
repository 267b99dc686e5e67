package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/tawityagi/secrets/internal/domain"
	"github.com/tawityagi/secrets/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionManager 负责已认证用户与客户端持有的不透明会话令牌之间的转换。
// Cookie 中保存 "token.签名"；令牌本身只在服务端映射到用户 id，
// 会话里从不缓存用户记录或秘密。
type SessionManager struct {
	sessionRepo repository.SessionRepository
	userRepo    repository.UserRepository
	secret      []byte        // 会话签名密钥
	ttl         time.Duration // 会话过期时间
}

// NewSessionManager 创建 SessionManager 实例。
// secret 来自配置，不能为空；ttlHours <= 0 时默认 24 小时。
func NewSessionManager(sessionRepo repository.SessionRepository, userRepo repository.UserRepository, secret string, ttlHours int) (*SessionManager, error) {
	if sessionRepo == nil || userRepo == nil {
		panic("repositories cannot be nil for SessionManager")
	}
	if secret == "" {
		return nil, errors.New("session secret cannot be empty")
	}
	if ttlHours <= 0 {
		ttlHours = 24 // 默认 24 小时
	}
	return &SessionManager{
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		secret:      []byte(secret),
		ttl:         time.Duration(ttlHours) * time.Hour,
	}, nil
}

// TTL 返回会话的过期时间，供设置 Cookie MaxAge 使用。
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Issue 为用户建立新会话，返回写入 Cookie 的值。
// 会话中只序列化用户 id。
func (m *SessionManager) Issue(ctx context.Context, user *domain.User) (string, error) {
	token := uuid.NewString()
	if err := m.sessionRepo.Store(ctx, token, user.ID.Hex(), m.ttl); err != nil {
		return "", err
	}
	return token + "." + m.sign(token), nil
}

// Resolve 把 Cookie 值还原为已认证用户。
// 签名无效、令牌未知、用户不存在都向 "无会话" 退化 (返回 nil, nil)，
// 只有基础设施错误才作为 error 返回。
func (m *SessionManager) Resolve(ctx context.Context, cookieValue string) (*domain.User, error) {
	token, ok := m.verify(cookieValue)
	if !ok {
		return nil, nil
	}

	userID, err := m.sessionRepo.Lookup(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		// 会话里存了无法解析的 id，按无会话处理
		logrus.WithField("user_id", userID).Warn("Session holds malformed user id")
		return nil, nil
	}

	user, err := m.userRepo.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// Revoke 销毁 Cookie 值对应的会话；之后携带旧令牌的请求一律视为未认证。
func (m *SessionManager) Revoke(ctx context.Context, cookieValue string) error {
	token, ok := m.verify(cookieValue)
	if !ok {
		return nil
	}
	return m.sessionRepo.Delete(ctx, token)
}

// --- 私有辅助函数 ---

// sign 计算令牌的 HMAC-SHA256 签名 (十六进制)
func (m *SessionManager) sign(token string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// verify 校验 Cookie 值的格式和签名，返回其中的令牌
func (m *SessionManager) verify(cookieValue string) (string, bool) {
	token, sig, found := strings.Cut(cookieValue, ".")
	if !found || token == "" {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(m.sign(token))) {
		return "", false
	}
	return token, true
}
