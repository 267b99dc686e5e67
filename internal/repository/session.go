package repository

import (
	"context"
	"time"
)

// SessionRepository 定义了会话令牌到用户身份的映射存储。
// 键是不透明的会话令牌，值仅存用户 id (而非完整用户记录)。
type SessionRepository interface {
	// Store 建立 token → userID 的映射，并设置过期时间。
	Store(ctx context.Context, token string, userID string, ttl time.Duration) error

	// Lookup 根据令牌取回用户 id。
	// 如果令牌不存在或已过期，返回 ErrSessionNotFound。
	Lookup(ctx context.Context, token string) (string, error)

	// Delete 删除指定令牌的会话。令牌不存在时也返回 nil (幂等)。
	Delete(ctx context.Context, token string) error
}
