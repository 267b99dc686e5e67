package redissession

import (
	"context"
	"errors"
	"fmt"
	"time"

	// 导入 Redis 客户端库
	"github.com/go-redis/redis/v8"

	"github.com/tawityagi/secrets/internal/repository"
)

// RedisSessionRepository 是 SessionRepository 接口的 Redis 实现
// 会话过期完全依赖键的 TTL，应用自身不做任何清扫。
type RedisSessionRepository struct {
	client    *redis.Client // 依赖 Redis 客户端
	keyPrefix string        // Redis key 的前缀，方便管理
}

// NewRedisSessionRepository 创建 RedisSessionRepository 实例
func NewRedisSessionRepository(client *redis.Client, keyPrefix string) *RedisSessionRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisSessionRepository")
	}
	if keyPrefix == "" {
		keyPrefix = "secrets:" // 默认前缀
	}
	return &RedisSessionRepository{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// --- Key Generation Helpers ---

func (r *RedisSessionRepository) sessionKey(token string) string {
	return fmt.Sprintf("%ssession:%s", r.keyPrefix, token)
}

// --- SessionRepository Interface Implementation ---

// Store 建立 token → userID 的映射并设置 TTL
func (r *RedisSessionRepository) Store(ctx context.Context, token string, userID string, ttl time.Duration) error {
	key := r.sessionKey(token)
	if err := r.client.Set(ctx, key, userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis: failed to store session %s: %w", key, err)
	}
	return nil
}

// Lookup 根据令牌取回用户 id
func (r *RedisSessionRepository) Lookup(ctx context.Context, token string) (string, error) {
	key := r.sessionKey(token)
	userID, err := r.client.Get(ctx, key).Result()
	if err != nil {
		// 键不存在 (未建立或已过期) 映射为仓库层错误
		if errors.Is(err, redis.Nil) {
			return "", repository.ErrSessionNotFound
		}
		return "", fmt.Errorf("redis: failed to look up session %s: %w", key, err)
	}
	return userID, nil
}

// Delete 删除会话，令牌不存在时同样成功 (幂等)
func (r *RedisSessionRepository) Delete(ctx context.Context, token string) error {
	key := r.sessionKey(token)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis: failed to delete session %s: %w", key, err)
	}
	return nil
}
