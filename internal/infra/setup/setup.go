package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InitMongo 初始化 MongoDB 连接并验证连通性。
// 返回客户端 (用于关闭连接) 和选定的数据库句柄 (用于依赖注入)。
func InitMongo(ctx context.Context, uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("setup: connect to mongo: %w", err)
	}
	// 使用 Ping 测试连接，失败时尽早报错而不是留到第一次查询
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, nil, fmt.Errorf("setup: ping mongo: %w", err)
	}
	return client, client.Database(dbName), nil
}

// InitRedis 初始化 Redis 连接并验证连通性
func InitRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     20,
		MinIdleConns: 5,
		MaxConnAge:   30 * time.Minute, // 连接最大存活时间
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := client.Ping(pingCtx).Result(); err != nil {
		return nil, fmt.Errorf("setup: ping redis: %w", err)
	}
	return client, nil
}
