package mongopersistence

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	// 使用正确的 Domain 模型路径和 Repository 接口路径
	"github.com/tawityagi/secrets/internal/domain"
	"github.com/tawityagi/secrets/internal/repository"
)

// MongoUserRepository 是 UserRepository 接口的 MongoDB 实现
type MongoUserRepository struct {
	users *mongo.Collection // 依赖 users 集合
}

// NewMongoUserRepository 创建 MongoUserRepository 实例
// db *mongo.Database 通过依赖注入传入
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	if db == nil {
		// 早期失败比运行时 panic 更好
		panic("mongo database cannot be nil for MongoUserRepository")
	}
	return &MongoUserRepository{users: db.Collection("users")}
}

// EnsureIndexes 在启动时创建 username 和 googleId 的稀疏唯一索引。
// 唯一性由存储层保证，注册时的重复写入会以重复键错误被拒绝，
// 从而消除应用层 "先查再建" 的竞态窗口。
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "googleId", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	if err != nil {
		return fmt.Errorf("mongo: ensure user indexes: %w", err)
	}
	return nil
}

// FindByID 实现根据用户 ID 查找用户
func (r *MongoUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	var user domain.User
	err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		// 检查是否是记录未找到错误，映射为定义的仓库层错误
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrUserNotFound
		}
		// 对于其他数据库错误，包装原始错误并返回
		return nil, fmt.Errorf("mongo: find user by id %s: %w", id.Hex(), err)
	}
	return &user, nil
}

// FindByUsername 实现根据用户名查找用户
func (r *MongoUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := r.users.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("mongo: find user by username '%s': %w", username, err)
	}
	return &user, nil
}

// FindByGoogleID 实现根据外部身份标识查找用户
func (r *MongoUserRepository) FindByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	var user domain.User
	err := r.users.FindOne(ctx, bson.M{"googleId": googleID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("mongo: find user by googleId '%s': %w", googleID, err)
	}
	return &user, nil
}

// Create 实现插入新用户文档
func (r *MongoUserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.Secrets == nil {
		user.Secrets = []domain.Secret{} // 新用户以空序列落库，而不是缺失字段
	}
	result, err := r.users.InsertOne(ctx, user)
	if err != nil {
		// 唯一索引冲突映射为定义的仓库错误
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("mongo: create user (username: %s): %w", user.Username, err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid // 回填生成的主键
	}
	return nil
}

// AppendSecret 实现向用户的秘密序列追加一条秘密
// $push 是单文档原子更新，同一用户的并发提交不会互相覆盖。
func (r *MongoUserRepository) AppendSecret(ctx context.Context, id primitive.ObjectID, secret domain.Secret) error {
	result, err := r.users.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$push": bson.M{"secrets": secret}},
	)
	if err != nil {
		return fmt.Errorf("mongo: append secret for user %s: %w", id.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

// FindWithSecrets 实现查询秘密序列非空的所有用户
func (r *MongoUserRepository) FindWithSecrets(ctx context.Context) ([]domain.User, error) {
	// "secrets.0 存在" 排除了空序列，而不仅仅是缺失字段
	filter := bson.M{"secrets.0": bson.M{"$exists": true}}
	return r.findAll(ctx, filter, "find users with secrets")
}

// FindBySecretCategory 实现按分类查询用户
// 匹配发生在用户级别：只要有一条秘密的分类完全相等 (区分大小写)，
// 整个文档连同全部秘密一起返回，裁剪交给展示层。
func (r *MongoUserRepository) FindBySecretCategory(ctx context.Context, category string) ([]domain.User, error) {
	filter := bson.M{"secrets.category": category}
	return r.findAll(ctx, filter, fmt.Sprintf("find users by category '%s'", category))
}

// findAll 执行查询并解码全部结果
func (r *MongoUserRepository) findAll(ctx context.Context, filter bson.M, op string) ([]domain.User, error) {
	cursor, err := r.users.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("mongo: %s: %w", op, err)
	}
	defer cursor.Close(ctx)

	var users []domain.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("mongo: %s: decode results: %w", op, err)
	}
	return users, nil
}
