package repository

import (
	"context"

	"github.com/tawityagi/secrets/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository 定义了用户文档的存储和检索操作。
type UserRepository interface {
	// FindByID 根据用户 ID 查找用户。
	// 如果用户不存在，返回 ErrUserNotFound。
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)

	// FindByUsername 根据本地用户名查找用户。
	// 如果用户不存在，返回 ErrUserNotFound。
	FindByUsername(ctx context.Context, username string) (*domain.User, error)

	// FindByGoogleID 根据外部身份提供方的 subject 标识查找用户。
	// 如果用户不存在，返回 ErrUserNotFound。
	FindByGoogleID(ctx context.Context, googleID string) (*domain.User, error)

	// Create 插入一个新用户文档，并在 user.ID 中回填生成的主键。
	// 如果违反 username 或 googleId 的唯一约束，返回 ErrDuplicateEntry。
	Create(ctx context.Context, user *domain.User) error

	// AppendSecret 以单文档原子更新的方式向指定用户的秘密序列末尾追加一条秘密。
	// 如果用户不存在，返回 ErrUserNotFound。
	AppendSecret(ctx context.Context, id primitive.ObjectID, secret domain.Secret) error

	// FindWithSecrets 返回秘密序列非空的所有用户。
	FindWithSecrets(ctx context.Context) ([]domain.User, error)

	// FindBySecretCategory 返回至少拥有一条指定分类秘密的所有用户。
	// 匹配在用户级别进行：返回的文档保留完整的秘密序列，不做逐条裁剪。
	FindBySecretCategory(ctx context.Context, category string) ([]domain.User, error)
}
