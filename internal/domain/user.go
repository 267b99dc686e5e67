// Package domain 定义了应用程序中使用的数据结构 (文档模型)。
package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// Secret 表示用户提交的一条秘密，作为 User 文档的内嵌元素存储。
// 秘密只能追加，没有更新或删除操作，显示顺序即插入顺序。
type Secret struct {
	Content  string `bson:"content"`  // 秘密的正文，自由文本
	Category string `bson:"category"` // 分类标签，提交时为空则默认为 "General"
}

// DefaultCategory 是提交秘密时未指定分类时使用的默认值。
const DefaultCategory = "General"

// User 表示应用程序中的用户。
// 本地注册用户具有 Username 和 Password (bcrypt 哈希)；
// 第三方登录用户具有 GoogleID；账号关联后可以两者皆有。
// Username 和 GoogleID 在存在时必须全局唯一 (由存储层的稀疏唯一索引保证)。
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`      // 用户唯一标识符 (主键)
	Username string             `bson:"username,omitempty"` // 本地用户名，唯一
	Email    string             `bson:"email,omitempty"`    // 文档布局保留字段，任何流程都不会填充
	Password string             `bson:"password,omitempty"` // 存储的是哈希后的密码，仅本地用户
	GoogleID string             `bson:"googleId,omitempty"` // 外部身份提供方的 subject 标识，仅联合用户
	Secrets  []Secret           `bson:"secrets"`            // 已提交的秘密序列，仅追加
}

// HasSecrets 报告该用户是否提交过至少一条秘密。
func (u *User) HasSecrets() bool {
	return len(u.Secrets) > 0
}
