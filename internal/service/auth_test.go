package service_test // 测试包

import (
	"context"
	"errors"
	"testing"

	"github.com/tawityagi/secrets/internal/domain"
	"github.com/tawityagi/secrets/internal/repository"
	"github.com/tawityagi/secrets/internal/repository/mocks" // 导入 Mock 实现
	"github.com/tawityagi/secrets/internal/service"          // 导入被测试的包

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// --- 测试 Register 方法 ---

func TestAuthService_Register_Success(t *testing.T) {
	// Arrange: 准备 Mock 对象, Service 实例, 和测试数据
	mockUserRepo := new(mocks.UserRepository)
	authService := service.NewAuthService(mockUserRepo)

	ctx := context.Background()
	username := "newbie"
	password := "StrongPass123"
	assignedID := primitive.NewObjectID()

	// 设置 Mock 预期: Create 被调用时校验传入的用户文档并回填 ID
	mockUserRepo.On("Create", ctx, mock.MatchedBy(func(user *domain.User) bool {
		assert.Equal(t, username, user.Username)
		assert.Empty(t, user.GoogleID, "本地注册不应设置 googleId")
		assert.NotNil(t, user.Secrets, "新用户应携带空的秘密序列")
		assert.Len(t, user.Secrets, 0)
		// 验证密码是否已哈希
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)), "密码应被正确哈希")
		return true
	})).
		Run(func(args mock.Arguments) { // 模拟存储层回填主键
			userArg := args.Get(1).(*domain.User)
			userArg.ID = assignedID
		}).
		Return(nil).
		Once()

	// Act: 执行被测试的 Register 方法
	registeredUser, err := authService.Register(ctx, username, password)

	// Assert: 验证 Register 的结果
	require.NoError(t, err, "成功注册时不应有错误")
	require.NotNil(t, registeredUser, "成功注册时应返回用户对象")
	assert.Equal(t, assignedID, registeredUser.ID, "返回的用户应携带存储层分配的 ID")

	// Verify: 确保 Mock 的所有预期都被满足
	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Register_UsernameTaken(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	authService := service.NewAuthService(mockUserRepo)
	ctx := context.Background()
	username := "existingUser"

	// 设置 Mock 预期: 唯一索引拒绝重复写入
	mockUserRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).
		Return(repository.ErrDuplicateEntry).
		Once()

	// Act: 第二次注册同名用户
	_, err := authService.Register(ctx, username, "anotherPassword")

	// Assert
	require.Error(t, err, "用户名已存在时应返回错误")
	assert.True(t, errors.Is(err, service.ErrUsernameTaken), "错误类型应为 ErrUsernameTaken")

	// Verify: 除了被拒绝的插入没有任何写操作，已有用户的凭证不会被改动
	mockUserRepo.AssertExpectations(t)
	mockUserRepo.AssertNumberOfCalls(t, "Create", 1)
}

func TestAuthService_Register_EmptyInput(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	authService := service.NewAuthService(mockUserRepo)

	// Act
	_, err := authService.Register(context.Background(), "", "")

	// Assert: 空输入直接拒绝，不触达存储层
	require.Error(t, err)
	mockUserRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// --- 测试 Login 方法 ---

func TestAuthService_Login_Success(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	authService := service.NewAuthService(mockUserRepo)
	ctx := context.Background()
	username := "testuser"
	password := "password123"
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	userInDb := &domain.User{ID: primitive.NewObjectID(), Username: username, Password: string(hashedPassword)}

	// 设置 Mock 预期: FindByUsername 成功找到用户
	mockUserRepo.On("FindByUsername", ctx, username).Return(userInDb, nil).Once()

	// Act
	user, err := authService.Login(ctx, username, password)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, userInDb.ID, user.ID)

	// Verify
	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	authService := service.NewAuthService(mockUserRepo)
	ctx := context.Background()
	username := "testuser"
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.DefaultCost)
	userInDb := &domain.User{ID: primitive.NewObjectID(), Username: username, Password: string(hashedPassword)}

	mockUserRepo.On("FindByUsername", ctx, username).Return(userInDb, nil).Once()

	// Act: 用户名正确但密码错误
	_, err := authService.Login(ctx, username, "wrong-password")

	// Assert
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrInvalidCredentials), "错误类型应为 ErrInvalidCredentials")
	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Login_UserNotFound(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	authService := service.NewAuthService(mockUserRepo)
	ctx := context.Background()

	mockUserRepo.On("FindByUsername", ctx, "nobody").Return(nil, repository.ErrUserNotFound).Once()

	// Act
	_, err := authService.Login(ctx, "nobody", "whatever")

	// Assert: 用户不存在对调用方同样表现为凭证无效
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrInvalidCredentials))
	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Login_FederatedOnlyUser(t *testing.T) {
	// Arrange: 仅通过第三方登录创建的用户没有本地密码
	mockUserRepo := new(mocks.UserRepository)
	authService := service.NewAuthService(mockUserRepo)
	ctx := context.Background()
	userInDb := &domain.User{ID: primitive.NewObjectID(), Username: "federated", GoogleID: "ext-123"}

	mockUserRepo.On("FindByUsername", ctx, "federated").Return(userInDb, nil).Once()

	// Act
	_, err := authService.Login(ctx, "federated", "any-password")

	// Assert
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrInvalidCredentials))
	mockUserRepo.AssertExpectations(t)
}
