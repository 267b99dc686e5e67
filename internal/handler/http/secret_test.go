package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/tawityagi/secrets/internal/domain"
	"github.com/tawityagi/secrets/internal/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// loginTestUser 为测试用户签发会话并准备好中间件还原所需的 Mock 预期
func (e *testEnv) loginTestUser(t *testing.T, user *domain.User) *http.Cookie {
	t.Helper()
	var token string
	e.sessionRepo.On("Store", mock.Anything, mock.AnythingOfType("string"), user.ID.Hex(), time.Hour).
		Run(func(args mock.Arguments) { token = args.String(1) }).
		Return(nil).
		Once()
	cookie, err := e.sessions.Issue(context.Background(), user)
	require.NoError(t, err)
	e.sessionRepo.On("Lookup", mock.Anything, token).Return(user.ID.Hex(), nil)
	e.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	return &http.Cookie{Name: middleware.SessionCookie, Value: cookie}
}

func TestSecretHandler_Submit_DefaultCategory(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	user := &domain.User{ID: primitive.NewObjectID(), Username: "alice"}
	cookie := env.loginTestUser(t, user)

	// 设置 Mock 预期: 空分类以 "General" 落库
	expected := domain.Secret{Content: "my secret", Category: "General"}
	env.userRepo.On("AppendSecret", mock.Anything, user.ID, expected).Return(nil).Once()

	// Act: 提交时不带分类
	w := env.postForm("/submit", url.Values{"content": {"my secret"}}, cookie)

	// Assert: 追加成功后重定向到浏览视图
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/secrets", w.Header().Get("Location"))
	env.userRepo.AssertExpectations(t)
}

func TestSecretHandler_Submit_Unauthenticated(t *testing.T) {
	// Arrange
	env := newTestEnv(t)

	// Act: 未认证提交
	w := env.postForm("/submit", url.Values{"content": {"sneaky"}})

	// Assert: 被门卫重定向，不触达存储层
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	env.userRepo.AssertNotCalled(t, "AppendSecret", mock.Anything, mock.Anything, mock.Anything)
}

func TestSecretHandler_Secrets_RendersAllUsers(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	user := &domain.User{ID: primitive.NewObjectID(), Username: "alice"}
	cookie := env.loginTestUser(t, user)

	others := []domain.User{
		{ID: primitive.NewObjectID(), Secrets: []domain.Secret{{Content: "s1", Category: "General"}}},
		{ID: primitive.NewObjectID(), Secrets: []domain.Secret{{Content: "s2", Category: "Work"}}},
	}
	env.userRepo.On("FindWithSecrets", mock.Anything).Return(others, nil).Once()

	// Act
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/secrets", nil)
	req.AddCookie(cookie)
	env.router.ServeHTTP(w, req)

	// Assert: 所有用户的秘密都在渲染数据里
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "s1:General")
	assert.Contains(t, w.Body.String(), "s2:Work")
}

func TestSecretHandler_Category_UserLevelMatch(t *testing.T) {
	// Arrange: 用户同时有 Work 和 Home 两条秘密
	env := newTestEnv(t)
	user := &domain.User{ID: primitive.NewObjectID(), Username: "alice"}
	cookie := env.loginTestUser(t, user)

	mixedUser := domain.User{
		ID: primitive.NewObjectID(),
		Secrets: []domain.Secret{
			{Content: "a", Category: "Work"},
			{Content: "b", Category: "Home"},
		},
	}
	env.userRepo.On("FindBySecretCategory", mock.Anything, "Work").
		Return([]domain.User{mixedUser}, nil).
		Once()

	// Act: 按 Work 过滤
	w := env.postForm("/category", url.Values{"category": {"Work"}}, cookie)

	// Assert: 该用户整条记录被返回，两条秘密都传给了模板
	// (匹配发生在用户级别，裁剪是展示层的事)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "a:Work")
	assert.Contains(t, w.Body.String(), "b:Home")
	env.userRepo.AssertExpectations(t)
}

func TestSecretHandler_Category_EmptyDefaultsToGeneral(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	user := &domain.User{ID: primitive.NewObjectID(), Username: "alice"}
	cookie := env.loginTestUser(t, user)

	env.userRepo.On("FindBySecretCategory", mock.Anything, "General").
		Return([]domain.User{}, nil).
		Once()

	// Act: 不带分类提交浏览表单
	w := env.postForm("/category", url.Values{}, cookie)

	// Assert: 按默认分类查询并回显
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "General|")
	env.userRepo.AssertExpectations(t)
}
