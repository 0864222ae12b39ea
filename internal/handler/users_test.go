package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

func TestUserWriteErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"invalid role", domain.ErrInvalidRole, "用户角色只能是管理员或教务员"},
		{"role check constraint", &pgconn.PgError{ConstraintName: "users_role_check"}, "用户角色只能是管理员或教务员"},
		{"duplicate username", &pgconn.PgError{ConstraintName: "users_username_key"}, "用户名已存在"},
		{"duplicate email", &pgconn.PgError{ConstraintName: "users_email_key"}, "邮箱已存在"},
		{"other constraint", &pgconn.PgError{ConstraintName: "users_pkey"}, ""},
		{"not a database error", sql.ErrConnDone, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, userWriteErrorMessage(tt.err))
		})
	}
}

func newUserHandler(t *testing.T, store *fakeStore) (*Handler, *fakeMailer) {
	t.Helper()

	h := newTestHandler(t)
	h.config.NewUser.PasswordLength = 12
	mailer := &fakeMailer{}
	h.repository = store
	h.mailer = mailer
	return h, mailer
}

func postUser(h *Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.CreateUser(rec, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body)))
	return rec
}

func TestCreateUser(t *testing.T) {
	// Arrange
	store := &fakeStore{}
	h, mailer := newUserHandler(t, store)

	// Act
	rec := postUser(h, `{"username":"zhangsan","fullName":"张三","email":"zhangsan@example.edu.cn","role":"教务员"}`)

	// Assert
	resp := decodeResponse(t, rec)
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, "用户创建成功", resp.Message)

	created := store.users["zhangsan"]
	require.NotNil(t, created)
	assert.Equal(t, domain.RoleOperator, created.Role)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, domain.MailTypeCreateUser, mailer.sent[0].Type)
	data := mailer.sent[0].Data.(domain.CreateUserMailData)
	assert.Len(t, data.Password, 12)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte(data.Password)))

	// 密码哈希不会出现在响应中
	assert.NotContains(t, rec.Body.String(), created.PasswordHash)
}

func TestCreateUserRejectsUnknownRole(t *testing.T) {
	store := &fakeStore{}
	h, mailer := newUserHandler(t, store)

	resp := decodeResponse(t, postUser(h, `{"username":"zhangsan","fullName":"张三","email":"zhangsan@example.edu.cn","role":"学生"}`))

	assert.False(t, resp.Success)
	assert.Equal(t, "用户角色只能是管理员或教务员", resp.Message)
	assert.Empty(t, store.users)
	assert.Empty(t, mailer.sent)
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	store := &fakeStore{createUserErr: &pgconn.PgError{ConstraintName: "users_username_key"}}
	h, mailer := newUserHandler(t, store)

	resp := decodeResponse(t, postUser(h, `{"username":"admin","fullName":"张三","email":"zhangsan@example.edu.cn","role":"管理员"}`))

	assert.Equal(t, "用户名已存在", resp.Message)
	assert.Empty(t, mailer.sent)
}

func TestCreateUserMailFailure(t *testing.T) {
	h, mailer := newUserHandler(t, &fakeStore{})
	mailer.err = errBrokerDown

	rec := postUser(h, `{"username":"zhangsan","fullName":"张三","email":"zhangsan@example.edu.cn","role":"管理员"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUpdateUserRole(t *testing.T) {
	patch := func(t *testing.T, h *Handler, user *domain.User, body string) Response {
		req := httptest.NewRequest(http.MethodPatch, "/users/2/role", strings.NewReader(body))
		req = req.WithContext(context.WithValue(req.Context(), UserInfoCtx, user))
		rec := httptest.NewRecorder()
		h.UpdateUserRole(rec, req)
		return decodeResponse(t, rec)
	}

	t.Run("promote operator", func(t *testing.T) {
		h, _ := newUserHandler(t, &fakeStore{})
		user := &domain.User{ID: 2, Username: "zhangsan", Role: domain.RoleOperator, Version: 1}

		resp := patch(t, h, user, `{"role":"管理员"}`)

		assert.True(t, resp.Success)
		assert.Equal(t, domain.RoleAdmin, user.Role)
		assert.EqualValues(t, 2, user.Version)
	})

	t.Run("unknown role", func(t *testing.T) {
		h, _ := newUserHandler(t, &fakeStore{})
		user := &domain.User{ID: 2, Username: "zhangsan", Role: domain.RoleOperator, Version: 1}

		resp := patch(t, h, user, `{"role":"学生"}`)

		assert.False(t, resp.Success)
		assert.Equal(t, "用户角色只能是管理员或教务员", resp.Message)
	})

	t.Run("version conflict", func(t *testing.T) {
		h, _ := newUserHandler(t, &fakeStore{updateRoleErr: sql.ErrNoRows})
		user := &domain.User{ID: 2, Username: "zhangsan", Role: domain.RoleAdmin, Version: 1}

		resp := patch(t, h, user, `{"role":"教务员"}`)

		assert.Equal(t, "更新用户角色失败，请重试", resp.Message)
	})
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("p@ssw0rd"), bcrypt.MinCost)
	require.NoError(t, err)

	store := &fakeStore{users: map[string]*domain.User{
		"zhangsan": {ID: 2, Username: "zhangsan", PasswordHash: string(hash), Role: domain.RoleOperator},
		"legacy":   {ID: 3, Username: "legacy", PasswordHash: string(hash), Role: "超级管理员"},
	}}
	h, _ := newUserHandler(t, store)

	login := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))
		return rec
	}

	t.Run("success sets http-only cookie", func(t *testing.T) {
		rec := login(`{"username":"zhangsan","password":"p@ssw0rd"}`)

		assert.True(t, decodeResponse(t, rec).Success)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, tokenCookieName, cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
		assert.NotEmpty(t, cookies[0].Value)
	})

	t.Run("wrong password and unknown user look the same", func(t *testing.T) {
		assert.Equal(t, invalidCredentialsMessage, decodeResponse(t, login(`{"username":"zhangsan","password":"wrong"}`)).Message)
		assert.Equal(t, invalidCredentialsMessage, decodeResponse(t, login(`{"username":"nobody","password":"p@ssw0rd"}`)).Message)
	})

	t.Run("stored role outside the two roles", func(t *testing.T) {
		rec := login(`{"username":"legacy","password":"p@ssw0rd"}`)

		assert.Equal(t, "该账号的角色无效，请联系管理员", decodeResponse(t, rec).Message)
		assert.Empty(t, rec.Result().Cookies())
	})
}

func TestLogoutClearsCookie(t *testing.T) {
	h := newTestHandler(t)
	h.config.Environment = "production"

	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.True(t, cookies[0].Secure)
	assert.True(t, cookies[0].HttpOnly)
}
