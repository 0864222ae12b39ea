package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const invalidCredentialsMessage = "用户名不存在或密码错误"

type AuthClaims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// tokenCookie 返回携带 JWT 的 http-only cookie，value 为空时用于清除登录状态
func (h *Handler) tokenCookie(value string, expiration time.Time) *http.Cookie {
	cookie := &http.Cookie{
		Name:     tokenCookieName,
		Value:    value,
		Expires:  expiration,
		Path:     "/",
		HttpOnly: true,
	}

	if h.config.Environment == "production" {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteStrictMode
	}

	return cookie
}

func (h *Handler) signToken(role domain.Role, subject string, expiration time.Time) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   subject,
		},
	})
	return token.SignedString([]byte(h.config.JWT.Secret))
}

// authenticate 校验用户名和密码，两者任一错误时都返回同样的提示
func (h *Handler) authenticate(username, password string) (*domain.User, string, error) {
	user, err := h.repository.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, invalidCredentialsMessage, nil
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, invalidCredentialsMessage, nil
		}
		return nil, "", err
	}

	if !user.Role.Valid() {
		return nil, "该账号的角色无效，请联系管理员", nil
	}

	return user, "", nil
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	user, msg, err := h.authenticate(req.Username, req.Password)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if msg != "" {
		h.errorResponse(w, r, msg)
		return
	}

	expiration := time.Now().Add(time.Duration(h.config.JWT.Expiration) * time.Hour)
	ss, err := h.signToken(user.Role, strconv.FormatInt(user.ID, 10), expiration)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	http.SetCookie(w, h.tokenCookie(ss, expiration))

	h.successResponse(w, r, "登录成功", user)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.tokenCookie("", time.Now().Add(-time.Hour)))

	h.successResponse(w, r, "登出成功", nil)
}
