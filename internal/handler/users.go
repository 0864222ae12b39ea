package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/domain"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

// userWriteErrorMessage 将写入 users 表时的约束冲突转换为提示信息，其余错误返回空字符串
func userWriteErrorMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidRole) {
		return domain.ErrInvalidRole.Error()
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return ""
	}

	switch pgErr.ConstraintName {
	case "users_username_key":
		return "用户名已存在"
	case "users_email_key":
		return "邮箱已存在"
	case "users_role_check":
		return domain.ErrInvalidRole.Error()
	default:
		return ""
	}
}

func (h *Handler) GetAllUserInfo(w http.ResponseWriter, r *http.Request) {
	users, err := h.repository.GetAllUsers()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取用户列表成功", users)
}

// CreateUser 由管理员为教务处的老师开通账号，初始密码随机生成并通过邮件发送
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string      `json:"username" validate:"required"`
		FullName string      `json:"fullName" validate:"required"`
		Email    string      `json:"email" validate:"required,email"`
		Role     domain.Role `json:"role" validate:"required"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	password := utils.GenerateRandomPassword(h.config.NewUser.PasswordLength)
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user := &domain.User{
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
		FullName:     req.FullName,
		Email:        req.Email,
		Role:         req.Role,
	}

	if err := h.repository.CreateUser(user); err != nil {
		if msg := userWriteErrorMessage(err); msg != "" {
			h.errorResponse(w, r, msg)
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	if err := h.mailer.Publish(domain.MailMessage{
		Type: domain.MailTypeCreateUser,
		To:   user.Email,
		Data: domain.CreateUserMailData{
			FullName: user.FullName,
			Username: user.Username,
			Password: password,
		},
	}); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "用户创建成功", user)
}

func (h *Handler) GetUserInfo(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)
	h.successResponse(w, r, "获取用户信息成功", user)
}

// UpdateUserRole 在管理员和教务员之间切换用户的角色
func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role domain.Role `json:"role" validate:"required"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	user := r.Context().Value(UserInfoCtx).(*domain.User)
	if user.Role == req.Role {
		h.successResponse(w, r, "更新用户角色成功", user)
		return
	}
	user.Role = req.Role

	if err := h.repository.UpdateUserRole(user); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更新用户角色失败，请重试")
		case userWriteErrorMessage(err) != "":
			h.errorResponse(w, r, userWriteErrorMessage(err))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新用户角色成功", user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	if err := h.repository.DeleteUser(user.ID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "用户不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "删除用户成功", nil)
}
