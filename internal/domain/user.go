package domain

import (
	"errors"
	"time"
)

// Role 系统中只有两种角色，管理员可以修改数据，教务员只能查看
type Role string

const (
	RoleAdmin    Role = "管理员"
	RoleOperator Role = "教务员"
)

var ErrInvalidRole = errors.New("用户角色只能是管理员或教务员")

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleOperator
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}
