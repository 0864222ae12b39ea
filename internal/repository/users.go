package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/domain"
)

const userColumns = `id, username, password_hash, full_name, email, role, created_at, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	dst := []any{&user.ID, &user.Username, &user.PasswordHash, &user.FullName, &user.Email, &user.Role, &user.CreatedAt, &user.Version}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *Repository) getUser(where string, arg any) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	return scanUser(r.dbpool.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
}

func (r *Repository) GetUserByID(id int64) (*domain.User, error) {
	return r.getUser("id = $1", id)
}

func (r *Repository) GetUserByUsername(username string) (*domain.User, error) {
	return r.getUser("username = $1", username)
}

func (r *Repository) GetAllUsers() ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY role, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

// CreateUser 只接受管理员和教务员两种角色，数据库中的 users_role_check 约束做同样的检查
func (r *Repository) CreateUser(user *domain.User) error {
	if !user.Role.Valid() {
		return domain.ErrInvalidRole
	}

	query := `
		INSERT INTO users (username, password_hash, full_name, email, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{user.Username, user.PasswordHash, user.FullName, user.Email, user.Role}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.CreatedAt, &user.Version)
}

// UpdateUserRole 版本号不一致时返回 sql.ErrNoRows
func (r *Repository) UpdateUserRole(user *domain.User) error {
	if !user.Role.Valid() {
		return domain.ErrInvalidRole
	}

	query := `
		UPDATE users
		SET role = $1, version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	return r.dbpool.QueryRowContext(ctx, query, user.Role, user.ID, user.Version).Scan(&user.Version)
}

func (r *Repository) DeleteUser(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}
