package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/domain"
)

func scanStaff(rows *sql.Rows) ([]*domain.Staff, error) {
	staff := make([]*domain.Staff, 0)
	for rows.Next() {
		s := &domain.Staff{}
		dst := []any{&s.ID, &s.Name, &s.Department, &s.Designation, &s.Email, &s.IsAvailable, &s.CreatedAt, &s.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		staff = append(staff, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return staff, nil
}

func (r *Repository) CreateStaff(s *domain.Staff) error {
	query := `
		INSERT INTO staff (name, department, designation, email, is_available)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{s.Name, s.Department, s.Designation, s.Email, s.IsAvailable}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.CreatedAt, &s.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetStaffByID(id int64) (*domain.Staff, error) {
	query := `
		SELECT name, department, designation, email, is_available, created_at, version
		FROM staff WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	s := &domain.Staff{
		ID: id,
	}

	dst := []any{&s.Name, &s.Department, &s.Designation, &s.Email, &s.IsAvailable, &s.CreatedAt, &s.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return s, nil
}

func (r *Repository) GetAllStaff() ([]*domain.Staff, error) {
	query := `
		SELECT id, name, department, designation, email, is_available, created_at, version
		FROM staff ORDER BY name, id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanStaff(rows)
}

// GetAvailableStaff 获取所有可以参与监考的人员
func (r *Repository) GetAvailableStaff() ([]*domain.Staff, error) {
	query := `
		SELECT id, name, department, designation, email, is_available, created_at, version
		FROM staff WHERE is_available = TRUE ORDER BY name, id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanStaff(rows)
}

func (r *Repository) GetStaffByIDs(ids []int64) ([]*domain.Staff, error) {
	query := `
		SELECT id, name, department, designation, email, is_available, created_at, version
		FROM staff WHERE id = ANY($1)
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanStaff(rows)
}

func (r *Repository) UpdateStaff(s *domain.Staff) error {
	query := `
		UPDATE staff
		SET
			name = $1,
			department = $2,
			designation = $3,
			email = $4,
			is_available = $5,
			version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{s.Name, s.Department, s.Designation, s.Email, s.IsAvailable, s.ID, s.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&s.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteStaff(id int64) error {
	query := `
		DELETE FROM staff WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}
