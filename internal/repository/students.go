package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/domain"
)

func scanStudents(rows *sql.Rows) ([]*domain.Student, error) {
	students := make([]*domain.Student, 0)
	for rows.Next() {
		s := &domain.Student{}
		dst := []any{&s.ID, &s.StudentNumber, &s.Name, &s.Semester, &s.Department, &s.CreatedAt, &s.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		students = append(students, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return students, nil
}

func (r *Repository) CreateStudent(s *domain.Student) error {
	query := `
		INSERT INTO students (student_number, name, semester, department)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{s.StudentNumber, s.Name, s.Semester, s.Department}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.CreatedAt, &s.Version); err != nil {
		return err
	}

	return nil
}

// CreateStudents 在一个事务中批量插入学生，任意一个插入失败则全部回滚
func (r *Repository) CreateStudents(students []*domain.Student) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO students (student_number, name, semester, department)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version
	`

	for _, s := range students {
		args := []any{s.StudentNumber, s.Name, s.Semester, s.Department}
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.CreatedAt, &s.Version); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetStudentByID(id int64) (*domain.Student, error) {
	query := `
		SELECT student_number, name, semester, department, created_at, version
		FROM students WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	s := &domain.Student{
		ID: id,
	}

	dst := []any{&s.StudentNumber, &s.Name, &s.Semester, &s.Department, &s.CreatedAt, &s.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return s, nil
}

func (r *Repository) GetStudentByNumber(number string) (*domain.Student, error) {
	query := `
		SELECT id, name, semester, department, created_at, version
		FROM students WHERE student_number = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	s := &domain.Student{
		StudentNumber: number,
	}

	dst := []any{&s.ID, &s.Name, &s.Semester, &s.Department, &s.CreatedAt, &s.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, number).Scan(dst...); err != nil {
		return nil, err
	}

	return s, nil
}

func (r *Repository) GetStudents(filter domain.StudentFilter) ([]*domain.Student, error) {
	conditions := []string{}
	args := []any{}

	if filter.Semester != nil {
		args = append(args, *filter.Semester)
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)))
	}
	if filter.Department != nil {
		args = append(args, *filter.Department)
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)))
	}

	query := `
		SELECT id, student_number, name, semester, department, created_at, version
		FROM students
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY semester, department, student_number"

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanStudents(rows)
}

func (r *Repository) GetStudentsBySemester(semester int32) ([]*domain.Student, error) {
	return r.GetStudents(domain.StudentFilter{Semester: &semester})
}

func (r *Repository) GetStudentsByIDs(ids []int64) ([]*domain.Student, error) {
	query := `
		SELECT id, student_number, name, semester, department, created_at, version
		FROM students WHERE id = ANY($1)
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanStudents(rows)
}

func (r *Repository) UpdateStudent(s *domain.Student) error {
	query := `
		UPDATE students
		SET
			student_number = $1,
			name = $2,
			semester = $3,
			department = $4,
			version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{s.StudentNumber, s.Name, s.Semester, s.Department, s.ID, s.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&s.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteStudent(id int64) error {
	query := `
		DELETE FROM students WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}
