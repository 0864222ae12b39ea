package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/domain"
)

func (r *Repository) CreateExam(exam *domain.Exam) error {
	query := `
		INSERT INTO exams (name, date, semester)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if err := r.dbpool.QueryRowContext(ctx, query, exam.Name, exam.Date, exam.Semester).Scan(&exam.ID, &exam.CreatedAt, &exam.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetExamByID(id int64) (*domain.Exam, error) {
	query := `
		SELECT name, date, semester, created_at, version
		FROM exams WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	exam := &domain.Exam{
		ID: id,
	}

	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(&exam.Name, &exam.Date, &exam.Semester, &exam.CreatedAt, &exam.Version); err != nil {
		return nil, err
	}

	return exam, nil
}

func (r *Repository) GetAllExams() ([]*domain.Exam, error) {
	query := `
		SELECT id, name, date, semester, created_at, version
		FROM exams ORDER BY date DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exams := make([]*domain.Exam, 0)
	for rows.Next() {
		exam := &domain.Exam{}
		if err := rows.Scan(&exam.ID, &exam.Name, &exam.Date, &exam.Semester, &exam.CreatedAt, &exam.Version); err != nil {
			return nil, err
		}
		exams = append(exams, exam)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return exams, nil
}

func (r *Repository) UpdateExam(exam *domain.Exam) error {
	query := `
		UPDATE exams
		SET
			name = $1,
			date = $2,
			semester = $3,
			version = version + 1
		WHERE id = $4 AND version = $5
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{exam.Name, exam.Date, exam.Semester, exam.ID, exam.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&exam.Version); err != nil {
		return err
	}

	return nil
}

// DeleteExam 删除考试，对应的分配结果会被级联删除
func (r *Repository) DeleteExam(id int64) error {
	query := `
		DELETE FROM exams WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}
