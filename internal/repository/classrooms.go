package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/domain"
)

func (r *Repository) CreateClassroom(c *domain.Classroom) error {
	query := `
		INSERT INTO classrooms (room_number, block, capacity)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if err := r.dbpool.QueryRowContext(ctx, query, c.RoomNumber, c.Block, c.Capacity).Scan(&c.ID, &c.CreatedAt, &c.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetClassroomByID(id int64) (*domain.Classroom, error) {
	query := `
		SELECT room_number, block, capacity, created_at, version
		FROM classrooms WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	c := &domain.Classroom{
		ID: id,
	}

	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(&c.RoomNumber, &c.Block, &c.Capacity, &c.CreatedAt, &c.Version); err != nil {
		return nil, err
	}

	return c, nil
}

// GetAllClassrooms 按楼栋和教室号排序返回所有教室，分配时会再按容量重新排序
func (r *Repository) GetAllClassrooms() ([]*domain.Classroom, error) {
	query := `
		SELECT id, room_number, block, capacity, created_at, version
		FROM classrooms ORDER BY block, room_number
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	classrooms := make([]*domain.Classroom, 0)
	for rows.Next() {
		c := &domain.Classroom{}
		if err := rows.Scan(&c.ID, &c.RoomNumber, &c.Block, &c.Capacity, &c.CreatedAt, &c.Version); err != nil {
			return nil, err
		}
		classrooms = append(classrooms, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return classrooms, nil
}

func (r *Repository) UpdateClassroom(c *domain.Classroom) error {
	query := `
		UPDATE classrooms
		SET
			room_number = $1,
			block = $2,
			capacity = $3,
			version = version + 1
		WHERE id = $4 AND version = $5
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{c.RoomNumber, c.Block, c.Capacity, c.ID, c.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&c.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteClassroom(id int64) error {
	query := `
		DELETE FROM classrooms WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}
