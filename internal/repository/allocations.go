package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/domain"
)

// InsertAllocation 在一个事务中写入分配结果及其所有教室、监考人员和学生，教室和人员的顺序通过 position 保存
func (r *Repository) InsertAllocation(a *domain.Allocation) error {
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
		INSERT INTO allocations (exam_id, total_students, total_students_allocated, total_rooms_used, unallocated_count)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, version
	`
	args := []any{a.ExamID, a.TotalStudents, a.TotalStudentsAllocated, a.TotalRoomsUsed, a.UnallocatedCount}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&a.ID, &a.CreatedAt, &a.Version); err != nil {
		return err
	}

	roomQuery := `
		INSERT INTO allocation_rooms (allocation_id, position, classroom_id, room_number, block, capacity)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	staffQuery := `
		INSERT INTO allocation_room_staff (allocation_room_id, position, staff_id)
		VALUES ($1, $2, $3)
	`
	studentQuery := `
		INSERT INTO allocation_room_students (allocation_room_id, position, student_id)
		VALUES ($1, $2, $3)
	`

	for i, room := range a.RoomAllocations {
		var roomID int64
		args := []any{a.ID, i, room.ClassroomID, room.RoomNumber, room.Block, room.Capacity}
		if err := tx.QueryRowContext(ctx, roomQuery, args...).Scan(&roomID); err != nil {
			return err
		}

		for j, staffID := range room.StaffIDs {
			if _, err := tx.ExecContext(ctx, staffQuery, roomID, j, staffID); err != nil {
				return err
			}
		}

		for j, studentID := range room.StudentIDs {
			if _, err := tx.ExecContext(ctx, studentQuery, roomID, j, studentID); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

// 读取某个分配结果下的所有教室以及每个教室中的人员
func (r *Repository) loadRoomAllocations(ctx context.Context, allocationID int64) ([]domain.RoomAllocation, error) {
	roomQuery := `
		SELECT id, classroom_id, room_number, block, capacity
		FROM allocation_rooms
		WHERE allocation_id = $1
		ORDER BY position
	`

	rows, err := r.dbpool.QueryContext(ctx, roomQuery, allocationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roomIDs := make([]int64, 0)
	rooms := make([]domain.RoomAllocation, 0)
	for rows.Next() {
		var roomID int64
		room := domain.RoomAllocation{
			StaffIDs:   make([]int64, 0),
			StudentIDs: make([]int64, 0),
		}
		if err := rows.Scan(&roomID, &room.ClassroomID, &room.RoomNumber, &room.Block, &room.Capacity); err != nil {
			return nil, err
		}
		roomIDs = append(roomIDs, roomID)
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	index := make(map[int64]int, len(roomIDs))
	for i, id := range roomIDs {
		index[id] = i
	}

	staffQuery := `
		SELECT allocation_room_id, staff_id
		FROM allocation_room_staff
		WHERE allocation_room_id = ANY($1)
		ORDER BY allocation_room_id, position
	`
	if err := r.collectMembers(ctx, staffQuery, roomIDs, func(roomID, staffID int64) {
		i := index[roomID]
		rooms[i].StaffIDs = append(rooms[i].StaffIDs, staffID)
	}); err != nil {
		return nil, err
	}

	studentQuery := `
		SELECT allocation_room_id, student_id
		FROM allocation_room_students
		WHERE allocation_room_id = ANY($1)
		ORDER BY allocation_room_id, position
	`
	if err := r.collectMembers(ctx, studentQuery, roomIDs, func(roomID, studentID int64) {
		i := index[roomID]
		rooms[i].StudentIDs = append(rooms[i].StudentIDs, studentID)
	}); err != nil {
		return nil, err
	}

	return rooms, nil
}

func (r *Repository) collectMembers(ctx context.Context, query string, roomIDs []int64, add func(roomID, memberID int64)) error {
	rows, err := r.dbpool.QueryContext(ctx, query, roomIDs)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var roomID, memberID int64
		if err := rows.Scan(&roomID, &memberID); err != nil {
			return err
		}
		add(roomID, memberID)
	}

	return rows.Err()
}

// GetAllocationByExamID 不存在时返回 sql.ErrNoRows
func (r *Repository) GetAllocationByExamID(examID int64) (*domain.Allocation, error) {
	query := `
		SELECT id, exam_id, total_students, total_students_allocated, total_rooms_used, unallocated_count, created_at, version
		FROM allocations
		WHERE exam_id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	a := &domain.Allocation{}
	dst := []any{&a.ID, &a.ExamID, &a.TotalStudents, &a.TotalStudentsAllocated, &a.TotalRoomsUsed, &a.UnallocatedCount, &a.CreatedAt, &a.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, examID).Scan(dst...); err != nil {
		return nil, err
	}

	rooms, err := r.loadRoomAllocations(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	a.RoomAllocations = rooms

	return a, nil
}

// ExistsAllocationForExam 只检查是否存在，不读取教室和人员
func (r *Repository) ExistsAllocationForExam(examID int64) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM allocations WHERE exam_id = $1)
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var exists bool
	if err := r.dbpool.QueryRowContext(ctx, query, examID).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

// GetAllAllocations 只返回汇总信息，RoomAllocations 为空
func (r *Repository) GetAllAllocations() ([]*domain.Allocation, error) {
	query := `
		SELECT id, exam_id, total_students, total_students_allocated, total_rooms_used, unallocated_count, created_at, version
		FROM allocations
		ORDER BY created_at DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	allocations := make([]*domain.Allocation, 0)
	for rows.Next() {
		a := &domain.Allocation{
			RoomAllocations: make([]domain.RoomAllocation, 0),
		}
		dst := []any{&a.ID, &a.ExamID, &a.TotalStudents, &a.TotalStudentsAllocated, &a.TotalRoomsUsed, &a.UnallocatedCount, &a.CreatedAt, &a.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		allocations = append(allocations, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return allocations, nil
}

// DeleteAllocation 删除分配结果，返回 sql.ErrNoRows 表示分配结果不存在
func (r *Repository) DeleteAllocation(id int64) error {
	query := `
		DELETE FROM allocations WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
