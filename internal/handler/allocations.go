package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/lo"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/allocator"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/domain"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/utils"
)

const duplicateAllocationMessage = "该考试已存在分配结果，请先删除后再重新生成"

type AllocationSummary struct {
	TotalStudents          int32 `json:"totalStudents"`
	TotalStudentsAllocated int32 `json:"totalStudentsAllocated"`
	UnallocatedCount       int32 `json:"unallocatedCount"`
	TotalRoomsUsed         int32 `json:"totalRoomsUsed"`
}

type GenerateAllocationResponse struct {
	Allocation *domain.Allocation `json:"allocation"`
	Summary    AllocationSummary  `json:"summary"`
}

// allocationErrorMessage 将分配前的数据检查失败转换为提示信息，其余错误返回空字符串
func allocationErrorMessage(err error) string {
	var noStudents *allocator.NoStudentsError
	switch {
	case errors.As(err, &noStudents):
		return fmt.Sprintf("第 %d 学期没有学生，无法生成分配结果", noStudents.Semester)
	case errors.Is(err, allocator.ErrNoClassrooms):
		return "没有可用的教室，无法生成分配结果"
	case errors.Is(err, allocator.ErrNoStaff):
		return "没有可用的监考人员，无法生成分配结果"
	default:
		return ""
	}
}

func (h *Handler) GenerateAllocation(w http.ResponseWriter, r *http.Request) {
	exam := r.Context().Value(ExamCtx).(*domain.Exam)

	// 先检查是否已经存在分配结果
	exists, err := h.repository.ExistsAllocationForExam(exam.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if exists {
		h.errorResponse(w, r, duplicateAllocationMessage)
		return
	}

	// 同一场考试同时只能有一个请求在生成分配结果
	token, ok, err := h.locker.Acquire(exam.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if !ok {
		h.errorResponse(w, r, "该考试的分配结果正在生成中，请稍后再试")
		return
	}
	defer func() {
		if err := h.locker.Release(exam.ID, token); err != nil {
			slog.Warn("无法释放分配锁", "examID", exam.ID, "error", err)
		}
	}()

	// 读取分配所需的数据
	students, err := h.repository.GetStudentsBySemester(exam.Semester)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	classrooms, err := h.repository.GetAllClassrooms()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	staff, err := h.repository.GetAvailableStaff()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 生成分配结果
	result, err := h.allocator.Allocate(exam.Semester, students, classrooms, staff)
	if err != nil {
		if msg := allocationErrorMessage(err); msg != "" {
			h.errorResponse(w, r, msg)
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	// 检查结果是否满足所有约束
	if err := utils.ValidateAllocation(result, students, classrooms, staff); err != nil {
		h.internalServerError(w, r, fmt.Errorf("生成的分配结果不合法: %w", err))
		return
	}

	// 保存分配结果
	result.ExamID = exam.ID
	if err := h.repository.InsertAllocation(result); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "allocations_exam_id_key":
				h.errorResponse(w, r, duplicateAllocationMessage)
			case "allocation_rooms_classroom_id_fkey", "allocation_room_staff_staff_id_fkey", "allocation_room_students_student_id_fkey":
				h.errorResponse(w, r, "分配期间教室或人员信息发生了变化，请重新生成")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	slog.Info("已生成分配结果",
		"examID", exam.ID,
		"totalStudents", result.TotalStudents,
		"allocated", result.TotalStudentsAllocated,
		"unallocated", result.UnallocatedCount,
		"rooms", result.TotalRoomsUsed,
	)

	// 分配结果已经保存，邮件发送失败不影响本次请求
	h.notifyAssignedStaff(exam, result, staff)

	h.successResponse(w, r, "生成分配结果成功", GenerateAllocationResponse{
		Allocation: result,
		Summary: AllocationSummary{
			TotalStudents:          result.TotalStudents,
			TotalStudentsAllocated: result.TotalStudentsAllocated,
			UnallocatedCount:       result.UnallocatedCount,
			TotalRoomsUsed:         result.TotalRoomsUsed,
		},
	})
}

// notifyAssignedStaff 为每个被分配监考任务且有邮箱的人员发送通知邮件
func (h *Handler) notifyAssignedStaff(exam *domain.Exam, result *domain.Allocation, staff []*domain.Staff) {
	staffByID := lo.KeyBy(staff, func(s *domain.Staff) int64 { return s.ID })

	for _, room := range result.RoomAllocations {
		for _, staffID := range room.StaffIDs {
			s, ok := staffByID[staffID]
			if !ok || s.Email == "" {
				continue
			}

			if err := h.mailer.Publish(domain.MailMessage{
				Type: domain.MailTypeDutyAssignment,
				To:   s.Email,
				Data: domain.DutyAssignmentMailData{
					StaffName:    s.Name,
					ExamName:     exam.Name,
					ExamDate:     exam.Date,
					RoomNumber:   room.RoomNumber,
					Block:        room.Block,
					StudentCount: len(room.StudentIDs),
				},
			}); err != nil {
				slog.Error("无法发送监考通知邮件", "examID", exam.ID, "staffID", staffID, "error", err)
			}
		}
	}
}

// buildAllocationDetail 用教室、监考人员和学生的详细信息填充分配结果
func (h *Handler) buildAllocationDetail(exam *domain.Exam, a *domain.Allocation) (*domain.AllocationDetail, error) {
	staffIDs := lo.FlatMap(a.RoomAllocations, func(room domain.RoomAllocation, _ int) []int64 { return room.StaffIDs })
	studentIDs := lo.FlatMap(a.RoomAllocations, func(room domain.RoomAllocation, _ int) []int64 { return room.StudentIDs })

	staff, err := h.repository.GetStaffByIDs(staffIDs)
	if err != nil {
		return nil, err
	}
	students, err := h.repository.GetStudentsByIDs(studentIDs)
	if err != nil {
		return nil, err
	}
	classrooms, err := h.repository.GetAllClassrooms()
	if err != nil {
		return nil, err
	}

	staffByID := lo.KeyBy(staff, func(s *domain.Staff) int64 { return s.ID })
	studentsByID := lo.KeyBy(students, func(s *domain.Student) int64 { return s.ID })
	classroomsByID := lo.KeyBy(classrooms, func(c *domain.Classroom) int64 { return c.ID })

	detail := &domain.AllocationDetail{
		ID:                     a.ID,
		Exam:                   exam,
		RoomAllocations:        make([]domain.RoomAllocationDetail, 0, len(a.RoomAllocations)),
		TotalStudents:          a.TotalStudents,
		TotalStudentsAllocated: a.TotalStudentsAllocated,
		TotalRoomsUsed:         a.TotalRoomsUsed,
		UnallocatedCount:       a.UnallocatedCount,
		CreatedAt:              a.CreatedAt,
	}

	for _, room := range a.RoomAllocations {
		detail.RoomAllocations = append(detail.RoomAllocations, domain.RoomAllocationDetail{
			Classroom:  classroomsByID[room.ClassroomID],
			RoomNumber: room.RoomNumber,
			Block:      room.Block,
			Capacity:   room.Capacity,
			Staff:      lookup(room.StaffIDs, staffByID),
			Students:   lookup(room.StudentIDs, studentsByID),
		})
	}

	return detail, nil
}

// lookup 按 ids 的顺序取出对应的实体，找不到的 id 会被跳过
func lookup[T any](ids []int64, byID map[int64]T) []T {
	return lo.FilterMap(ids, func(id int64, _ int) (T, bool) {
		v, ok := byID[id]
		return v, ok
	})
}

func (h *Handler) GetExamAllocation(w http.ResponseWriter, r *http.Request) {
	exam := r.Context().Value(ExamCtx).(*domain.Exam)

	allocation, err := h.repository.GetAllocationByExamID(exam.ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "该考试还没有分配结果")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	detail, err := h.buildAllocationDetail(exam, allocation)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取分配结果成功", detail)
}

func (h *Handler) DeleteExamAllocation(w http.ResponseWriter, r *http.Request) {
	exam := r.Context().Value(ExamCtx).(*domain.Exam)

	allocation, err := h.repository.GetAllocationByExamID(exam.ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "该考试还没有分配结果")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.deleteAllocation(w, r, allocation.ID)
}

func (h *Handler) GetAllAllocations(w http.ResponseWriter, r *http.Request) {
	allocations, err := h.repository.GetAllAllocations()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取分配结果列表成功", allocations)
}

func (h *Handler) DeleteAllocation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.errorResponse(w, r, "分配结果ID无效")
		return
	}

	h.deleteAllocation(w, r, id)
}

func (h *Handler) deleteAllocation(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.repository.DeleteAllocation(id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "分配结果不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "删除分配结果成功", nil)
}
