package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/domain"
)

func (h *Handler) handleClassroomWriteError(w http.ResponseWriter, r *http.Request, err error) {
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr):
		switch pgErr.ConstraintName {
		case "classrooms_block_room_number_key":
			h.errorResponse(w, r, "该楼栋中已存在相同编号的教室")
		case "classrooms_capacity_check":
			h.errorResponse(w, r, "教室容量必须大于 0")
		default:
			h.internalServerError(w, r, err)
		}
	case errors.Is(err, sql.ErrNoRows):
		h.errorResponse(w, r, "更新教室信息失败，请重试")
	default:
		h.internalServerError(w, r, err)
	}
}

func (h *Handler) GetAllClassrooms(w http.ResponseWriter, r *http.Request) {
	classrooms, err := h.repository.GetAllClassrooms()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取教室列表成功", classrooms)
}

func (h *Handler) CreateClassroom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomNumber string `json:"roomNumber" validate:"required"`
		Block      string `json:"block" validate:"required"`
		Capacity   int32  `json:"capacity" validate:"required,min=1"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	classroom := &domain.Classroom{
		RoomNumber: req.RoomNumber,
		Block:      req.Block,
		Capacity:   req.Capacity,
	}

	if err := h.repository.CreateClassroom(classroom); err != nil {
		h.handleClassroomWriteError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建教室成功", classroom)
}

func (h *Handler) GetClassroom(w http.ResponseWriter, r *http.Request) {
	classroom := r.Context().Value(ClassroomCtx).(*domain.Classroom)
	h.successResponse(w, r, "获取教室成功", classroom)
}

func (h *Handler) UpdateClassroom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomNumber *string `json:"roomNumber" validate:"omitempty,min=1"`
		Block      *string `json:"block" validate:"omitempty,min=1"`
		Capacity   *int32  `json:"capacity" validate:"omitempty,min=1"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	classroom := r.Context().Value(ClassroomCtx).(*domain.Classroom)

	if req.RoomNumber != nil {
		classroom.RoomNumber = *req.RoomNumber
	}
	if req.Block != nil {
		classroom.Block = *req.Block
	}
	if req.Capacity != nil {
		classroom.Capacity = *req.Capacity
	}

	if err := h.repository.UpdateClassroom(classroom); err != nil {
		h.handleClassroomWriteError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新教室信息成功", classroom)
}

func (h *Handler) DeleteClassroom(w http.ResponseWriter, r *http.Request) {
	classroom := r.Context().Value(ClassroomCtx).(*domain.Classroom)

	if err := h.repository.DeleteClassroom(classroom.ID); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "allocation_rooms_classroom_id_fkey":
			h.errorResponse(w, r, "该教室已被用于考场分配，请先删除相关分配结果")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "删除教室成功", nil)
}
