package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/domain"
)

func (h *Handler) GetAllStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.repository.GetAllStaff()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取监考人员列表成功", staff)
}

func (h *Handler) GetAvailableStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.repository.GetAvailableStaff()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取可用监考人员列表成功", staff)
}

func (h *Handler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name" validate:"required"`
		Department  string `json:"department" validate:"required"`
		Designation string `json:"designation" validate:"required"`
		Email       string `json:"email" validate:"omitempty,email"`
		IsAvailable *bool  `json:"isAvailable"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	staff := &domain.Staff{
		Name:        req.Name,
		Department:  req.Department,
		Designation: req.Designation,
		Email:       req.Email,
		IsAvailable: true, // 默认可用
	}
	if req.IsAvailable != nil {
		staff.IsAvailable = *req.IsAvailable
	}

	if err := h.repository.CreateStaff(staff); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建监考人员成功", staff)
}

func (h *Handler) GetStaff(w http.ResponseWriter, r *http.Request) {
	staff := r.Context().Value(StaffCtx).(*domain.Staff)
	h.successResponse(w, r, "获取监考人员成功", staff)
}

func (h *Handler) UpdateStaff(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        *string `json:"name" validate:"omitempty,min=1"`
		Department  *string `json:"department" validate:"omitempty,min=1"`
		Designation *string `json:"designation" validate:"omitempty,min=1"`
		Email       *string `json:"email" validate:"omitempty,email"`
		IsAvailable *bool   `json:"isAvailable"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	staff := r.Context().Value(StaffCtx).(*domain.Staff)

	if req.Name != nil {
		staff.Name = *req.Name
	}
	if req.Department != nil {
		staff.Department = *req.Department
	}
	if req.Designation != nil {
		staff.Designation = *req.Designation
	}
	if req.Email != nil {
		staff.Email = *req.Email
	}
	if req.IsAvailable != nil {
		staff.IsAvailable = *req.IsAvailable
	}

	if err := h.repository.UpdateStaff(staff); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更新监考人员失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新监考人员成功", staff)
}

func (h *Handler) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	staff := r.Context().Value(StaffCtx).(*domain.Staff)

	if err := h.repository.DeleteStaff(staff.ID); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "allocation_room_staff_staff_id_fkey":
			h.errorResponse(w, r, "该监考人员已被分配到监考任务中，请先删除相关分配结果")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "删除监考人员成功", nil)
}
